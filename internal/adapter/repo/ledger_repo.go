package repo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/infra"
	"github.com/awonak/pool-party/internal/sqlinline"
)

const paymentPoolConstraint = "ledger_payment_pool_key"

// LedgerRepositoryPG implements domain.LedgerRepository backed by PostgreSQL.
// Pool rows are locked with SELECT ... FOR UPDATE for the whole batch.
type LedgerRepositoryPG struct {
	sql infra.TxRunner
}

// NewLedgerRepository creates a new LedgerRepositoryPG.
func NewLedgerRepository(sql infra.TxRunner) *LedgerRepositoryPG {
	return &LedgerRepositoryPG{sql: sql}
}

// Apply runs plan against locked pool rows and stores its transactions and
// balance changes in the same database transaction.
func (r *LedgerRepositoryPG) Apply(ctx context.Context, poolIDs []int64, plan domain.PlanFunc) (domain.ApplyResult, error) {
	var result domain.ApplyResult
	err := r.sql.InTx(ctx, func(tx infra.SQLExecutor) error {
		rows, err := tx.Query(ctx, sqlinline.QLockPools, poolIDs)
		if err != nil {
			return fmt.Errorf("lock pools: %w", err)
		}
		locked, err := scanPools(rows)
		if err != nil {
			return fmt.Errorf("lock pools: %w", err)
		}
		snapshot := make(domain.Pools, len(locked))
		for _, p := range locked {
			snapshot[p.ID] = p
		}

		txs, err := plan(snapshot)
		if err != nil {
			return err
		}

		for _, t := range txs {
			if _, ok := snapshot[t.PoolID]; !ok {
				return fmt.Errorf("pool %d is not part of the locked set", t.PoolID)
			}
		}
		if err := recordPayments(ctx, tx, txs); err != nil {
			return err
		}

		deltas := make(map[int64]decimal.Decimal)
		for _, t := range txs {
			row := tx.QueryRow(ctx, sqlinline.QInsertTransaction,
				t.PaymentID, t.PoolID, string(t.Type), string(t.Origin), t.Amount.String(), t.Description, t.Anonymous,
				string(t.Actor.Kind), t.Actor.ID, t.Actor.DisplayName, t.Timestamp)
			if err := row.Scan(&t.ID, &t.Timestamp); err != nil {
				if infra.IsUniqueViolation(err, paymentPoolConstraint) {
					return &domain.Error{
						Kind:    domain.ErrDuplicatePayment,
						Message: fmt.Sprintf("payment %s already recorded for pool %d", t.PaymentID, t.PoolID),
						PoolID:  t.PoolID,
						Err:     err,
					}
				}
				return fmt.Errorf("insert transaction: %w", err)
			}
			result.Transactions = append(result.Transactions, t)
			deltas[t.PoolID] = deltas[t.PoolID].Add(t.Signed())
		}

		ids := make([]int64, 0, len(deltas))
		for id := range deltas {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			p, err := scanPool(tx.QueryRow(ctx, sqlinline.QApplyPoolDelta, id, deltas[id].String()))
			if err != nil {
				return fmt.Errorf("update pool %d balance: %w", id, err)
			}
			result.Pools = append(result.Pools, p)
		}
		return nil
	})
	if err != nil {
		return domain.ApplyResult{}, err
	}
	return result, nil
}

// recordPayments claims each payment id of the batch. A payment id is spent
// once, whichever pools it was allocated to; a concurrent claim waits on the
// primary key until the other transaction finishes.
func recordPayments(ctx context.Context, tx infra.SQLExecutor, txs []domain.Transaction) error {
	seen := make(map[string]bool, 1)
	for _, t := range txs {
		if seen[t.PaymentID] {
			continue
		}
		seen[t.PaymentID] = true
		var id string
		if err := tx.QueryRow(ctx, sqlinline.QRecordPayment, t.PaymentID).Scan(&id); err != nil {
			if infra.IsNoRows(err) {
				return &domain.Error{
					Kind:    domain.ErrDuplicatePayment,
					Message: fmt.Sprintf("payment %s already recorded", t.PaymentID),
					PoolID:  t.PoolID,
				}
			}
			return fmt.Errorf("record payment: %w", err)
		}
	}
	return nil
}

// Summary totals deposits, withdrawals and pool balances in one statement.
func (r *LedgerRepositoryPG) Summary(ctx context.Context) (domain.Summary, error) {
	var deposits, withdrawals, balance string
	if err := r.sql.QueryRow(ctx, sqlinline.QLedgerSummary).Scan(&deposits, &withdrawals, &balance); err != nil {
		return domain.Summary{}, err
	}
	var (
		s   domain.Summary
		err error
	)
	if s.TotalDonations, err = parseAmount(deposits); err != nil {
		return domain.Summary{}, err
	}
	if s.TotalWithdrawals, err = parseAmount(withdrawals); err != nil {
		return domain.Summary{}, err
	}
	if s.PoolBalance, err = parseAmount(balance); err != nil {
		return domain.Summary{}, err
	}
	s.NetBalance = s.TotalDonations.Sub(s.TotalWithdrawals)
	return s, nil
}

// PoolLedgerSums returns each pool's balance next to the sum of its transactions.
func (r *LedgerRepositoryPG) PoolLedgerSums(ctx context.Context) ([]domain.PoolLedgerSum, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QPoolLedgerSums)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.PoolLedgerSum
	for rows.Next() {
		var (
			s                                  domain.PoolLedgerSum
			balance, sum, deposits, withdrawals string
		)
		if err := rows.Scan(&s.PoolID, &balance, &sum, &deposits, &withdrawals); err != nil {
			return nil, err
		}
		if s.Balance, err = parseAmount(balance); err != nil {
			return nil, err
		}
		if s.LedgerSum, err = parseAmount(sum); err != nil {
			return nil, err
		}
		if s.Deposits, err = parseAmount(deposits); err != nil {
			return nil, err
		}
		if s.Withdrawals, err = parseAmount(withdrawals); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListTransactions pages through the ledger with a (created_at, id) keyset.
func (r *LedgerRepositoryPG) ListTransactions(ctx context.Context, filter domain.TransactionFilter, after *domain.Cursor, limit int) ([]domain.Transaction, error) {
	var (
		afterTS *time.Time
		afterID int64
	)
	if after != nil {
		afterTS = &after.Timestamp
		afterID = after.ID
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListTransactions, string(filter.Type), filter.PoolID, afterTS, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Transaction
	for rows.Next() {
		var (
			t                              domain.Transaction
			txType, origin, kind, amount string
		)
		if err := rows.Scan(&t.ID, &t.PaymentID, &t.PoolID, &txType, &origin, &amount, &t.Description, &t.Anonymous,
			&kind, &t.Actor.ID, &t.Actor.DisplayName, &t.Timestamp); err != nil {
			return nil, err
		}
		if t.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		t.Type = domain.TransactionType(txType)
		t.Origin = domain.Origin(origin)
		t.Actor.Kind = domain.ActorKind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}

var _ domain.LedgerRepository = (*LedgerRepositoryPG)(nil)
