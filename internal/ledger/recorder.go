package ledger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/awonak/pool-party/internal/domain"
)

const defaultPageSize = 100

// Stage is a step of an allocation request's lifecycle.
type Stage string

const (
	StageReceived   Stage = "received"
	StageValidating Stage = "validating"
	StageRejected   Stage = "rejected"
	StageApplying   Stage = "applying"
	StageApplied    Stage = "applied"
	StageFailed     Stage = "failed"
)

// Plan describes one allocation request to apply.
type Plan struct {
	Type        domain.TransactionType
	Origin      domain.Origin
	PaymentID   string
	Actor       domain.Actor
	Description *string
	Anonymous   bool
	Request     domain.AllocationRequest
	// Validate runs while the touched pools are locked.
	Validate func(domain.AllocationRequest, domain.Pools) ([]domain.AllocationEntry, error)
}

// Recorder applies validated allocations and reads the ledger.
type Recorder struct {
	store    domain.LedgerRepository
	logger   zerolog.Logger
	now      func() time.Time
	pageSize int
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(store domain.LedgerRepository, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:    store,
		logger:   logger.With().Str("component", "ledger").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
		pageSize: defaultPageSize,
	}
}

// WithClock replaces the timestamp source.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// WithPageSize sets how many transactions Transactions fetches per round trip.
func (r *Recorder) WithPageSize(n int) *Recorder {
	if n > 0 {
		r.pageSize = n
	}
	return r
}

// Apply validates the plan against locked pool state and commits one
// transaction per entry. Rejections leave no trace; storage failures are
// reported as domain.ErrApplyFailed and also leave no trace.
func (r *Recorder) Apply(ctx context.Context, plan Plan) (domain.ApplyResult, error) {
	log := r.logger.With().Str("payment_id", plan.PaymentID).Str("type", string(plan.Type)).Logger()
	log.Debug().Str("stage", string(StageReceived)).Int("entries", len(plan.Request.Entries)).Send()

	var rejected error
	result, err := r.store.Apply(ctx, plan.Request.PoolIDs(), func(pools domain.Pools) ([]domain.Transaction, error) {
		log.Debug().Str("stage", string(StageValidating)).Send()
		entries, err := plan.Validate(plan.Request, pools)
		if err != nil {
			rejected = err
			return nil, err
		}
		log.Debug().Str("stage", string(StageApplying)).Send()
		ts := r.now()
		txs := make([]domain.Transaction, 0, len(entries))
		for _, e := range entries {
			txs = append(txs, domain.Transaction{
				PaymentID:   plan.PaymentID,
				PoolID:      e.PoolID,
				Type:        plan.Type,
				Origin:      plan.Origin,
				Amount:      e.Amount,
				Description: plan.Description,
				Anonymous:   plan.Anonymous && plan.Type == domain.TransactionDeposit,
				Actor:       plan.Actor,
				Timestamp:   ts,
			})
		}
		return txs, nil
	})
	switch {
	case rejected != nil:
		log.Info().Str("stage", string(StageRejected)).Err(rejected).Msg("allocation rejected")
		return domain.ApplyResult{}, rejected
	case errors.Is(err, domain.ErrDuplicatePayment):
		log.Info().Str("stage", string(StageRejected)).Err(err).Msg("allocation rejected")
		return domain.ApplyResult{}, err
	case err != nil:
		log.Error().Str("stage", string(StageFailed)).Err(err).Msg("allocation rolled back")
		if errors.Is(err, domain.ErrApplyFailed) {
			return domain.ApplyResult{}, err
		}
		return domain.ApplyResult{}, domain.ApplyFailed(err)
	}
	log.Info().Str("stage", string(StageApplied)).Int("transactions", len(result.Transactions)).Msg("allocation applied")
	return result, nil
}

// Summarize totals the ledger. NetBalance equals PoolBalance whenever the
// ledger is consistent.
func (r *Recorder) Summarize(ctx context.Context) (domain.Summary, error) {
	return r.store.Summary(ctx)
}

// Reconcile verifies every pool balance against its transactions and the
// overall net balance against the sum of pool balances.
func (r *Recorder) Reconcile(ctx context.Context) (domain.Summary, error) {
	sums, err := r.store.PoolLedgerSums(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	summary := domain.Summary{
		TotalDonations:   decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		PoolBalance:      decimal.Zero,
	}
	var drifted []string
	for _, s := range sums {
		summary.TotalDonations = summary.TotalDonations.Add(s.Deposits)
		summary.TotalWithdrawals = summary.TotalWithdrawals.Add(s.Withdrawals)
		summary.PoolBalance = summary.PoolBalance.Add(s.Balance)
		if !s.Balance.Equal(s.LedgerSum) {
			drifted = append(drifted, fmt.Sprintf("pool %d balance %s ledger %s", s.PoolID, domain.FormatAmount(s.Balance), domain.FormatAmount(s.LedgerSum)))
		}
	}
	summary.NetBalance = summary.TotalDonations.Sub(summary.TotalWithdrawals)
	if !summary.NetBalance.Equal(summary.PoolBalance) {
		drifted = append(drifted, fmt.Sprintf("net balance %s pool balance %s", domain.FormatAmount(summary.NetBalance), domain.FormatAmount(summary.PoolBalance)))
	}
	if len(drifted) > 0 {
		return summary, domain.NewError(domain.ErrLedgerDrift, strings.Join(drifted, "; "))
	}
	return summary, nil
}

// Transactions lazily pages through the ledger, newest first. The sequence is
// finite and every range over it starts again from the newest transaction.
func (r *Recorder) Transactions(ctx context.Context, filter domain.TransactionFilter) iter.Seq2[domain.Transaction, error] {
	return func(yield func(domain.Transaction, error) bool) {
		var cursor *domain.Cursor
		for {
			page, err := r.store.ListTransactions(ctx, filter, cursor, r.pageSize)
			if err != nil {
				yield(domain.Transaction{}, err)
				return
			}
			for _, tx := range page {
				if !yield(tx, nil) {
					return
				}
			}
			if len(page) < r.pageSize {
				return
			}
			last := page[len(page)-1]
			cursor = &domain.Cursor{Timestamp: last.Timestamp, ID: last.ID}
		}
	}
}

// Collect drains up to limit transactions from seq. A non-positive limit drains everything.
func Collect(seq iter.Seq2[domain.Transaction, error], limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for tx, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
