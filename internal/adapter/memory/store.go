// Package memory keeps pools and the ledger in process memory. It is used for
// local development and by tests; state is lost on restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/awonak/pool-party/internal/domain"
)

// Store implements domain.PoolRepository and domain.LedgerRepository.
//
// Writers touching a pool hold that pool's lock from snapshot to commit; the
// commit itself swaps state under mu so readers see a batch entirely or not at all.
type Store struct {
	mu         sync.RWMutex
	pools      map[int64]domain.FundingPool
	order      []int64
	txs        []domain.Transaction
	payments   map[string]struct{}
	nextPoolID int64
	nextTxID   int64
	now        func() time.Time

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		pools:    make(map[int64]domain.FundingPool),
		payments: make(map[string]struct{}),
		locks:    make(map[int64]*sync.Mutex),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CreatePool(_ context.Context, in domain.PoolInput) (domain.FundingPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPoolID++
	now := s.now()
	p := domain.FundingPool{
		ID:            s.nextPoolID,
		Name:          in.Name,
		Description:   in.Description,
		GoalAmount:    in.GoalAmount,
		CurrentAmount: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.pools[p.ID] = p
	s.order = append(s.order, p.ID)
	return p, nil
}

func (s *Store) UpdatePool(_ context.Context, id int64, in domain.PoolInput) (domain.FundingPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[id]
	if !ok {
		return domain.FundingPool{}, domain.NewError(domain.ErrNotFound, fmt.Sprintf("funding pool %d not found", id)).OnPool(id)
	}
	p.Name = in.Name
	p.Description = in.Description
	p.GoalAmount = in.GoalAmount
	p.UpdatedAt = s.now()
	s.pools[id] = p
	return p, nil
}

func (s *Store) GetPool(_ context.Context, id int64) (domain.FundingPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[id]
	if !ok {
		return domain.FundingPool{}, domain.NewError(domain.ErrNotFound, fmt.Sprintf("funding pool %d not found", id)).OnPool(id)
	}
	return p, nil
}

func (s *Store) ListPools(_ context.Context) ([]domain.FundingPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FundingPool, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.pools[id])
	}
	return out, nil
}

// Apply locks the pools in ascending id order, runs plan against a snapshot
// and commits the resulting transactions.
func (s *Store) Apply(ctx context.Context, poolIDs []int64, plan domain.PlanFunc) (domain.ApplyResult, error) {
	unlock := s.lockPools(poolIDs)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return domain.ApplyResult{}, err
	}

	snapshot := make(domain.Pools, len(poolIDs))
	s.mu.RLock()
	for _, id := range poolIDs {
		if p, ok := s.pools[id]; ok {
			snapshot[id] = p
		}
	}
	s.mu.RUnlock()

	txs, err := plan(snapshot)
	if err != nil {
		return domain.ApplyResult{}, err
	}
	return s.commit(snapshot, txs)
}

func (s *Store) commit(locked domain.Pools, txs []domain.Transaction) (domain.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[int64]domain.FundingPool, len(locked))
	var touched []int64
	for _, tx := range txs {
		if _, ok := locked[tx.PoolID]; !ok {
			return domain.ApplyResult{}, fmt.Errorf("pool %d is not part of the locked set", tx.PoolID)
		}
		if _, dup := s.payments[tx.PaymentID]; dup {
			return domain.ApplyResult{}, domain.NewError(domain.ErrDuplicatePayment,
				fmt.Sprintf("payment %s already recorded", tx.PaymentID)).OnPool(tx.PoolID)
		}
		p, ok := staged[tx.PoolID]
		if !ok {
			p = s.pools[tx.PoolID]
			touched = append(touched, tx.PoolID)
		}
		p.CurrentAmount = p.CurrentAmount.Add(tx.Signed())
		if p.CurrentAmount.IsNegative() {
			return domain.ApplyResult{}, fmt.Errorf("pool %d balance would become %s", tx.PoolID, domain.FormatAmount(p.CurrentAmount))
		}
		staged[tx.PoolID] = p
	}

	now := s.now()
	committed := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		s.nextTxID++
		tx.ID = s.nextTxID
		if tx.Timestamp.IsZero() {
			tx.Timestamp = now
		}
		s.txs = append(s.txs, tx)
		s.payments[tx.PaymentID] = struct{}{}
		committed = append(committed, tx)
	}
	slices.Sort(touched)
	pools := make([]domain.FundingPool, 0, len(touched))
	for _, id := range touched {
		p := staged[id]
		p.UpdatedAt = now
		s.pools[id] = p
		pools = append(pools, p)
	}
	return domain.ApplyResult{Pools: pools, Transactions: committed}, nil
}

func (s *Store) Summary(_ context.Context) (domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := domain.Summary{TotalDonations: decimal.Zero, TotalWithdrawals: decimal.Zero, PoolBalance: decimal.Zero}
	for _, tx := range s.txs {
		if tx.Type == domain.TransactionDeposit {
			sum.TotalDonations = sum.TotalDonations.Add(tx.Amount)
		} else {
			sum.TotalWithdrawals = sum.TotalWithdrawals.Add(tx.Amount)
		}
	}
	for _, p := range s.pools {
		sum.PoolBalance = sum.PoolBalance.Add(p.CurrentAmount)
	}
	sum.NetBalance = sum.TotalDonations.Sub(sum.TotalWithdrawals)
	return sum, nil
}

func (s *Store) PoolLedgerSums(_ context.Context) ([]domain.PoolLedgerSum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byPool := make(map[int64]*domain.PoolLedgerSum, len(s.order))
	out := make([]domain.PoolLedgerSum, len(s.order))
	for i, id := range s.order {
		out[i] = domain.PoolLedgerSum{
			PoolID:      id,
			Balance:     s.pools[id].CurrentAmount,
			LedgerSum:   decimal.Zero,
			Deposits:    decimal.Zero,
			Withdrawals: decimal.Zero,
		}
		byPool[id] = &out[i]
	}
	for _, tx := range s.txs {
		row, ok := byPool[tx.PoolID]
		if !ok {
			continue
		}
		row.LedgerSum = row.LedgerSum.Add(tx.Signed())
		if tx.Type == domain.TransactionDeposit {
			row.Deposits = row.Deposits.Add(tx.Amount)
		} else {
			row.Withdrawals = row.Withdrawals.Add(tx.Amount)
		}
	}
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, filter domain.TransactionFilter, after *domain.Cursor, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]domain.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if !filter.Matches(tx) {
			continue
		}
		if after != nil && !after.Before(tx) {
			continue
		}
		matched = append(matched, tx)
	}
	slices.SortFunc(matched, func(a, b domain.Transaction) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// lockPools acquires the per-pool locks in ascending order and returns the release func.
func (s *Store) lockPools(ids []int64) func() {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	// Unknown ids get no lock; they stay out of the snapshot and the plan rejects them.
	s.mu.RLock()
	sorted = slices.DeleteFunc(sorted, func(id int64) bool {
		_, ok := s.pools[id]
		return !ok
	})
	s.mu.RUnlock()

	s.locksMu.Lock()
	held := make([]*sync.Mutex, 0, len(sorted))
	for _, id := range sorted {
		m, ok := s.locks[id]
		if !ok {
			m = &sync.Mutex{}
			s.locks[id] = m
		}
		held = append(held, m)
	}
	s.locksMu.Unlock()

	for _, m := range held {
		m.Lock()
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

var (
	_ domain.PoolRepository   = (*Store)(nil)
	_ domain.LedgerRepository = (*Store)(nil)
)
