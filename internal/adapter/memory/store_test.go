package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awonak/pool-party/internal/domain"
)

func deposit(pool int64, payment string, amount int64) domain.Transaction {
	return domain.Transaction{
		PaymentID: payment,
		PoolID:    pool,
		Type:      domain.TransactionDeposit,
		Origin:    domain.OriginExternal,
		Amount:    decimal.NewFromInt(amount),
		Actor:     domain.Actor{Kind: domain.ActorUser, ID: "mod"},
	}
}

func seed(t *testing.T) (*Store, domain.FundingPool, domain.FundingPool) {
	t.Helper()
	s := NewStore()
	a, err := s.CreatePool(context.Background(), domain.PoolInput{Name: "A"})
	require.NoError(t, err)
	b, err := s.CreatePool(context.Background(), domain.PoolInput{Name: "B"})
	require.NoError(t, err)
	return s, a, b
}

func TestApplyCommitsTransactionsAndBalances(t *testing.T) {
	s, a, b := seed(t)

	res, err := s.Apply(context.Background(), []int64{b.ID, a.ID}, func(pools domain.Pools) ([]domain.Transaction, error) {
		assert.Len(t, pools, 2)
		return []domain.Transaction{deposit(a.ID, "p1", 4), deposit(b.ID, "p1", 6)}, nil
	})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, int64(1), res.Transactions[0].ID)
	assert.False(t, res.Transactions[0].Timestamp.IsZero())
	require.Len(t, res.Pools, 2)
	assert.Equal(t, a.ID, res.Pools[0].ID)

	sums, err := s.PoolLedgerSums(context.Background())
	require.NoError(t, err)
	for _, row := range sums {
		assert.True(t, row.Balance.Equal(row.LedgerSum))
	}
}

func TestApplyUnknownPoolIsAbsentFromSnapshot(t *testing.T) {
	s, a, _ := seed(t)
	_, err := s.Apply(context.Background(), []int64{a.ID, 99}, func(pools domain.Pools) ([]domain.Transaction, error) {
		_, ok := pools[99]
		assert.False(t, ok)
		return nil, nil
	})
	require.NoError(t, err)
}

func TestApplyUnknownPoolGetsNoLock(t *testing.T) {
	s, a, _ := seed(t)
	for id := int64(100); id < 110; id++ {
		_, err := s.Apply(context.Background(), []int64{a.ID, id}, func(domain.Pools) ([]domain.Transaction, error) {
			return nil, nil
		})
		require.NoError(t, err)
	}

	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	assert.Len(t, s.locks, 1)
	assert.Contains(t, s.locks, a.ID)
}

func TestApplyRejectsPaymentRecordedOnAnotherPool(t *testing.T) {
	s, a, b := seed(t)
	_, err := s.Apply(context.Background(), []int64{a.ID}, func(domain.Pools) ([]domain.Transaction, error) {
		return []domain.Transaction{deposit(a.ID, "cap-9", 25)}, nil
	})
	require.NoError(t, err)

	_, err = s.Apply(context.Background(), []int64{b.ID}, func(domain.Pools) ([]domain.Transaction, error) {
		return []domain.Transaction{deposit(b.ID, "cap-9", 25)}, nil
	})
	require.ErrorIs(t, err, domain.ErrDuplicatePayment)

	summary, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "25", summary.TotalDonations.String())
	got, err := s.GetPool(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentAmount.IsZero())
}

func TestApplyRejectsUnlockedPoolWithoutChanges(t *testing.T) {
	s, a, b := seed(t)

	_, err := s.Apply(context.Background(), []int64{a.ID}, func(domain.Pools) ([]domain.Transaction, error) {
		return []domain.Transaction{deposit(a.ID, "p1", 4), deposit(b.ID, "p1", 6)}, nil
	})
	require.Error(t, err)

	summary, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.TotalDonations.IsZero())
	assert.True(t, summary.PoolBalance.IsZero())
}

func TestApplyHonoursCancelledContext(t *testing.T) {
	s, a, _ := seed(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := s.Apply(ctx, []int64{a.ID}, func(domain.Pools) ([]domain.Transaction, error) {
		called = true
		return nil, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestReadersNeverSeeHalfABatch(t *testing.T) {
	s, a, b := seed(t)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			summary, err := s.Summary(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			if !summary.NetBalance.Equal(summary.PoolBalance) {
				t.Errorf("partial batch observed: net %s pools %s", summary.NetBalance, summary.PoolBalance)
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		payment := fmt.Sprintf("p%d", i)
		_, err := s.Apply(context.Background(), []int64{a.ID, b.ID}, func(domain.Pools) ([]domain.Transaction, error) {
			return []domain.Transaction{deposit(a.ID, payment, 1), deposit(b.ID, payment, 2)}, nil
		})
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}

func TestListTransactionsKeyset(t *testing.T) {
	s, a, b := seed(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		_, err := s.Apply(context.Background(), []int64{a.ID, b.ID}, func(domain.Pools) ([]domain.Transaction, error) {
			x, y := deposit(a.ID, ts.String(), 1), deposit(b.ID, ts.String(), 1)
			x.Timestamp, y.Timestamp = ts, ts
			return []domain.Transaction{x, y}, nil
		})
		require.NoError(t, err)
	}

	page, err := s.ListTransactions(context.Background(), domain.TransactionFilter{}, nil, 4)
	require.NoError(t, err)
	require.Len(t, page, 4)
	assert.Equal(t, []int64{6, 5, 4, 3}, []int64{page[0].ID, page[1].ID, page[2].ID, page[3].ID})

	last := page[3]
	rest, err := s.ListTransactions(context.Background(), domain.TransactionFilter{}, &domain.Cursor{Timestamp: last.Timestamp, ID: last.ID}, 4)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, int64(2), rest[0].ID)

	onlyB, err := s.ListTransactions(context.Background(), domain.TransactionFilter{PoolID: b.ID}, nil, 0)
	require.NoError(t, err)
	assert.Len(t, onlyB, 3)
}

func TestUpdatePoolUnknown(t *testing.T) {
	s := NewStore()
	_, err := s.UpdatePool(context.Background(), 1, domain.PoolInput{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSiteStore(t *testing.T) {
	s := NewSiteStore(domain.Site{Title: "Pool Party"})
	site, err := s.GetSite(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Pool Party", site.Title)

	saved, err := s.SaveSite(context.Background(), domain.Site{Title: "Shop", Headline: "Tools"})
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.IsZero())
}
