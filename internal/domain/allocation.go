package domain

import "github.com/shopspring/decimal"

// AllocationEntry is the amount carved out of a payment for a single pool.
type AllocationEntry struct {
	PoolID int64
	Amount decimal.Decimal
}

// AllocationRequest is a payment total split across pools. It is never persisted.
type AllocationRequest struct {
	Total   decimal.Decimal
	Entries []AllocationEntry
}

// Sum returns the rounded sum of all entries.
func (r AllocationRequest) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range r.Entries {
		sum = sum.Add(RoundAmount(e.Amount))
	}
	return sum
}

// PoolIDs returns the distinct pool ids referenced by the request in request order.
func (r AllocationRequest) PoolIDs() []int64 {
	seen := make(map[int64]struct{}, len(r.Entries))
	ids := make([]int64, 0, len(r.Entries))
	for _, e := range r.Entries {
		if _, ok := seen[e.PoolID]; ok {
			continue
		}
		seen[e.PoolID] = struct{}{}
		ids = append(ids, e.PoolID)
	}
	return ids
}

// Summary aggregates the ledger.
type Summary struct {
	TotalDonations   decimal.Decimal
	TotalWithdrawals decimal.Decimal
	NetBalance       decimal.Decimal
	PoolBalance      decimal.Decimal
}

// PoolLedgerSum pairs a pool's stored balance with the signed sum of its transactions.
type PoolLedgerSum struct {
	PoolID      int64
	Balance     decimal.Decimal
	LedgerSum   decimal.Decimal
	Deposits    decimal.Decimal
	Withdrawals decimal.Decimal
}

// ApplyResult is what a committed batch produced.
type ApplyResult struct {
	Pools        []FundingPool
	Transactions []Transaction
}
