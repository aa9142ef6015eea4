package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/awonak/pool-party/internal/domain"
)

// ValidateDeposit checks a donation against the pool snapshot and returns the
// entries to apply, zero allocations dropped. Checks run in a fixed order so
// the same request always fails the same way.
func ValidateDeposit(req domain.AllocationRequest, minimum decimal.Decimal, pools domain.Pools) ([]domain.AllocationEntry, error) {
	total := domain.RoundAmount(req.Total)
	if total.LessThan(domain.RoundAmount(minimum)) {
		return nil, domain.NewError(domain.ErrBelowMinimum,
			fmt.Sprintf("donation of %s is below the minimum of %s", domain.FormatAmount(total), domain.FormatAmount(minimum))).OnField("total")
	}
	entries, err := checkAllocation(req)
	if err != nil {
		return nil, err
	}
	if err := checkPoolsExist(entries, pools); err != nil {
		return nil, err
	}
	for i, e := range entries {
		if pools[e.PoolID].CurrentAmount.Add(e.Amount).GreaterThan(domain.MaxAmount) {
			return nil, domain.NewError(domain.ErrValidation,
				fmt.Sprintf("pool %q cannot hold more than %s", pools[e.PoolID].Name, domain.FormatAmount(domain.MaxAmount))).OnField(fmt.Sprintf("allocations[%d].amount", i)).OnPool(e.PoolID)
		}
	}
	return entries, nil
}

// ValidateWithdrawal checks a withdrawal against the pool snapshot. Every
// entry must fit the pool balance seen in the snapshot.
func ValidateWithdrawal(req domain.AllocationRequest, description string, pools domain.Pools) ([]domain.AllocationEntry, error) {
	if strings.TrimSpace(description) == "" {
		return nil, domain.NewError(domain.ErrMissingDescription, "a withdrawal needs a description").OnField("description")
	}
	entries, err := checkAllocation(req)
	if err != nil {
		return nil, err
	}
	if err := checkPoolsExist(entries, pools); err != nil {
		return nil, err
	}
	for _, e := range entries {
		balance := pools[e.PoolID].CurrentAmount
		if e.Amount.GreaterThan(balance) {
			return nil, domain.NewError(domain.ErrInsufficientBalance,
				fmt.Sprintf("cannot withdraw %s from %q, balance is %s", domain.FormatAmount(e.Amount), pools[e.PoolID].Name, domain.FormatAmount(balance))).OnPool(e.PoolID)
		}
	}
	return entries, nil
}

func checkAllocation(req domain.AllocationRequest) ([]domain.AllocationEntry, error) {
	if domain.RoundAmount(req.Total).GreaterThan(domain.MaxAmount) {
		return nil, domain.NewError(domain.ErrValidation,
			fmt.Sprintf("total must not exceed %s", domain.FormatAmount(domain.MaxAmount))).OnField("total")
	}
	seen := make(map[int64]struct{}, len(req.Entries))
	positive := make([]domain.AllocationEntry, 0, len(req.Entries))
	sum := decimal.Zero
	for i, e := range req.Entries {
		amount := domain.RoundAmount(e.Amount)
		field := fmt.Sprintf("allocations[%d]", i)
		if amount.IsNegative() {
			return nil, domain.NewError(domain.ErrValidation, fmt.Sprintf("allocation for pool %d is negative", e.PoolID)).OnField(field + ".amount").OnPool(e.PoolID)
		}
		if amount.GreaterThan(domain.MaxAmount) {
			return nil, domain.NewError(domain.ErrValidation,
				fmt.Sprintf("allocation for pool %d exceeds %s", e.PoolID, domain.FormatAmount(domain.MaxAmount))).OnField(field + ".amount").OnPool(e.PoolID)
		}
		if _, dup := seen[e.PoolID]; dup {
			return nil, domain.NewError(domain.ErrValidation, fmt.Sprintf("pool %d is allocated more than once", e.PoolID)).OnField(field + ".pool_id").OnPool(e.PoolID)
		}
		seen[e.PoolID] = struct{}{}
		sum = sum.Add(amount)
		if amount.IsPositive() {
			positive = append(positive, domain.AllocationEntry{PoolID: e.PoolID, Amount: amount})
		}
	}
	total := domain.RoundAmount(req.Total)
	if !sum.Equal(total) {
		return nil, domain.NewError(domain.ErrAllocationMismatch,
			fmt.Sprintf("allocations add up to %s but the total is %s", domain.FormatAmount(sum), domain.FormatAmount(total))).OnField("allocations")
	}
	if len(positive) == 0 {
		return nil, domain.NewError(domain.ErrEmptyAllocation, "allocate an amount to at least one pool").OnField("allocations")
	}
	return positive, nil
}

func checkPoolsExist(entries []domain.AllocationEntry, pools domain.Pools) error {
	for _, e := range entries {
		if _, ok := pools[e.PoolID]; !ok {
			return domain.NewError(domain.ErrUnknownPool, fmt.Sprintf("funding pool %d does not exist", e.PoolID)).OnPool(e.PoolID)
		}
	}
	return nil
}
