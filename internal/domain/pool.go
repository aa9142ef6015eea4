package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundingPool is a named bucket that donations and withdrawals are allocated against.
// CurrentAmount is maintained by the ledger and never written directly.
type FundingPool struct {
	ID            int64
	Name          string
	Description   *string
	GoalAmount    decimal.Decimal
	CurrentAmount decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PoolInput carries the moderator-editable fields of a pool.
type PoolInput struct {
	Name        string
	Description *string
	GoalAmount  decimal.Decimal
}

// Pools indexes pool snapshots by id.
type Pools map[int64]FundingPool
