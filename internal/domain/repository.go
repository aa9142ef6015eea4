package domain

import "context"

// PoolRepository persists pool metadata. Balances are only changed through LedgerRepository.Apply.
type PoolRepository interface {
	CreatePool(ctx context.Context, in PoolInput) (FundingPool, error)
	UpdatePool(ctx context.Context, id int64, in PoolInput) (FundingPool, error)
	GetPool(ctx context.Context, id int64) (FundingPool, error)
	ListPools(ctx context.Context) ([]FundingPool, error)
}

// PlanFunc receives a locked snapshot of the requested pools and returns the
// transactions to commit. Returning an error aborts the batch.
type PlanFunc func(pools Pools) ([]Transaction, error)

// LedgerRepository owns transactions and pool balances as one unit.
type LedgerRepository interface {
	// Apply holds exclusive access to poolIDs for the duration of plan and the
	// commit. Either every returned transaction and its balance change is
	// stored, or nothing is.
	Apply(ctx context.Context, poolIDs []int64, plan PlanFunc) (ApplyResult, error)
	Summary(ctx context.Context) (Summary, error)
	PoolLedgerSums(ctx context.Context) ([]PoolLedgerSum, error)
	// ListTransactions returns up to limit transactions ordered by timestamp
	// desc then id desc, strictly after the cursor when one is given.
	ListTransactions(ctx context.Context, filter TransactionFilter, after *Cursor, limit int) ([]Transaction, error)
}

// UserRepository manages site accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetModerator(ctx context.Context, id string, moderator bool) (*User, error)
	UpsertUser(ctx context.Context, u User) (*User, error)
}

// SiteRepository reads and writes the site settings.
type SiteRepository interface {
	GetSite(ctx context.Context) (Site, error)
	SaveSite(ctx context.Context, site Site) (Site, error)
}
