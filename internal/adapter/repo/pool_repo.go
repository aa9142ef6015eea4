package repo

import (
	"context"

	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/infra"
	"github.com/awonak/pool-party/internal/sqlinline"
)

// PoolRepositoryPG implements domain.PoolRepository backed by PostgreSQL.
type PoolRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewPoolRepository creates a new PoolRepositoryPG.
func NewPoolRepository(sql infra.SQLExecutor) *PoolRepositoryPG {
	return &PoolRepositoryPG{sql: sql}
}

// CreatePool inserts a pool with a zero balance.
func (r *PoolRepositoryPG) CreatePool(ctx context.Context, in domain.PoolInput) (domain.FundingPool, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertPool, in.Name, in.Description, in.GoalAmount.String())
	return scanPool(row)
}

// UpdatePool changes metadata only; current_amount is not in the statement.
func (r *PoolRepositoryPG) UpdatePool(ctx context.Context, id int64, in domain.PoolInput) (domain.FundingPool, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpdatePool, id, in.Name, in.Description, in.GoalAmount.String())
	p, err := scanPool(row)
	if err != nil {
		return domain.FundingPool{}, notFoundPool(id, err)
	}
	return p, nil
}

// GetPool fetches a pool by id.
func (r *PoolRepositoryPG) GetPool(ctx context.Context, id int64) (domain.FundingPool, error) {
	p, err := scanPool(r.sql.QueryRow(ctx, sqlinline.QSelectPoolByID, id))
	if err != nil {
		return domain.FundingPool{}, notFoundPool(id, err)
	}
	return p, nil
}

// ListPools returns all pools ordered by id.
func (r *PoolRepositoryPG) ListPools(ctx context.Context) ([]domain.FundingPool, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListPools)
	if err != nil {
		return nil, err
	}
	pools, err := scanPools(rows)
	if err != nil {
		return nil, err
	}
	if pools == nil {
		pools = []domain.FundingPool{}
	}
	return pools, nil
}

var _ domain.PoolRepository = (*PoolRepositoryPG)(nil)
