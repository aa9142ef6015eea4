package ledger

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/awonak/pool-party/internal/domain"
)

const (
	maxPoolNameLength        = 255
	maxPoolDescriptionLength = 1000
)

// Registry validates pool metadata before handing it to storage.
type Registry struct {
	pools domain.PoolRepository
}

// NewRegistry wraps a pool repository.
func NewRegistry(pools domain.PoolRepository) *Registry {
	return &Registry{pools: pools}
}

// Create adds a pool with a zero balance.
func (r *Registry) Create(ctx context.Context, in domain.PoolInput) (domain.FundingPool, error) {
	in, err := normalizePool(in)
	if err != nil {
		return domain.FundingPool{}, err
	}
	return r.pools.CreatePool(ctx, in)
}

// Update replaces name, description and goal. The balance is left untouched.
func (r *Registry) Update(ctx context.Context, id int64, in domain.PoolInput) (domain.FundingPool, error) {
	in, err := normalizePool(in)
	if err != nil {
		return domain.FundingPool{}, err
	}
	return r.pools.UpdatePool(ctx, id, in)
}

func (r *Registry) Get(ctx context.Context, id int64) (domain.FundingPool, error) {
	return r.pools.GetPool(ctx, id)
}

// List returns every pool in creation order.
func (r *Registry) List(ctx context.Context) ([]domain.FundingPool, error) {
	return r.pools.ListPools(ctx)
}

func normalizePool(in domain.PoolInput) (domain.PoolInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, domain.NewError(domain.ErrValidation, "name is required").OnField("name")
	}
	if utf8.RuneCountInString(in.Name) > maxPoolNameLength {
		return in, domain.NewError(domain.ErrValidation, fmt.Sprintf("name must be at most %d characters", maxPoolNameLength)).OnField("name")
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if desc == "" {
			in.Description = nil
		} else if utf8.RuneCountInString(desc) > maxPoolDescriptionLength {
			return in, domain.NewError(domain.ErrValidation, fmt.Sprintf("description must be at most %d characters", maxPoolDescriptionLength)).OnField("description")
		} else {
			in.Description = &desc
		}
	}
	in.GoalAmount = domain.RoundAmount(in.GoalAmount)
	if in.GoalAmount.IsNegative() {
		return in, domain.NewError(domain.ErrValidation, "goal_amount must not be negative").OnField("goal_amount")
	}
	if in.GoalAmount.GreaterThan(domain.MaxAmount) {
		return in, domain.NewError(domain.ErrValidation, fmt.Sprintf("goal_amount must not exceed %s", domain.FormatAmount(domain.MaxAmount))).OnField("goal_amount")
	}
	return in, nil
}
