package repo

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/infra"
)

// Amounts travel as numeric::text so no precision is lost on the way in or out.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

func scanPool(row pgx.Row) (domain.FundingPool, error) {
	var (
		p             domain.FundingPool
		goal, current string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &goal, &current, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.FundingPool{}, err
	}
	var err error
	if p.GoalAmount, err = parseAmount(goal); err != nil {
		return domain.FundingPool{}, err
	}
	if p.CurrentAmount, err = parseAmount(current); err != nil {
		return domain.FundingPool{}, err
	}
	return p, nil
}

func scanPools(rows pgx.Rows) ([]domain.FundingPool, error) {
	defer rows.Close()
	var out []domain.FundingPool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func notFoundPool(id int64, err error) error {
	if infra.IsNoRows(err) {
		return &domain.Error{Kind: domain.ErrNotFound, Message: fmt.Sprintf("funding pool %d not found", id), PoolID: id, Err: err}
	}
	return err
}
