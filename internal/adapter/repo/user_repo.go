package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/infra"
	"github.com/awonak/pool-party/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// GetByID fetches a user by the identity provider's subject id.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id))
}

// GetByEmail fetches a user by email, case-insensitively.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByEmail, email))
}

// SetModerator grants or revokes moderator rights.
func (r *UserRepositoryPG) SetModerator(ctx context.Context, id string, moderator bool) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSetUserModerator, id, moderator))
}

// UpsertUser records the profile the identity provider reports. The moderator
// flag of an existing user is left alone.
func (r *UserRepositoryPG) UpsertUser(ctx context.Context, u domain.User) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QUpsertUser, u.ID, u.Email, u.FirstName, u.LastName))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.IsModerator, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
