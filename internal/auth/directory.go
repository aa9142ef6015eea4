package auth

import (
	"context"
	"errors"

	"github.com/awonak/pool-party/internal/domain"
)

// ModeratorDirectory answers whether a user may manage pools and the ledger.
type ModeratorDirectory interface {
	IsModerator(ctx context.Context, userID string) (bool, error)
}

// StaticDirectory grants moderator rights to a fixed set of user ids.
type StaticDirectory map[string]struct{}

// NewStaticDirectory builds a directory from a list of user ids.
func NewStaticDirectory(ids []string) StaticDirectory {
	d := make(StaticDirectory, len(ids))
	for _, id := range ids {
		d[id] = struct{}{}
	}
	return d
}

func (d StaticDirectory) IsModerator(_ context.Context, userID string) (bool, error) {
	_, ok := d[userID]
	return ok, nil
}

// UserDirectory reads the moderator flag from stored users. Unknown users are
// not moderators.
type UserDirectory struct {
	users domain.UserRepository
}

func NewUserDirectory(users domain.UserRepository) *UserDirectory {
	return &UserDirectory{users: users}
}

func (d *UserDirectory) IsModerator(ctx context.Context, userID string) (bool, error) {
	u, err := d.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsModerator, nil
}

// AnyDirectory grants moderator rights when any of its directories does.
type AnyDirectory []ModeratorDirectory

func (d AnyDirectory) IsModerator(ctx context.Context, userID string) (bool, error) {
	for _, dir := range d {
		ok, err := dir.IsModerator(ctx, userID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
