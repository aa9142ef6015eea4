// Package auth turns bearer session tokens into request identities.
package auth

import (
	"context"
	"fmt"

	"github.com/awonak/pool-party/internal/domain"
)

// Authenticator resolves a raw bearer token into an Identity.
type Authenticator struct {
	tokens     *TokenIssuer
	moderators ModeratorDirectory
}

func NewAuthenticator(tokens *TokenIssuer, moderators ModeratorDirectory) *Authenticator {
	return &Authenticator{tokens: tokens, moderators: moderators}
}

// Authenticate verifies the token and looks up the moderator flag.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (domain.Identity, error) {
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	id := domain.Identity{
		UserID:      claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}
	if a.moderators != nil {
		mod, err := a.moderators.IsModerator(ctx, claims.Subject)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("lookup moderator: %w", err)
		}
		id.Moderator = mod
	}
	return id, nil
}
