package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/awonak/pool-party/internal/domain"
)

// Authenticator resolves a bearer token into the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}

type identityKey struct{}

// Authenticate attaches the caller's identity when a valid bearer token is
// present. Anonymous requests pass through; a bad token is rejected.
func Authenticate(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				deny(w, http.StatusUnauthorized, "unauthorized", "invalid authorization")
				return
			}
			id, err := authn.Authenticate(r.Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				deny(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}

// RequireUser rejects requests without a signed-in caller.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFromContext(r.Context()).Authenticated() {
			deny(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireModerator rejects callers without the moderator flag.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if !id.Authenticated() {
			deny(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		if !id.Moderator {
			deny(w, http.StatusForbidden, "forbidden", "moderator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func IdentityFromContext(ctx context.Context) domain.Identity {
	if v, ok := ctx.Value(identityKey{}).(domain.Identity); ok {
		return v
	}
	return domain.Identity{}
}

func ContextWithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// UserIDFromContext returns the signed-in user id or "".
func UserIDFromContext(ctx context.Context) string {
	return IdentityFromContext(ctx).UserID
}

func deny(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": errCode, "message": message},
	})
}
