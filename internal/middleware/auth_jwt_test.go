package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/awonak/pool-party/internal/domain"
)

type fakeAuthn map[string]domain.Identity

func (f fakeAuthn) Authenticate(_ context.Context, token string) (domain.Identity, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return domain.Identity{}, errors.New("bad token")
}

func TestAuthenticateAndGuards(t *testing.T) {
	authn := fakeAuthn{
		"mod-token":  {UserID: "m1", Moderator: true},
		"user-token": {UserID: "u1"},
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name   string
		header string
		guard  func(http.Handler) http.Handler
		want   int
	}{
		{name: "anonymous passes open route", guard: nil, want: http.StatusNoContent},
		{name: "anonymous blocked by RequireUser", guard: RequireUser, want: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "user passes RequireUser", header: "Bearer user-token", guard: RequireUser, want: http.StatusNoContent},
		{name: "user forbidden for moderator route", header: "Bearer user-token", guard: RequireModerator, want: http.StatusForbidden},
		{name: "moderator allowed", header: "bearer mod-token", guard: RequireModerator, want: http.StatusNoContent},
		{name: "anonymous moderator route", guard: RequireModerator, want: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var h http.Handler = ok
			if tc.guard != nil {
				h = tc.guard(h)
			}
			h = Authenticate(authn)(h)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestIdentityFromContext(t *testing.T) {
	assert.False(t, IdentityFromContext(context.Background()).Authenticated())
	ctx := ContextWithIdentity(context.Background(), domain.Identity{UserID: "u1"})
	assert.Equal(t, "u1", UserIDFromContext(ctx))
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc", seen)
}
