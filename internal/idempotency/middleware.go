package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	Header         = "Idempotency-Key"
	ReplayedHeader = "Idempotent-Replayed"

	maxKeyLength  = 255
	maxBodyBytes  = 1 << 20
	releaseWindow = 5 * time.Second
)

// ScopeFunc returns the caller the key belongs to, so two users never share a key.
type ScopeFunc func(r *http.Request) string

// Middleware applies idempotency to requests carrying the Idempotency-Key
// header. Requests without the header pass through untouched. Server errors
// release the key so the client can retry.
func Middleware(store Store, ttl time.Duration, scope ScopeFunc, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(Header)
			if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				writeError(w, http.StatusBadRequest, "bad_request", "Idempotency-Key is too long")
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", "unreadable body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			caller := ""
			if scope != nil {
				caller = scope(r)
			}
			storeKey := caller + "|" + key
			fp := fingerprint(r.Method, r.URL.Path, body)

			existing, err := store.Reserve(r.Context(), storeKey, fp, ttl)
			if err != nil {
				logger.Error().Err(err).Str("idempotency_key", key).Msg("idempotency reserve failed")
				writeError(w, http.StatusServiceUnavailable, "unavailable", "idempotency store unavailable")
				return
			}
			if existing != nil {
				switch {
				case existing.Fingerprint != fp:
					writeError(w, http.StatusConflict, "idempotency_conflict", "Idempotency-Key was used with a different request")
				case existing.Status != StatusCompleted:
					writeError(w, http.StatusConflict, "request_in_progress", "a request with this Idempotency-Key is still in progress")
				default:
					replay(w, existing)
				}
				return
			}

			rec := &recorder{ResponseWriter: w, code: http.StatusOK}
			defer func() {
				// detached so a cancelled client does not leave the key pending
				ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), releaseWindow)
				defer cancel()
				if p := recover(); p != nil {
					_ = store.Release(ctx, storeKey)
					panic(p)
				}
				if rec.code >= http.StatusInternalServerError {
					if err := store.Release(ctx, storeKey); err != nil {
						logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency release failed")
					}
					return
				}
				err := store.Complete(ctx, storeKey, Record{
					Fingerprint: fp,
					Code:        rec.code,
					ContentType: rec.Header().Get("Content-Type"),
					Body:        rec.body.Bytes(),
				}, ttl)
				if err != nil {
					logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency complete failed")
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

func fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func replay(w http.ResponseWriter, rec *Record) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(rec.Code)
	_, _ = w.Write(rec.Body)
}

type recorder struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.code = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": errCode, "message": message},
	})
}
