package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/awonak/pool-party/internal/display"
	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/ledger"
	"github.com/awonak/pool-party/internal/payment"
)

const maxBodyBytes = 1 << 20

type App struct {
	Registry  *ledger.Registry
	Ledger    *ledger.Service
	Payments  payment.Capturer
	Site      domain.SiteRepository
	Formatter *display.Formatter
	Logger    zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	PoolID  int64  `json:"pool_id,omitempty"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}

type errorMapping struct {
	kind   error
	status int
	code   string
}

// checked in order; the first kind matched by errors.Is wins
var errorMappings = []errorMapping{
	{domain.ErrAllocationMismatch, http.StatusUnprocessableEntity, "allocation_mismatch"},
	{domain.ErrEmptyAllocation, http.StatusUnprocessableEntity, "empty_allocation"},
	{domain.ErrUnknownPool, http.StatusUnprocessableEntity, "unknown_pool"},
	{domain.ErrInsufficientBalance, http.StatusUnprocessableEntity, "insufficient_balance"},
	{domain.ErrBelowMinimum, http.StatusBadRequest, "below_minimum"},
	{domain.ErrMissingDescription, http.StatusBadRequest, "missing_description"},
	{domain.ErrValidation, http.StatusBadRequest, "validation_error"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrDuplicatePayment, http.StatusConflict, "duplicate_payment"},
	{payment.ErrUnavailable, http.StatusServiceUnavailable, "payment_unavailable"},
	{payment.ErrCaptureFailed, http.StatusBadGateway, "payment_failed"},
	{domain.ErrApplyFailed, http.StatusInternalServerError, "apply_failed"},
}

// fail writes err as a JSON error. Unmapped errors are logged and hidden.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			status, code = m.status, m.code
			break
		}
	}
	body := errorBody{Code: code, Message: err.Error()}
	var derr *domain.Error
	if errors.As(err, &derr) {
		body.Field = derr.Field
		body.PoolID = derr.PoolID
	}
	if status >= http.StatusInternalServerError {
		a.log(r).Error().Err(err).Str("code", code).Msg("request failed")
		switch code {
		case "internal":
			body.Message = "internal error"
		case "apply_failed":
			body.Message = "ledger update failed"
		}
	}
	a.json(w, status, map[string]errorBody{"error": body})
}

// log prefers the request-scoped logger set by the access log middleware.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewError(domain.ErrValidation, "id must be a positive integer").OnField("id")
	}
	return id, nil
}
