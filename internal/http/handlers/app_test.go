package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/awonak/pool-party/internal/display"
	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/ledger"
	"github.com/awonak/pool-party/internal/payment"
)

func TestFailMapsErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.NewError(domain.ErrAllocationMismatch, "off by a cent").OnField("allocations"), http.StatusUnprocessableEntity, "allocation_mismatch"},
		{domain.NewError(domain.ErrInsufficientBalance, "too much").OnPool(3), http.StatusUnprocessableEntity, "insufficient_balance"},
		{domain.NewError(domain.ErrBelowMinimum, "small"), http.StatusBadRequest, "below_minimum"},
		{domain.NewError(domain.ErrNotFound, "gone"), http.StatusNotFound, "not_found"},
		{fmt.Errorf("capture: %w", payment.ErrCaptureFailed), http.StatusBadGateway, "payment_failed"},
		{domain.ApplyFailed(errors.New("disk full")), http.StatusInternalServerError, "apply_failed"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	a := &App{Logger: zerolog.Nop()}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			rr := httptest.NewRecorder()
			a.fail(rr, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
			assert.Equal(t, tc.status, rr.Code)

			var body map[string]errorBody
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tc.code, body["error"].Code)
		})
	}
}

func TestFailHidesInternalDetails(t *testing.T) {
	a := &App{Logger: zerolog.Nop()}
	rr := httptest.NewRecorder()
	a.fail(rr, httptest.NewRequest(http.MethodGet, "/", nil), domain.ApplyFailed(errors.New("pq: secret table")))

	var body map[string]errorBody
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "ledger update failed", body["error"].Message)
}

func TestFailReportsFieldAndPool(t *testing.T) {
	a := &App{Logger: zerolog.Nop()}
	rr := httptest.NewRecorder()
	a.fail(rr, httptest.NewRequest(http.MethodGet, "/", nil), domain.NewError(domain.ErrUnknownPool, "no such pool").OnPool(42))

	var body map[string]errorBody
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, int64(42), body["error"].PoolID)
	assert.Equal(t, "no such pool", body["error"].Message)
}

func TestPresenterGroupsPayments(t *testing.T) {
	f, err := display.NewFormatter("USD", "en")
	require.NoError(t, err)
	p := presenter{f: f, tag: language.English}

	entries := []ledger.Entry{
		{PaymentID: "p2", PoolID: 1, Type: domain.TransactionWithdrawal, Amount: decimal.RequireFromString("5")},
		{PaymentID: "p1", PoolID: 1, Type: domain.TransactionDeposit, Amount: decimal.RequireFromString("15")},
		{PaymentID: "p1", PoolID: 2, Type: domain.TransactionDeposit, Amount: decimal.RequireFromString("10")},
	}
	got := p.payments(entries)
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].PaymentID)
	assert.Equal(t, "5.00", got[0].Total)
	assert.Equal(t, "p1", got[1].PaymentID)
	assert.Equal(t, "25.00", got[1].Total)
	assert.Equal(t, "USD 25.00", got[1].Display)
	assert.Len(t, got[1].Allocations, 2)
}
