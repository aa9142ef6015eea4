package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awonak/pool-party/internal/adapter/memory"
	"github.com/awonak/pool-party/internal/auth"
	"github.com/awonak/pool-party/internal/display"
	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/http/handlers"
	"github.com/awonak/pool-party/internal/idempotency"
	"github.com/awonak/pool-party/internal/ledger"
	"github.com/awonak/pool-party/internal/payment"
)

type testServer struct {
	t        *testing.T
	handler  http.Handler
	modToken string
	usrToken string
}

func newTestServer(t *testing.T, payments payment.Capturer) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.NewStore()
	recorder := ledger.NewRecorder(store, logger)

	formatter, err := display.NewFormatter("USD", "en")
	require.NoError(t, err)
	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	authn := auth.NewAuthenticator(issuer, auth.NewStaticDirectory([]string{"mod-1"}))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	app := &handlers.App{
		Registry:  ledger.NewRegistry(store),
		Ledger:    ledger.NewService(recorder, decimal.NewFromInt(1), logger),
		Payments:  payments,
		Site:      memory.NewSiteStore(domain.Site{Title: "Pool Party", Headline: "Chip in together"}),
		Formatter: formatter,
		Logger:    logger,
	}
	h := NewRouter(app, Options{
		Logger:         logger,
		Authenticator:  authn,
		Locales:        formatter,
		Idempotency:    idempotency.NewRedisStore(client),
		IdempotencyTTL: time.Hour,
	})

	modToken, err := issuer.Sign("mod-1", "Mo D.", "mo@example.com")
	require.NoError(t, err)
	usrToken, err := issuer.Sign("user-1", "Dana K.", "dana@example.com")
	require.NoError(t, err)
	return &testServer{t: t, handler: h, modToken: modToken, usrToken: usrToken}
}

type call struct {
	method  string
	path    string
	token   string
	body    any
	headers map[string]string
}

func (s *testServer) do(c call) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(s.t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	out := map[string]any{}
	if rr.Body.Len() > 0 {
		_ = json.Unmarshal(rr.Body.Bytes(), &out)
	}
	return rr, out
}

func (s *testServer) createPool(name string) int64 {
	s.t.Helper()
	rr, out := s.do(call{method: http.MethodPost, path: "/api/funding-pools", token: s.modToken,
		body: map[string]any{"name": name, "goal_amount": "100"}})
	require.Equal(s.t, http.StatusCreated, rr.Code, rr.Body.String())
	return int64(out["id"].(float64))
}

func (s *testServer) external(pool int64, amount string) {
	s.t.Helper()
	rr, _ := s.do(call{method: http.MethodPost, path: "/api/donations/external", token: s.modToken,
		body: map[string]any{"description": "bake sale", "allocations": []map[string]any{{"pool_id": pool, "amount": amount}}}})
	require.Equal(s.t, http.StatusCreated, rr.Code, rr.Body.String())
}

func (s *testServer) pool(id int64) map[string]any {
	s.t.Helper()
	rr, out := s.do(call{method: http.MethodGet, path: fmt.Sprintf("/api/funding-pools/%d", id)})
	require.Equal(s.t, http.StatusOK, rr.Code)
	return out
}

func errorCode(out map[string]any) string {
	e, _ := out["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealthAndSite(t *testing.T) {
	s := newTestServer(t, payment.NewSandbox("USD"))

	rr, out := s.do(call{method: http.MethodGet, path: "/v1/healthz"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", out["status"])

	rr, out = s.do(call{method: http.MethodGet, path: "/api/site"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Pool Party", out["title"])
	assert.Equal(t, "USD", out["currency"])
	assert.Equal(t, "1.00", out["minimum_donation"])
}

func TestMe(t *testing.T) {
	s := newTestServer(t, payment.NewSandbox("USD"))

	rr, _ := s.do(call{method: http.MethodGet, path: "/api/auth/me"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, out := s.do(call{method: http.MethodGet, path: "/api/auth/me", token: s.modToken})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "mod-1", out["id"])
	assert.Equal(t, true, out["moderator"])

	_, out = s.do(call{method: http.MethodGet, path: "/api/auth/me", token: s.usrToken})
	assert.Equal(t, false, out["moderator"])
}

func TestPoolManagementRequiresModerator(t *testing.T) {
	s := newTestServer(t, payment.NewSandbox("USD"))
	body := map[string]any{"name": "Snacks", "goal_amount": "50"}

	rr, _ := s.do(call{method: http.MethodPost, path: "/api/funding-pools", body: body})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr, _ = s.do(call{method: http.MethodPost, path: "/api/funding-pools", token: s.usrToken, body: body})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, out := s.do(call{method: http.MethodPost, path: "/api/funding-pools", token: s.modToken, body: body})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Snacks", out["name"])
	assert.Equal(t, "50.00", out["goal_amount"])
	assert.Equal(t, "0.00", out["current_amount"])
	assert.Equal(t, "USD 50.00", out["goal_display"])

	id := int64(out["id"].(float64))
	rr, out = s.do(call{method: http.MethodPut, path: fmt.Sprintf("/api/funding-pools/%d", id), token: s.modToken,
		body: map[string]any{"name": "Snacks & Drinks", "goal_amount": 75}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Snacks & Drinks", out["name"])
	assert.Equal(t, "75.00", out["goal_amount"])

	rr, out = s.do(call{method: http.MethodPost, path: "/api/funding-pools", token: s.modToken, body: map[string]any{"name": "  "}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "validation_error", errorCode(out))

	rr, _ = s.do(call{method: http.MethodGet, path: "/api/funding-pools/999"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr, _ = s.do(call{method: http.MethodGet, path: "/api/funding-pools/abc"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, out = s.do(call{method: http.MethodGet, path: "/api/funding-pools"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, out["items"], 1)
}

func TestCaptureSplitsAcrossPools(t *testing.T) {
	s := newTestServer(t, payment.NewSandbox("USD"))
	a, b := s.createPool("A"), s.createPool("B")

	rr, out := s.do(call{method: http.MethodPost, path: "/api/donations/capture", body: map[string]any{
		"order_id":    "ord1:25:Grace:Hopper",
		"allocations": []map[string]any{{"pool_id": a, "amount": "15"}, {"pool_id": b, "amount": 10}},
	}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "CAPTURE-ord1", out["payment_id"])
	txs := out["transactions"].([]any)
	require.Len(t, txs, 2)
	assert.Equal(t, "Grace H.", txs[0].(map[string]any)["donor_name"])
	assert.Nil(t, txs[0].(map[string]any)["actor_id"])

	assert.Equal(t, "15.00", s.pool(a)["current_amount"])
	assert.Equal(t, "10.00", s.pool(b)["current_amount"])

	rr, out = s.do(call{method: http.MethodGet, path: "/api/ledger"})
	require.Equal(t, http.StatusOK, rr.Code)
	totals := out["totals"].(map[string]any)
	assert.Equal(t, "25.00", totals["total_donations"])
	assert.Equal(t, "25.00", totals["net_balance"])
	payments := out["payments"].([]any)
	require.Len(t, payments, 1)
	assert.Equal(t, "25.00", payments[0].(map[string]any)["total"])
	assert.Len(t, payments[0].(map[string]any)["allocations"], 2)

	// same order again is already captured
	rr, out = s.do(call{method: http.MethodPost, path: "/api/donations/capture", body: map[string]any{
		"order_id":    "ord1:25:Grace:Hopper",
		"allocations": []map[string]any{{"pool_id": a, "amount": "15"}, {"pool_id": b, "amount": 10}},
	}})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "duplicate_payment", errorCode(out))
	assert.Equal(t, "15.00", s.pool(a)["current_amount"])
}

func TestCaptureRejectionsLeaveBalancesUnchanged(t *testing.T) {
	s := newTestServer(t, payment.NewSandbox("USD"))
	a, b := s.createPool("A"), s.createPool("B")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"mismatch", map[string]any{"order_id": "o1:25", "allocations": []map[string]any{{"pool_id": a, "amount": "15"}, {"pool_id": b, "amount": "9"}}}, http.StatusUnprocessableEntity, "allocation_mismatch"},
		{"unknown pool", map[string]any{"order_id": "o2:5", "allocations": []map[string]any{{"pool_id": 999, "amount": "5"}}}, http.StatusUnprocessableEntity, "unknown_pool"},
		{"below minimum", map[string]any{"order_id": "o3:0.5", "allocations": []map[string]any{{"pool_id": a, "amount": "0.5"}}}, http.StatusBadRequest, "below_minimum"},
		{"empty", map[string]any{"order_id": "o4:5", "allocations": []map[string]any{}}, http.StatusUnprocessableEntity, "allocation_mismatch"},
		{"missing order", map[string]any{"allocations": []map[string]any{{"pool_id": a, "amount": "5"}}}, http.StatusBadRequest, "validation_error"},
		{"amount too large to store", map[string]any{"order_id": "o5:1000000000000", "allocations": []map[string]any{{"pool_id": a, "amount": "1000000000000"}}}, http.StatusBadRequest, "validation_error"},
		{"capture refused", map[string]any{"order_id": "bogus", "allocations": []map[string]any{{"pool_id": a, "amount": "5"}}}, http.StatusBadGateway, "payment_failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr, out := s.do(call{method: http.MethodPost, path: "/api/donations/capture", body: tc.body})
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
			assert.Equal(t, tc.code, errorCode(out))
		})
	}
	assert.Equal(t, "0.00", s.pool(a)["current_amount"])
	assert.Equal(t, "0.00", s.pool(b)["current_amount"])
}

func TestRepeatedCaptureCannotBeCreditedTwice(t *testing.T) {
	s := newTestServer(t, payment.NewSandbox("USD"))
	a, b := s.createPool("A"), s.createPool("B")

	rr, _ := s.do(call{method: http.MethodPost, path: "/api/donations/capture", body: map[string]any{
		"order_id": "o9:25", "allocations": []map[string]any{{"pool_id": a, "amount": "25"}},
	}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr, out := s.do(call{method: http.MethodPost, path: "/api/donations/capture", body: map[string]any{
		"order_id": "o9:25", "allocations": []map[string]any{{"pool_id": b, "amount": "25"}},
	}})
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
	assert.Equal(t, "duplicate_payment", errorCode(out))
	assert.Equal(t, "25.00", s.pool(a)["current_amount"])
	assert.Equal(t, "0.00", s.pool(b)["current_amount"])
}

func TestCaptureWithoutProvider(t *testing.T) {
	s := newTestServer(t, payment.Disabled{})
	a := s.createPool("A")
	rr, out := s.do(call{method: http.MethodPost, path: "/api/donations/capture", body: map[string]any{
		"order_id": "o:5", "allocations": []map[string]any{{"pool_id": a, "amount": "5"}},
	}})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "payment_unavailable", errorCode(out))
}

func TestWithdrawals(t *testing.T) {
	s := newTestServer(t, payment.NewSandbox("USD"))
	a := s.createPool("A")
	s.external(a, "50")

	withdraw := func(amount, description string) (*httptest.ResponseRecorder, map[string]any) {
		return s.do(call{method: http.MethodPost, path: "/api/withdrawals", token: s.modToken, body: map[string]any{
			"description": description,
			"allocations": []map[string]any{{"pool_id": a, "amount": amount}},
		}})
	}

	rr, out := withdraw("60", "venue deposit")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "insufficient_balance", errorCode(out))
	assert.EqualValues(t, a, out["error"].(map[string]any)["pool_id"])

	rr, out = withdraw("10", " ")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "missing_description", errorCode(out))

	rr, _ = s.do(call{method: http.MethodPost, path: "/api/withdrawals", token: s.usrToken, body: map[string]any{}})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, _ = withdraw("20", "venue deposit")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "30.00", s.pool(a)["current_amount"])

	rr, out = s.do(call{method: http.MethodGet, path: "/api/ledger?type=withdrawal"})
	require.Equal(t, http.StatusOK, rr.Code)
	txs := out["transactions"].([]any)
	require.Len(t, txs, 1)
	assert.Equal(t, "withdrawal", txs[0].(map[string]any)["type"])
	totals := out["totals"].(map[string]any)
	assert.Equal(t, "50.00", totals["total_donations"])
	assert.Equal(t, "20.00", totals["total_withdrawals"])
	assert.Equal(t, "30.00", totals["net_balance"])
	assert.Equal(t, "30.00", totals["pool_balance"])
}

func TestWithdrawalIdempotencyKey(t *testing.T) {
	s := newTestServer(t, payment.NewSandbox("USD"))
	a := s.createPool("A")
	s.external(a, "50")

	c := call{method: http.MethodPost, path: "/api/withdrawals", token: s.modToken,
		headers: map[string]string{"Idempotency-Key": "w-1"},
		body:    map[string]any{"description": "rent", "allocations": []map[string]any{{"pool_id": a, "amount": "10"}}}}
	first, _ := s.do(c)
	second, _ := s.do(c)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(idempotency.ReplayedHeader))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "40.00", s.pool(a)["current_amount"])

	c.body = map[string]any{"description": "rent", "allocations": []map[string]any{{"pool_id": a, "amount": "11"}}}
	rr, out := s.do(c)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "idempotency_conflict", errorCode(out))
}

func TestAnonymousDonationVisibility(t *testing.T) {
	s := newTestServer(t, payment.NewSandbox("USD"))
	a := s.createPool("A")

	rr, _ := s.do(call{method: http.MethodPost, path: "/api/donations/capture", token: s.usrToken, body: map[string]any{
		"order_id": "anon:5", "anonymous": true, "allocations": []map[string]any{{"pool_id": a, "amount": "5"}},
	}})
	require.Equal(t, http.StatusCreated, rr.Code)

	_, out := s.do(call{method: http.MethodGet, path: "/api/ledger"})
	tx := out["transactions"].([]any)[0].(map[string]any)
	assert.Equal(t, "Anonymous", tx["donor_name"])
	assert.Nil(t, tx["actor_id"])

	_, out = s.do(call{method: http.MethodGet, path: "/api/ledger", token: s.modToken})
	tx = out["transactions"].([]any)[0].(map[string]any)
	assert.Equal(t, "Dana K.", tx["donor_name"])
	assert.Equal(t, "user-1", tx["actor_id"])
}

func TestLedgerQueryValidationAndLocale(t *testing.T) {
	s := newTestServer(t, payment.NewSandbox("USD"))
	a := s.createPool("A")
	s.external(a, "1234.5")

	rr, out := s.do(call{method: http.MethodGet, path: "/api/ledger?type=refund"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "type", out["error"].(map[string]any)["field"])

	rr, _ = s.do(call{method: http.MethodGet, path: "/api/ledger?limit=0"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr, _ = s.do(call{method: http.MethodGet, path: "/api/ledger?pool_id=x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	_, out = s.do(call{method: http.MethodGet, path: "/api/ledger", headers: map[string]string{"Accept-Language": "de-DE"}})
	tx := out["transactions"].([]any)[0].(map[string]any)
	assert.Equal(t, "1234.50", tx["amount"])
	assert.Equal(t, "USD 1.234,50", tx["display"])
	assert.Equal(t, "External", tx["donor_name"])
}
