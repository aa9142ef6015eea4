package handlers

import (
	"net/http"
	"strconv"

	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/ledger"
	"github.com/awonak/pool-party/internal/middleware"
)

const (
	defaultLedgerLimit = 100
	maxLedgerLimit     = 500
)

type ledgerDTO struct {
	Transactions []transactionDTO `json:"transactions"`
	Payments     []paymentDTO     `json:"payments"`
	Totals       totalsDTO        `json:"totals"`
}

// LedgerGet returns the newest transactions matching ?type=all|deposit|withdrawal
// and ?pool_id=, together with ledger-wide totals.
func (a *App) LedgerGet(w http.ResponseWriter, r *http.Request) {
	filter, limit, err := parseLedgerQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	txs, err := ledger.Collect(a.Ledger.Recorder().Transactions(r.Context(), filter), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	summary, err := a.Ledger.Recorder().Summarize(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	p := a.presenter(r)
	entries := ledger.ProjectAll(txs, middleware.IdentityFromContext(r.Context()))
	a.json(w, http.StatusOK, ledgerDTO{
		Transactions: p.entries(entries),
		Payments:     p.payments(entries),
		Totals:       p.totals(summary),
	})
}

func parseLedgerQuery(r *http.Request) (domain.TransactionFilter, int, error) {
	q := r.URL.Query()
	var filter domain.TransactionFilter
	typ, err := domain.ParseTransactionType(q.Get("type"))
	if err != nil {
		return filter, 0, err
	}
	filter.Type = typ
	if v := q.Get("pool_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, 0, domain.NewError(domain.ErrValidation, "pool_id must be a positive integer").OnField("pool_id")
		}
		filter.PoolID = id
	}
	limit := defaultLedgerLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, 0, domain.NewError(domain.ErrValidation, "limit must be a positive integer").OnField("limit")
		}
		limit = min(n, maxLedgerLimit)
	}
	return filter, limit, nil
}
