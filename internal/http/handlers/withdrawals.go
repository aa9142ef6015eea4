package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/awonak/pool-party/internal/ledger"
	"github.com/awonak/pool-party/internal/middleware"
)

type withdrawalRequest struct {
	Total       *decimal.Decimal `json:"total"`
	Allocations []allocationDTO  `json:"allocations"`
	Description string           `json:"description"`
}

func (a *App) WithdrawalsCreate(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if !a.decode(w, r, &req) {
		return
	}
	viewer := middleware.IdentityFromContext(r.Context())
	result, err := a.Ledger.RecordWithdrawal(r.Context(), ledger.Withdrawal{
		Total:       req.Total,
		Entries:     toEntries(req.Allocations),
		Description: req.Description,
		Actor:       viewer.Actor(),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, a.presenter(r).result(result, viewer))
}
