package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/ledger"
	"github.com/awonak/pool-party/internal/middleware"
)

type captureRequest struct {
	OrderID     string          `json:"order_id"`
	Allocations []allocationDTO `json:"allocations"`
	Description string          `json:"description"`
	Anonymous   bool            `json:"anonymous"`
}

type externalDonationRequest struct {
	Total       *decimal.Decimal `json:"total"`
	Allocations []allocationDTO  `json:"allocations"`
	Description string           `json:"description"`
}

// DonationsCapture captures the provider order first and records the
// allocation against the amount the provider confirmed, never a client total.
func (a *App) DonationsCapture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if !a.decode(w, r, &req) {
		return
	}
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		a.fail(w, r, domain.NewError(domain.ErrValidation, "order_id is required").OnField("order_id"))
		return
	}
	capture, err := a.Payments.CaptureOrder(r.Context(), orderID)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	viewer := middleware.IdentityFromContext(r.Context())
	actor := domain.Actor{Kind: domain.ActorPayer, ID: capture.PayerID, DisplayName: capture.PayerDisplayName()}
	if viewer.Authenticated() {
		actor = viewer.Actor()
		if actor.DisplayName == "" {
			actor.DisplayName = capture.PayerDisplayName()
		}
	}

	result, err := a.Ledger.CaptureDonation(r.Context(), ledger.CapturedDonation{
		CaptureID:   capture.ID,
		Total:       capture.Amount,
		Entries:     toEntries(req.Allocations),
		Description: req.Description,
		Anonymous:   req.Anonymous,
		Actor:       actor,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrDuplicatePayment) {
			// the provider holds the money; the capture id is what an operator refunds against
			a.log(r).Warn().Err(err).
				Str("capture_id", capture.ID).
				Str("amount", domain.FormatAmount(capture.Amount)).
				Msg("captured payment not recorded")
		}
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, a.presenter(r).result(result, viewer))
}

func (a *App) DonationsExternal(w http.ResponseWriter, r *http.Request) {
	var req externalDonationRequest
	if !a.decode(w, r, &req) {
		return
	}
	viewer := middleware.IdentityFromContext(r.Context())
	result, err := a.Ledger.RecordExternalDonation(r.Context(), ledger.ExternalDonation{
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
