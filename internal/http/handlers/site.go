package handlers

import (
	"net/http"

	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/middleware"
)

type siteDTO struct {
	Title           string `json:"title"`
	Headline        string `json:"headline"`
	Currency        string `json:"currency"`
	MinimumDonation string `json:"minimum_donation"`
	MinimumDisplay  string `json:"minimum_display"`
}

func (a *App) presenter(r *http.Request) presenter {
	return presenter{f: a.Formatter, tag: middleware.LocaleFromContext(r.Context())}
}

func (a *App) SiteGet(w http.ResponseWriter, r *http.Request) {
	site, err := a.Site.GetSite(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	minimum := a.Ledger.Minimum()
	a.json(w, http.StatusOK, siteDTO{
		Title:           site.Title,
		Headline:        site.Headline,
		Currency:        a.Formatter.Currency(),
		MinimumDonation: domain.FormatAmount(minimum),
		MinimumDisplay:  a.presenter(r).money(minimum),
	})
}

type meDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
	Moderator   bool   `json:"moderator"`
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	if !id.Authenticated() {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	a.json(w, http.StatusOK, meDTO{
		ID:          id.UserID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Moderator:   id.Moderator,
	})
}
