package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/awonak/pool-party/internal/domain"
)

type poolRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	GoalAmount  decimal.Decimal `json:"goal_amount"`
}

func (req poolRequest) input() domain.PoolInput {
	return domain.PoolInput{Name: req.Name, Description: req.Description, GoalAmount: req.GoalAmount}
}

func (a *App) PoolsList(w http.ResponseWriter, r *http.Request) {
	pools, err := a.Registry.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": a.presenter(r).pools(pools)})
}

func (a *App) PoolsGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	pool, err := a.Registry.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.presenter(r).pool(pool))
}

func (a *App) PoolsCreate(w http.ResponseWriter, r *http.Request) {
	var req poolRequest
	if !a.decode(w, r, &req) {
		return
	}
	pool, err := a.Registry.Create(r.Context(), req.input())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, a.presenter(r).pool(pool))
}

func (a *App) PoolsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req poolRequest
	if !a.decode(w, r, &req) {
		return
	}
	pool, err := a.Registry.Update(r.Context(), id, req.input())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.presenter(r).pool(pool))
}
