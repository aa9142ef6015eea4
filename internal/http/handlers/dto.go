package handlers

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/awonak/pool-party/internal/display"
	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/ledger"
)

// Amounts are accepted as JSON strings or numbers and always written as
// two-decimal strings next to a localized display string.

type allocationDTO struct {
	PoolID int64           `json:"pool_id"`
	Amount decimal.Decimal `json:"amount"`
}

func toEntries(in []allocationDTO) []domain.AllocationEntry {
	out := make([]domain.AllocationEntry, 0, len(in))
	for _, a := range in {
		out = append(out, domain.AllocationEntry{PoolID: a.PoolID, Amount: a.Amount})
	}
	return out
}

type poolDTO struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	GoalAmount     string    `json:"goal_amount"`
	GoalDisplay    string    `json:"goal_display"`
	CurrentAmount  string    `json:"current_amount"`
	CurrentDisplay string    `json:"current_display"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type transactionDTO struct {
	ID          int64     `json:"id"`
	PaymentID   string    `json:"payment_id"`
	PoolID      int64     `json:"pool_id"`
	Type        string    `json:"type"`
	Origin      string    `json:"origin"`
	Amount      string    `json:"amount"`
	Display     string    `json:"display"`
	Description *string   `json:"description"`
	Anonymous   bool      `json:"anonymous"`
	DonorName   string    `json:"donor_name"`
	ActorID     string    `json:"actor_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type paymentAllocationDTO struct {
	PoolID int64  `json:"pool_id"`
	Amount string `json:"amount"`
}

type paymentDTO struct {
	PaymentID   string                 `json:"payment_id"`
	Type        string                 `json:"type"`
	Total       string                 `json:"total"`
	Display     string                 `json:"display"`
	Allocations []paymentAllocationDTO `json:"allocations"`
}

type totalsDTO struct {
	TotalDonations   string `json:"total_donations"`
	TotalWithdrawals string `json:"total_withdrawals"`
	NetBalance       string `json:"net_balance"`
	PoolBalance      string `json:"pool_balance"`
	NetDisplay       string `json:"net_display"`
}

type resultDTO struct {
	PaymentID    string           `json:"payment_id"`
	Pools        []poolDTO        `json:"pools"`
	Transactions []transactionDTO `json:"transactions"`
}

type presenter struct {
	f   *display.Formatter
	tag language.Tag
}

func (p presenter) money(d decimal.Decimal) string {
	return p.f.Format(p.tag, d)
}

func (p presenter) pool(fp domain.FundingPool) poolDTO {
	return poolDTO{
		ID:             fp.ID,
		Name:           fp.Name,
		Description:    fp.Description,
		GoalAmount:     domain.FormatAmount(fp.GoalAmount),
		GoalDisplay:    p.money(fp.GoalAmount),
		CurrentAmount:  domain.FormatAmount(fp.CurrentAmount),
		CurrentDisplay: p.money(fp.CurrentAmount),
		CreatedAt:      fp.CreatedAt,
		UpdatedAt:      fp.UpdatedAt,
	}
}

func (p presenter) pools(in []domain.FundingPool) []poolDTO {
	out := make([]poolDTO, 0, len(in))
	for _, fp := range in {
		out = append(out, p.pool(fp))
	}
	return out
}

func (p presenter) entry(e ledger.Entry) transactionDTO {
	return transactionDTO{
		ID:          e.ID,
		PaymentID:   e.PaymentID,
		PoolID:      e.PoolID,
		Type:        string(e.Type),
		Origin:      string(e.Origin),
		Amount:      domain.FormatAmount(e.Amount),
		Display:     p.money(e.Amount),
		Description: e.Description,
		Anonymous:   e.Anonymous,
		DonorName:   e.DonorName,
		ActorID:     e.ActorID,
		Timestamp:   e.Timestamp,
	}
}

func (p presenter) entries(in []ledger.Entry) []transactionDTO {
	out := make([]transactionDTO, 0, len(in))
	for _, e := range in {
		out = append(out, p.entry(e))
	}
	return out
}

// payments groups per-pool slices by payment id, keeping first-seen order.
func (p presenter) payments(in []ledger.Entry) []paymentDTO {
	out := []paymentDTO{}
	var totals []decimal.Decimal
	index := map[string]int{}
	for _, e := range in {
		i, ok := index[e.PaymentID]
		if !ok {
			i = len(out)
			index[e.PaymentID] = i
			out = append(out, paymentDTO{PaymentID: e.PaymentID, Type: string(e.Type)})
			totals = append(totals, decimal.Zero)
		}
		totals[i] = totals[i].Add(e.Amount)
		out[i].Allocations = append(out[i].Allocations, paymentAllocationDTO{PoolID: e.PoolID, Amount: domain.FormatAmount(e.Amount)})
	}
	for i := range out {
		out[i].Total = domain.FormatAmount(totals[i])
		out[i].Display = p.money(totals[i])
	}
	return out
}

func (p presenter) totals(s domain.Summary) totalsDTO {
	return totalsDTO{
		TotalDonations:   domain.FormatAmount(s.TotalDonations),
		TotalWithdrawals: domain.FormatAmount(s.TotalWithdrawals),
		NetBalance:       domain.FormatAmount(s.NetBalance),
		PoolBalance:      domain.FormatAmount(s.PoolBalance),
		NetDisplay:       p.money(s.NetBalance),
	}
}

func (p presenter) result(r ledger.Result, viewer domain.Identity) resultDTO {
	return resultDTO{
		PaymentID:    r.PaymentID,
		Pools:        p.pools(r.Pools),
		Transactions: p.entries(ledger.ProjectAll(r.Transactions, viewer)),
	}
}
