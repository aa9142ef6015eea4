package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/awonak/pool-party/internal/domain"
)

const (
	anonymousName = "Anonymous"
	externalName  = "External"
)

// Entry is a transaction as shown to a particular viewer.
type Entry struct {
	ID          int64
	PaymentID   string
	PoolID      int64
	Type        domain.TransactionType
	Origin      domain.Origin
	Amount      decimal.Decimal
	Description *string
	Anonymous   bool
	DonorName   string
	ActorID     string
	Timestamp   time.Time
}

// Project hides the actor of anonymous donations from everyone but
// moderators. Stored transactions keep the actor regardless.
func Project(tx domain.Transaction, viewer domain.Identity) Entry {
	e := Entry{
		ID:          tx.ID,
		PaymentID:   tx.PaymentID,
		PoolID:      tx.PoolID,
		Type:        tx.Type,
		Origin:      tx.Origin,
		Amount:      tx.Amount,
		Description: tx.Description,
		Anonymous:   tx.Anonymous,
		DonorName:   tx.Actor.DisplayName,
		ActorID:     tx.Actor.ID,
		Timestamp:   tx.Timestamp,
	}
	if tx.Origin == domain.OriginExternal {
		e.DonorName = externalName
	}
	if tx.Anonymous && !viewer.Moderator {
		e.DonorName = anonymousName
		e.ActorID = ""
	}
	if !viewer.Moderator && tx.Actor.Kind == domain.ActorPayer {
		e.ActorID = ""
	}
	return e
}

// ProjectAll applies Project to each transaction.
func ProjectAll(txs []domain.Transaction, viewer domain.Identity) []Entry {
	out := make([]Entry, 0, len(txs))
	for _, tx := range txs {
		out = append(out, Project(tx, viewer))
	}
	return out
}
