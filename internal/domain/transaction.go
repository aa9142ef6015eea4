package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates ledger entry directions.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// Origin records which flow produced a transaction.
type Origin string

const (
	OriginCapture    Origin = "capture"
	OriginExternal   Origin = "external"
	OriginWithdrawal Origin = "withdrawal"
)

// ActorKind distinguishes signed-in users from payers known only to the payment provider.
type ActorKind string

const (
	ActorUser  ActorKind = "user"
	ActorPayer ActorKind = "payer"
)

// Actor identifies who initiated a transaction. It is always stored, even for
// anonymous donations.
type Actor struct {
	Kind        ActorKind
	ID          string
	DisplayName string
}

// Transaction is the immutable per-pool slice of a donation or withdrawal.
// All slices of one payment share PaymentID.
type Transaction struct {
	ID          int64
	PaymentID   string
	PoolID      int64
	Type        TransactionType
	Origin      Origin
	Amount      decimal.Decimal
	Description *string
	Anonymous   bool
	Actor       Actor
	Timestamp   time.Time
}

// Signed returns the amount with the sign of its effect on the pool balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// TransactionFilter narrows a ledger listing. Zero values match everything.
type TransactionFilter struct {
	Type   TransactionType
	PoolID int64
}

// Matches reports whether tx passes the filter.
func (f TransactionFilter) Matches(tx Transaction) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.PoolID != 0 && tx.PoolID != f.PoolID {
		return false
	}
	return true
}

// ParseTransactionType accepts "all", "deposit" or "withdrawal". "all" and the
// empty string map to the zero value.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return "", nil
	case string(TransactionDeposit):
		return TransactionDeposit, nil
	case string(TransactionWithdrawal):
		return TransactionWithdrawal, nil
	default:
		return "", NewError(ErrValidation, fmt.Sprintf("unknown transaction type %q", s)).OnField("type")
	}
}

// Cursor marks a position in the ledger ordering (timestamp desc, id desc).
type Cursor struct {
	Timestamp time.Time
	ID        int64
}

// Before reports whether tx sorts strictly after the cursor position.
func (c Cursor) Before(tx Transaction) bool {
	if tx.Timestamp.Equal(c.Timestamp) {
		return tx.ID < c.ID
	}
	return tx.Timestamp.Before(c.Timestamp)
}
