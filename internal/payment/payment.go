// Package payment is the boundary to the external payment provider. The
// engine only ever sees a verified Capture; provider protocols live behind
// the Capturer interface.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/awonak/pool-party/internal/domain"
)

var (
	// ErrUnavailable means no provider is configured or it cannot be reached.
	ErrUnavailable = errors.New("payment provider unavailable")
	// ErrCaptureFailed means the provider refused to capture the order.
	ErrCaptureFailed = errors.New("payment capture failed")
)

// Capture is the provider's confirmation of a completed payment.
type Capture struct {
	ID             string
	Amount         decimal.Decimal
	Currency       string
	PayerID        string
	PayerFirstName string
	PayerLastName  string
}

// PayerDisplayName renders the payer as "First L.".
func (c Capture) PayerDisplayName() string {
	return domain.ShortName(c.PayerFirstName, c.PayerLastName)
}

// Capturer captures an approved order and reports what was actually paid.
type Capturer interface {
	CaptureOrder(ctx context.Context, orderID string) (Capture, error)
}

// Disabled is used when no provider is configured.
type Disabled struct{}

func (Disabled) CaptureOrder(context.Context, string) (Capture, error) {
	return Capture{}, ErrUnavailable
}

// New returns the capturer for the configured provider name.
func New(provider, currency string) (Capturer, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "none":
		return Disabled{}, nil
	case "sandbox":
		return NewSandbox(currency), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", provider)
	}
}
