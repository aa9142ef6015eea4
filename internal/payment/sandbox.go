package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/awonak/pool-party/internal/domain"
)

// Sandbox is a local stand-in for the provider. Order ids have the form
// "<reference>:<amount>", optionally followed by ":<first>:<last>" for the
// payer name. Capturing the same order twice returns the same capture, the
// way a real provider reports an already-captured order.
type Sandbox struct {
	currency string

	mu       sync.Mutex
	captured map[string]Capture
}

func NewSandbox(currency string) *Sandbox {
	return &Sandbox{currency: currency, captured: make(map[string]Capture)}
}

func (s *Sandbox) CaptureOrder(ctx context.Context, orderID string) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return Capture{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.captured[orderID]; ok {
		return c, nil
	}

	parts := strings.Split(orderID, ":")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		return Capture{}, fmt.Errorf("%w: malformed order id %q", ErrCaptureFailed, orderID)
	}
	amount, err := domain.ParseAmount(parts[1])
	if err != nil || !amount.IsPositive() {
		return Capture{}, fmt.Errorf("%w: order %q has no payable amount", ErrCaptureFailed, orderID)
	}
	c := Capture{
		ID:       "CAPTURE-" + parts[0],
		Amount:   amount,
		Currency: s.currency,
		PayerID:  "PAYER-" + parts[0],
	}
	if len(parts) >= 4 {
		c.PayerFirstName = parts[2]
		c.PayerLastName = parts[3]
	}
	s.captured[orderID] = c
	return c, nil
}
