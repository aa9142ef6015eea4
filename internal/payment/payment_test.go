package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxCapture(t *testing.T) {
	s := NewSandbox("USD")

	c, err := s.CaptureOrder(context.Background(), "ord1:25.5:Grace:Hopper")
	require.NoError(t, err)
	assert.Equal(t, "CAPTURE-ord1", c.ID)
	assert.Equal(t, "25.50", c.Amount.StringFixed(2))
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, "Grace H.", c.PayerDisplayName())

	again, err := s.CaptureOrder(context.Background(), "ord1:25.5:Grace:Hopper")
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestSandboxRejectsMalformedOrders(t *testing.T) {
	s := NewSandbox("USD")
	for _, id := range []string{"", "ord", ":10", "ord:abc", "ord:0", "ord:-5"} {
		_, err := s.CaptureOrder(context.Background(), id)
		assert.ErrorIs(t, err, ErrCaptureFailed, id)
	}
}

func TestSandboxHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSandbox("USD").CaptureOrder(ctx, "ord:1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	c, err := New("", "USD")
	require.NoError(t, err)
	_, err = c.CaptureOrder(context.Background(), "ord:1")
	assert.ErrorIs(t, err, ErrUnavailable)

	c, err = New("Sandbox", "USD")
	require.NoError(t, err)
	assert.IsType(t, &Sandbox{}, c)

	_, err = New("paypal", "USD")
	assert.Error(t, err)
}
