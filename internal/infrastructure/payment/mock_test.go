package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGateway_Charge(t *testing.T) {
	g := NewMockGateway(nil)
	g.Now = func() time.Time { return time.UnixMilli(1700000000123) }

	ref, err := g.Charge(context.Background(), "task-1", 1000)

	require.NoError(t, err)
	assert.Equal(t, "mock_1700000000123", ref)
}

func TestMockGateway_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockGateway(nil).Charge(ctx, "task-1", 10)
	assert.ErrorIs(t, err, context.Canceled)
}
