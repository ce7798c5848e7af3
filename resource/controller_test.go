package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_BackgroundSlots(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 2})
	ctx := context.Background()

	require.NoError(t, c.AcquireBackground(ctx))
	require.NoError(t, c.AcquireBackground(ctx))

	full, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireBackground(full))

	c.ReleaseBackground()
	require.NoError(t, c.AcquireBackground(ctx))

	c.ReleaseBackground()
	c.ReleaseBackground()
}

func TestController_DefaultsToOneWorker(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, 1, c.MaxBackgroundWorkers())

	require.NoError(t, c.AcquireBackground(context.Background()))

	full, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireBackground(full))
	c.ReleaseBackground()
}

func TestController_AcquireBackgroundHonorsContext(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 1})
	require.NoError(t, c.AcquireBackground(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := c.AcquireBackground(ctx)
	assert.Error(t, err)

	c.ReleaseBackground()
}

func TestController_IOUnlimitedByDefault(t *testing.T) {
	c := NewController(Config{})
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
}

func TestController_IOClampsToBurst(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1024})
	// Larger than burst must not error, just clamp.
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20))
}
