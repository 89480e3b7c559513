package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

	l := NewLocalLock()
	l.clock = func() time.Time { return now }

	ok, err := l.Lock(ctx, "session:1:finalize", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Lock(ctx, "session:1:finalize", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held key must not be acquired twice")

	ok, err = l.Lock(ctx, "session:2:finalize", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, l.Unlock(ctx, "session:1:finalize"))
	ok, err = l.Lock(ctx, "session:1:finalize", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = l.Lock(ctx, "session:2:finalize", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired key can be taken again")
}
