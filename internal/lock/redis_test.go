package lock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockKey(t *testing.T) {
	assert.Equal(t, "dojo:lock:session:7:finalize", lockKey("session:7:finalize"))
}

func TestRedisUnlockWithoutLock(t *testing.T) {
	r := &RedisLock{tokens: make(map[string]string)}

	assert.NoError(t, r.Unlock(context.Background(), "never-locked"))
}
