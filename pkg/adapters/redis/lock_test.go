package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/composable/pkg/adapters/redis"
)

func TestLocker_LockUnlock(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "mirror:s1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:mirror:s1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:mirror:s1"))
}

func TestLocker_Contention(t *testing.T) {
	_, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "k", 5*time.Second)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)

	acquired := make(chan struct{})
	go func() {
		if u, err := locker.Lock(ctx, "k", 5*time.Second); err == nil {
			_ = u(ctx)
			close(acquired)
		}
	}()
	require.NoError(t, unlock(ctx))

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("lock not handed over after unlock")
	}
}

func TestLocker_StaleUnlockKeepsNewOwner(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, err = locker.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("test:lock:k"), "expired owner must not release the new lease")
}
