package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/ports"
)

// SnapshotStoreContractTest verifies that an adapter complies with ports.SnapshotStore.
func SnapshotStoreContractTest(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()
	storeID := "contract-test-store-" + time.Now().Format("20060102150405")

	t.Run("Latest Non-Existent", func(t *testing.T) {
		_, err := store.Latest(ctx, "non-existent-"+storeID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Publish and Latest", func(t *testing.T) {
		for v := uint64(1); v <= 3; v++ {
			err := store.Publish(ctx, domain.Snapshot{
				StoreID:   storeID,
				Version:   v,
				Action:    "bump",
				Timestamp: time.Now(),
				State:     map[string]any{"count": v},
			})
			require.NoError(t, err, "Publish should not return error")
		}

		latest, err := store.Latest(ctx, storeID)
		require.NoError(t, err, "Latest should not return error")
		assert.Equal(t, storeID, latest.StoreID)
		assert.Equal(t, uint64(3), latest.Version)
		assert.Equal(t, "bump", latest.Action)
		// Encoding transports turn numbers into float64; only check presence.
		assert.NotNil(t, latest.State)
	})

	t.Run("Stores Are Isolated", func(t *testing.T) {
		other := storeID + "-other"
		require.NoError(t, store.Publish(ctx, domain.Snapshot{StoreID: other, Version: 7}))

		latest, err := store.Latest(ctx, storeID)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), latest.Version)

		latest, err = store.Latest(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), latest.Version)
	})
}
