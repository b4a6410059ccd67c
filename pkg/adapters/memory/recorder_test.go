package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/composable/internal/logging"
	"github.com/aretw0/composable/pkg/adapters/memory"
	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/effect"
	"github.com/aretw0/composable/pkg/observability"
	"github.com/aretw0/composable/pkg/ports/tests"
	"github.com/aretw0/composable/pkg/reducer"
	"github.com/aretw0/composable/pkg/store"
)

func TestRecorder_Contract(t *testing.T) {
	tests.SnapshotStoreContractTest(t, memory.NewRecorder(0))
}

func TestRecorder_Limit(t *testing.T) {
	r := memory.NewRecorder(2)
	ctx := context.Background()
	for v := uint64(1); v <= 3; v++ {
		require.NoError(t, r.Publish(ctx, domain.Snapshot{StoreID: "s", Version: v}))
	}

	h := r.History("s")
	require.Len(t, h, 2)
	assert.Equal(t, uint64(2), h[0].Version)
	assert.Equal(t, uint64(3), h[1].Version)
	assert.Equal(t, []string{"s"}, r.Stores())
}

func TestRecorder_CancelledContext(t *testing.T) {
	r := memory.NewRecorder(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Publish(ctx, domain.Snapshot{StoreID: "s"}), context.Canceled)
	assert.Empty(t, r.History("s"))
}

func TestRecorder_MirrorsStore(t *testing.T) {
	s := store.New("", reducer.Func[string, string](func(text, a string) (string, effect.Effect[string]) {
		return text + a, effect.None[string]()
	}), store.WithID("typed"))
	defer s.Close()
	r := memory.NewRecorder(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go observability.Mirror(ctx, s, r, logging.NewNop())

	require.Eventually(t, func() bool { return len(r.History("typed")) == 1 }, time.Second, time.Millisecond)
	s.Send("a")
	require.Eventually(t, func() bool {
		snap, err := r.Latest(ctx, "typed")
		return err == nil && snap.State == "a"
	}, time.Second, time.Millisecond)
}
