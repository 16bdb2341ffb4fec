package rendezvous

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/ruteri/nfc-attendance/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// storeBackends maps a backend name to a setup function. Setup prepares the
// backing state for one test and returns an opener; every handle it opens
// shares that state, the way a gateway and an agent each open the store.
func storeBackends() map[string]func(t *testing.T) func() interfaces.RendezvousStore {
	return map[string]func(t *testing.T) func() interfaces.RendezvousStore{
		"file": func(t *testing.T) func() interfaces.RendezvousStore {
			dir := t.TempDir()
			return func() interfaces.RendezvousStore {
				store, err := NewFileStore(dir, testLogger())
				require.NoError(t, err)
				t.Cleanup(func() { store.Close() })
				return store
			}
		},
		"redis": func(t *testing.T) func() interfaces.RendezvousStore {
			mr := miniredis.RunT(t)
			return func() interfaces.RendezvousStore {
				store := NewRedisStore(&redis.Options{Addr: mr.Addr()}, "test", testLogger())
				t.Cleanup(func() { store.Close() })
				return store
			}
		},
		"memory": func(t *testing.T) func() interfaces.RendezvousStore {
			store := NewMemoryStore()
			return func() interfaces.RendezvousStore { return store }
		},
	}
}

func TestRendezvousStore_CaptureThenConsume(t *testing.T) {
	for name, setup := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			newStore := setup(t)
			ctx := context.Background()
			gatewaySide := newStore()
			agentSide := newStore()

			require.NoError(t, gatewaySide.OpenWindow(ctx))

			captured, err := agentSide.TryCapture(ctx, "A1")
			require.NoError(t, err)
			assert.True(t, captured)

			// The window closed with the first capture.
			captured, err = agentSide.TryCapture(ctx, "A2")
			require.NoError(t, err)
			assert.False(t, captured)

			tag, ok, err := gatewaySide.ConsumeCapture(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, interfaces.TagID("A1"), tag)

			tag, ok, err = gatewaySide.ConsumeCapture(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, tag)
		})
	}
}

func TestRendezvousStore_IdleCaptureDoesNotMutate(t *testing.T) {
	for name, setup := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			newStore := setup(t)
			ctx := context.Background()
			store := newStore()

			captured, err := store.TryCapture(ctx, "B2")
			require.NoError(t, err)
			assert.False(t, captured)

			_, ok, err := store.ConsumeCapture(ctx)
			require.NoError(t, err)
			assert.False(t, ok)

			// An unconsumed capture survives later idle touches.
			require.NoError(t, store.OpenWindow(ctx))
			captured, err = store.TryCapture(ctx, "C3")
			require.NoError(t, err)
			require.True(t, captured)

			captured, err = store.TryCapture(ctx, "D4")
			require.NoError(t, err)
			assert.False(t, captured)

			tag, ok, err := store.ConsumeCapture(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, interfaces.TagID("C3"), tag)
		})
	}
}

func TestRendezvousStore_OpenWindowResetsCapture(t *testing.T) {
	for name, setup := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			newStore := setup(t)
			ctx := context.Background()
			store := newStore()

			require.NoError(t, store.OpenWindow(ctx))
			captured, err := store.TryCapture(ctx, "OLD")
			require.NoError(t, err)
			require.True(t, captured)

			// A new window discards the unclaimed capture.
			require.NoError(t, store.OpenWindow(ctx))
			require.NoError(t, store.OpenWindow(ctx))

			_, ok, err := store.ConsumeCapture(ctx)
			require.NoError(t, err)
			assert.False(t, ok)

			captured, err = store.TryCapture(ctx, "NEW")
			require.NoError(t, err)
			assert.True(t, captured)

			tag, ok, err := store.ConsumeCapture(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, interfaces.TagID("NEW"), tag)
		})
	}
}

func TestRendezvousStore_Reset(t *testing.T) {
	for name, setup := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			newStore := setup(t)
			ctx := context.Background()
			store := newStore()

			require.NoError(t, store.OpenWindow(ctx))
			require.NoError(t, store.Reset(ctx))

			captured, err := store.TryCapture(ctx, "E5")
			require.NoError(t, err)
			assert.False(t, captured)

			require.NoError(t, store.OpenWindow(ctx))
			captured, err = store.TryCapture(ctx, "E6")
			require.NoError(t, err)
			require.True(t, captured)
			require.NoError(t, store.Reset(ctx))

			_, ok, err := store.ConsumeCapture(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRendezvousStore_ConcurrentCaptureSingleWinner(t *testing.T) {
	for name, setup := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			newStore := setup(t)
			ctx := context.Background()
			gatewaySide := newStore()
			require.NoError(t, gatewaySide.OpenWindow(ctx))

			const agents = 8
			var wins atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < agents; i++ {
				agentSide := newStore()
				wg.Add(1)
				go func(tag interfaces.TagID) {
					defer wg.Done()
					captured, err := agentSide.TryCapture(ctx, tag)
					assert.NoError(t, err)
					if captured {
						wins.Add(1)
					}
				}(interfaces.TagID(string(rune('A' + i))))
			}
			wg.Wait()

			assert.Equal(t, int32(1), wins.Load())

			_, ok, err := gatewaySide.ConsumeCapture(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}
