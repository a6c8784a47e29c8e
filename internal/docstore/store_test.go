package docstore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := store.Get(ctx, "widgets", "exec-summary")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Put(ctx, "widgets", "exec-summary", json.RawMessage(`{"enabled":true}`)))

			doc, ok, err := store.Get(ctx, "widgets", "exec-summary")
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"enabled":true}`, string(doc))
		})
	}
}

func TestPutOverwritesLastWriteWins(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, "widgets", "w", json.RawMessage(`{"order":1}`)))
			require.NoError(t, store.Put(ctx, "widgets", "w", json.RawMessage(`{"order":2}`)))

			doc, ok, err := store.Get(ctx, "widgets", "w")
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"order":2}`, string(doc))
		})
	}
}

func TestDeleteRemovesEntirely(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, "widgets", "w", json.RawMessage(`{}`)))
			require.NoError(t, store.Delete(ctx, "widgets", "w"))

			_, ok, err := store.Get(ctx, "widgets", "w")
			require.NoError(t, err)
			assert.False(t, ok)

			// Absent delete is a no-op, not an error.
			require.NoError(t, store.Delete(ctx, "widgets", "missing"))
		})
	}
}

func TestListSnapshotsCollection(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, "widgets", "a", json.RawMessage(`{"order":1}`)))
			require.NoError(t, store.Put(ctx, "widgets", "b", json.RawMessage(`{"order":2}`)))
			require.NoError(t, store.Put(ctx, "other", "c", json.RawMessage(`{}`)))

			snap, err := store.List(ctx, "widgets")
			require.NoError(t, err)
			assert.Len(t, snap, 2)
			assert.Contains(t, snap, "a")
			assert.Contains(t, snap, "b")
		})
	}
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, body := range []string{`{"v":1}`, `{"v":2}`, `{"v":3}`} {
				require.NoError(t, store.Append(ctx, "history", json.RawMessage(body)))
			}
			docs, err := store.ListAppended(ctx, "history")
			require.NoError(t, err)
			require.Len(t, docs, 3)
			assert.JSONEq(t, `{"v":1}`, string(docs[0]))
			assert.JSONEq(t, `{"v":3}`, string(docs[2]))
		})
	}
}

func TestWatchDeliversInitialAndUpdatedSnapshots(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			require.NoError(t, store.Put(ctx, "widgets", "a", json.RawMessage(`{"v":1}`)))

			feed, stop, err := store.Watch(ctx, "widgets")
			require.NoError(t, err)
			defer stop()

			snap := recvSnapshot(t, feed)
			assert.Len(t, snap, 1)

			require.NoError(t, store.Put(ctx, "widgets", "b", json.RawMessage(`{"v":2}`)))
			snap = recvSnapshot(t, feed)
			assert.Len(t, snap, 2)

			require.NoError(t, store.Delete(ctx, "widgets", "a"))
			snap = recvSnapshot(t, feed)
			assert.Len(t, snap, 1)
			assert.Contains(t, snap, "b")
		})
	}
}

func TestWatchSlowConsumerSeesNewestSnapshot(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			feed, stop, err := store.Watch(ctx, "widgets")
			require.NoError(t, err)
			defer stop()

			// Consumer never reads while three writes land; only the final
			// snapshot must be observable.
			for _, id := range []string{"a", "b", "c"} {
				require.NoError(t, store.Put(ctx, "widgets", id, json.RawMessage(`{}`)))
			}

			var last Snapshot
			for {
				select {
				case snap := <-feed:
					last = snap
					continue
				default:
				}
				break
			}
			require.NotNil(t, last)
			assert.Len(t, last, 3)
		})
	}
}

func TestWatchStopIsIdempotentAndClosesFeed(t *testing.T) {
	store := NewMemory()
	feed, stop, err := store.Watch(context.Background(), "widgets")
	require.NoError(t, err)

	// Drain the initial snapshot.
	recvSnapshot(t, feed)

	stop()
	stop()

	_, open := <-feed
	assert.False(t, open)
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	orig := Snapshot{"a": json.RawMessage(`{"v":1}`)}
	cp := orig.Clone()
	cp["a"][len(cp["a"])-2] = '9'
	assert.JSONEq(t, `{"v":1}`, string(orig["a"]))
}

func recvSnapshot(t *testing.T, feed <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-feed:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}
