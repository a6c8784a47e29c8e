package registry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagelabs/widgetlab/internal/ctxlog"
	"github.com/sagelabs/widgetlab/internal/docstore"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger))
	t.Cleanup(cancel)
	return ctx
}

func newTestRegistry(t *testing.T) (*Registry, docstore.Store, context.Context) {
	t.Helper()
	ctx := testContext(t)
	store := docstore.NewMemory()
	reg, err := New(ctx, store)
	require.NoError(t, err)
	return reg, store, ctx
}

func TestNewPrimesFromStore(t *testing.T) {
	ctx := testContext(t)
	store := docstore.NewMemory()
	require.NoError(t, store.Put(ctx, "widgets", "exec-summary", json.RawMessage(`{"enabled": false, "order": 1}`)))

	reg, err := New(ctx, store)
	require.NoError(t, err)

	rec, ok := reg.Record("exec-summary")
	require.True(t, ok)
	assert.False(t, rec.EnabledValue())
	assert.Equal(t, 1, rec.OrderValue())
}

func TestIsEnabledDefaultsForUnknownWidget(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	assert.True(t, reg.IsEnabled("never-seen"))
}

func TestToggleWritesThroughImmediately(t *testing.T) {
	reg, store, ctx := newTestRegistry(t)

	require.NoError(t, reg.Toggle(ctx, "habit-stack", false))

	// Visible in the cache without waiting for the snapshot feed.
	assert.False(t, reg.IsEnabled("habit-stack"))

	// And persisted in object form.
	doc, ok, err := store.Get(ctx, "widgets", "habit-stack")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"enabled": false}`, string(doc))
}

func TestFlipInvertsCurrentState(t *testing.T) {
	reg, _, ctx := newTestRegistry(t)

	// Unknown widgets count as enabled, so the first flip disables.
	require.NoError(t, reg.Flip(ctx, "habit-stack"))
	assert.False(t, reg.IsEnabled("habit-stack"))

	require.NoError(t, reg.Flip(ctx, "habit-stack"))
	assert.True(t, reg.IsEnabled("habit-stack"))
}

func TestTogglePreservesOtherFields(t *testing.T) {
	reg, _, ctx := newTestRegistry(t)

	require.NoError(t, reg.Save(ctx, "gamification", Draft{Code: `el("box")`, Name: "Gamification"}))
	require.NoError(t, reg.SetOrder(ctx, "gamification", 5))
	require.NoError(t, reg.Toggle(ctx, "gamification", false))

	rec, ok := reg.Record("gamification")
	require.True(t, ok)
	assert.False(t, rec.EnabledValue())
	assert.Equal(t, 5, rec.OrderValue())
	assert.Equal(t, `el("box")`, rec.Code)
	assert.Equal(t, "Gamification", rec.Name)
}

func TestSaveNewRecordGetsDefaults(t *testing.T) {
	reg, _, ctx := newTestRegistry(t)

	require.NoError(t, reg.Save(ctx, "fresh", Draft{Code: `txt("hi")`}))

	rec, ok := reg.Record("fresh")
	require.True(t, ok)
	assert.True(t, rec.EnabledValue())
	assert.Equal(t, DefaultOrder, rec.OrderValue())
	assert.Equal(t, DefaultGroup, rec.GroupValue())
}

func TestSavePreservesLayoutOfExistingRecord(t *testing.T) {
	reg, store, ctx := newTestRegistry(t)
	require.NoError(t, store.Put(ctx, "widgets", "w",
		json.RawMessage(`{"enabled": false, "order": 2, "group": "reports", "code": "old"}`)))
	waitForRecord(t, reg, "w")

	require.NoError(t, reg.Save(ctx, "w", Draft{Code: "new", Name: "W"}))

	rec, ok := reg.Record("w")
	require.True(t, ok)
	assert.False(t, rec.EnabledValue(), "save must not re-enable a disabled widget")
	assert.Equal(t, 2, rec.OrderValue())
	assert.Equal(t, "reports", rec.GroupValue())
	assert.Equal(t, "new", rec.Code)
}

func TestSaveArchivesReplacedCode(t *testing.T) {
	reg, _, ctx := newTestRegistry(t)

	require.NoError(t, reg.Save(ctx, "w", Draft{Code: "v1", SavedBy: "admin"}))
	require.NoError(t, reg.Save(ctx, "w", Draft{Code: "v2", SavedBy: "admin"}))

	history, err := reg.History(ctx, "w")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "v1", history[0].Code)
	assert.Equal(t, "admin", history[0].SavedBy)
	assert.False(t, history[0].SavedAt.IsZero())
}

func TestSaveArchivesEvenWhenCodeIsUnchanged(t *testing.T) {
	reg, _, ctx := newTestRegistry(t)

	// The archive is conditioned on the prior record holding code, not on
	// the draft differing from it.
	require.NoError(t, reg.Save(ctx, "w", Draft{Code: `txt(1)`}))
	require.NoError(t, reg.Save(ctx, "w", Draft{Code: `txt(1)`}))

	history, err := reg.History(ctx, "w")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, `txt(1)`, history[0].Code)
}

func TestHistoryIsPerWidget(t *testing.T) {
	reg, _, ctx := newTestRegistry(t)

	require.NoError(t, reg.Save(ctx, "a", Draft{Code: "a1"}))
	require.NoError(t, reg.Save(ctx, "a", Draft{Code: "a2"}))
	require.NoError(t, reg.Save(ctx, "b", Draft{Code: "b1"}))
	require.NoError(t, reg.Save(ctx, "b", Draft{Code: "b2"}))

	history, err := reg.History(ctx, "a")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a1", history[0].Code)
}

func TestDeleteRemovesRecord(t *testing.T) {
	reg, store, ctx := newTestRegistry(t)
	require.NoError(t, reg.Save(ctx, "w", Draft{Code: "v1"}))

	require.NoError(t, reg.Delete(ctx, "w"))

	_, ok := reg.Record("w")
	assert.False(t, ok)
	_, ok, err := store.Get(ctx, "widgets", "w")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExternalWriteReplacesCache(t *testing.T) {
	reg, store, ctx := newTestRegistry(t)

	// A write from another process arrives via the snapshot feed only.
	require.NoError(t, store.Put(ctx, "widgets", "remote", json.RawMessage(`{"enabled": false}`)))
	waitForRecord(t, reg, "remote")
	assert.False(t, reg.IsEnabled("remote"))
}

func TestSubscribeDeliversInitialAndUpdatedListings(t *testing.T) {
	reg, _, ctx := newTestRegistry(t)
	require.NoError(t, reg.Save(ctx, "a", Draft{Code: "v1"}))

	feed := reg.Subscribe(ctx)
	items := recvItems(t, feed)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)

	require.NoError(t, reg.Toggle(ctx, "b", false))
	items = recvItems(t, feed)
	for len(items) < 2 {
		items = recvItems(t, feed)
	}
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID, "new ids append after existing ones")
}

func TestItemsKeepFirstSeenOrder(t *testing.T) {
	reg, _, ctx := newTestRegistry(t)

	require.NoError(t, reg.Save(ctx, "zeta", Draft{Code: "z"}))
	require.NoError(t, reg.Save(ctx, "alpha", Draft{Code: "a"}))

	items := reg.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "zeta", items[0].ID)
	assert.Equal(t, "alpha", items[1].ID)
}

func waitForRecord(t *testing.T, reg *Registry, id string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if _, ok := reg.Record(id); ok {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("registry never observed widget %q", id)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func recvItems(t *testing.T, feed <-chan []Item) []Item {
	t.Helper()
	select {
	case items := <-feed:
		return items
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for listing")
		return nil
	}
}
