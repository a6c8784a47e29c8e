package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagelabs/widgetlab/internal/scope"
	"github.com/sagelabs/widgetlab/internal/tree"
)

func callableScope(name string, impl func(ctx context.Context, args []scope.Value) (scope.Value, error)) *scope.Scope {
	return scope.FromEntries(map[string]scope.Value{
		name: scope.FuncVal(scope.NewFunc(name, impl)),
	})
}

func mustCall(t *testing.T, sc *scope.Scope, name string, args ...scope.Value) (scope.Value, error) {
	t.Helper()
	v, ok := sc.Get(name)
	require.True(t, ok)
	require.Equal(t, scope.KindFunc, v.Kind())
	return v.Func().Call(context.Background(), args)
}

func TestProxyLogsCallThenReturn(t *testing.T) {
	log := NewLog()
	sc := callableScope("fetch_stats", func(ctx context.Context, args []scope.Value) (scope.Value, error) {
		return scope.NumberVal(42), nil
	})

	proxied := ProxyScope(sc, log, nil)
	result, err := mustCall(t, proxied, "fetch_stats", scope.StringVal("week"))
	require.NoError(t, err)
	assert.Equal(t, 42.0, result.Number())

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, EntryCall, entries[0].Type)
	assert.Equal(t, "fetch_stats", entries[0].Message)
	assert.Equal(t, []any{"week"}, entries[0].Data)
	assert.Equal(t, EntryReturn, entries[1].Type)
	assert.Equal(t, []any{42.0}, entries[1].Data)
}

func TestProxyLogsScopeKeyNotFunctionName(t *testing.T) {
	log := NewLog()
	// Bound under a key that differs from the function's self-reported name.
	sc := scope.FromEntries(map[string]scope.Value{
		"refresh": scope.FuncVal(scope.NewFunc("internalRefreshImpl", func(ctx context.Context, args []scope.Value) (scope.Value, error) {
			return scope.NumberVal(1), nil
		})),
	})

	proxied := ProxyScope(sc, log, nil)
	_, err := mustCall(t, proxied, "refresh")
	require.NoError(t, err)

	v, _ := proxied.Get("refresh")
	assert.Equal(t, "refresh", v.Func().Name())

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "refresh", entries[0].Message)
	assert.Equal(t, "refresh", entries[1].Message)
}

func TestProxyNullResultSkipsReturnEntry(t *testing.T) {
	log := NewLog()
	sc := callableScope("notify", func(ctx context.Context, args []scope.Value) (scope.Value, error) {
		return scope.NullVal(), nil
	})

	_, err := mustCall(t, ProxyScope(sc, log, nil), "notify")
	require.NoError(t, err)

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, EntryCall, entries[0].Type)
}

func TestProxySyncErrorLoggedAndRethrownUnchanged(t *testing.T) {
	log := NewLog()
	sentinel := errors.New("backend unavailable")
	sc := callableScope("fetch", func(ctx context.Context, args []scope.Value) (scope.Value, error) {
		return scope.NullVal(), sentinel
	})

	_, err := mustCall(t, ProxyScope(sc, log, nil), "fetch")
	assert.Same(t, sentinel, err, "error must pass through unaltered")

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, EntryError, entries[1].Type)
	assert.Equal(t, []any{"backend unavailable"}, entries[1].Data)
}

func TestProxyDeferredLogsOnSettle(t *testing.T) {
	log := NewLog()
	def := scope.NewDeferred()
	sc := callableScope("load", func(ctx context.Context, args []scope.Value) (scope.Value, error) {
		return scope.DeferredVal(def), nil
	})

	result, err := mustCall(t, ProxyScope(sc, log, nil), "load")
	require.NoError(t, err)
	require.Equal(t, scope.KindDeferred, result.Kind())
	assert.Same(t, def, result.Deferred(), "deferred must pass through unaltered")

	// Only the call is logged until the deferred settles.
	require.Len(t, log.Entries(), 1)
	assert.Equal(t, EntryCall, log.Entries()[0].Type)

	def.Settle(scope.StringVal("loaded"), nil)
	waitForEntries(t, log, 2)

	entries := log.Entries()
	assert.Equal(t, EntryReturn, entries[1].Type)
	assert.Equal(t, []any{"loaded"}, entries[1].Data)
}

func TestProxyDeferredErrorLogsErrorEntry(t *testing.T) {
	log := NewLog()
	def := scope.NewDeferred()
	sc := callableScope("load", func(ctx context.Context, args []scope.Value) (scope.Value, error) {
		return scope.DeferredVal(def), nil
	})

	_, err := mustCall(t, ProxyScope(sc, log, nil), "load")
	require.NoError(t, err)

	def.Settle(scope.NullVal(), errors.New("load failed"))
	waitForEntries(t, log, 2)

	entries := log.Entries()
	assert.Equal(t, EntryError, entries[1].Type)
	assert.Equal(t, []any{"load failed"}, entries[1].Data)
}

func TestProxySkipsQuietAndComponentEntries(t *testing.T) {
	log := NewLog()
	base := scope.NewBuilder().Build(map[string]scope.Value{
		"StatsPanel": scope.FuncVal(scope.NewFunc("StatsPanel", func(ctx context.Context, args []scope.Value) (scope.Value, error) {
			return scope.NullVal(), nil
		})),
		"fetch": scope.FuncVal(scope.NewFunc("fetch", func(ctx context.Context, args []scope.Value) (scope.Value, error) {
			return scope.NullVal(), nil
		})),
	})

	proxied := ProxyScope(base, log, DefaultQuiet())

	// Tree constructors stay quiet.
	_, err := mustCall(t, proxied, "txt", scope.StringVal("hi"))
	require.NoError(t, err)
	assert.Zero(t, log.Len())

	// Uppercase entries stay unwrapped.
	_, err = mustCall(t, proxied, "StatsPanel")
	require.NoError(t, err)
	assert.Zero(t, log.Len())

	// Ordinary capabilities are wrapped.
	_, err = mustCall(t, proxied, "fetch")
	require.NoError(t, err)
	assert.Equal(t, 1, log.Len())
}

func TestProxyDoesNotMutateOriginalScope(t *testing.T) {
	log := NewLog()
	sc := callableScope("fetch", func(ctx context.Context, args []scope.Value) (scope.Value, error) {
		return scope.NullVal(), nil
	})

	_ = ProxyScope(sc, log, nil)
	_, err := mustCall(t, sc, "fetch")
	require.NoError(t, err)
	assert.Zero(t, log.Len(), "calls through the original scope must not log")
}

func TestSanitizeReplacesUIValues(t *testing.T) {
	args := []scope.Value{
		scope.StringVal("plain"),
		scope.ListVal([]scope.Value{
			scope.NumberVal(1),
			scope.EventVal(&scope.Event{Name: "click", Target: "save-button"}),
			scope.TreeVal(tree.Text("secret")),
		}),
		scope.ObjectVal(map[string]scope.Value{
			"ev": scope.EventVal(&scope.Event{Name: "submit"}),
			"ok": scope.BoolVal(true),
		}),
	}

	sanitized := SanitizeArgs(args)
	require.Len(t, sanitized, 3)
	assert.Equal(t, "plain", sanitized[0])
	assert.Equal(t, []any{1.0, PlaceholderEvent, PlaceholderElement}, sanitized[1])
	assert.Equal(t, map[string]any{"ev": PlaceholderEvent, "ok": true}, sanitized[2])
}

func TestSanitizeBoundsDepth(t *testing.T) {
	deep := scope.StringVal("leaf")
	for i := 0; i < sanitizeDepth+4; i++ {
		deep = scope.ListVal([]scope.Value{deep})
	}
	out := Sanitize(deep)
	// Never panics or recurses forever; the tail degrades to a placeholder.
	for {
		list, ok := out.([]any)
		if !ok {
			break
		}
		require.Len(t, list, 1)
		out = list[0]
	}
	assert.Equal(t, PlaceholderUnserializable, out)
}

func TestLogClearAndSubscribe(t *testing.T) {
	log := NewLog()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := log.Subscribe(ctx)
	log.Append(EntryCall, "fetch", nil)

	select {
	case entry := <-feed:
		assert.Equal(t, "fetch", entry.Message)
		assert.NotEqual(t, "", entry.ID.String())
		assert.False(t, entry.Time.IsZero())
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the entry")
	}

	log.Clear()
	assert.Zero(t, log.Len())
}

func waitForEntries(t *testing.T, log *Log, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for log.Len() < n {
		select {
		case <-deadline:
			t.Fatalf("log never reached %d entries, have %d", n, log.Len())
		case <-time.After(2 * time.Millisecond):
		}
	}
}
