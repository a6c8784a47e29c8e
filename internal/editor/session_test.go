package editor

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagelabs/widgetlab/internal/ctxlog"
	"github.com/sagelabs/widgetlab/internal/docstore"
	"github.com/sagelabs/widgetlab/internal/registry"
	"github.com/sagelabs/widgetlab/internal/resolve"
	"github.com/sagelabs/widgetlab/internal/scope"
)

func sessionContext(t *testing.T) context.Context {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger))
	t.Cleanup(cancel)
	return ctx
}

func sessionRegistry(t *testing.T, ctx context.Context) *registry.Registry {
	t.Helper()
	reg, err := registry.New(ctx, docstore.NewMemory())
	require.NoError(t, err)
	return reg
}

func seedWith(source, template string) resolve.Seed {
	return resolve.Seed{
		WidgetID:    "exec-summary",
		DisplayName: "Executive Summary",
		Source:      source,
		Template:    template,
		Scope:       scope.NewBuilder().Build(nil),
	}
}

func TestOpenBuffersSeedSource(t *testing.T) {
	ctx := sessionContext(t)
	s := Open(seedWith(`el("mine")`, `el("tpl")`), sessionRegistry(t, ctx), nil)
	assert.Equal(t, `el("mine")`, s.Code())
	assert.Zero(t, s.Log().Len(), "a fresh session starts with an empty log")
}

func TestOpenEmptySeedGetsStarterSource(t *testing.T) {
	ctx := sessionContext(t)
	s := Open(seedWith("", ""), sessionRegistry(t, ctx), nil)
	assert.Equal(t, starterSource, s.Code())
}

func TestSetCodeIsLocalUntilSave(t *testing.T) {
	ctx := sessionContext(t)
	reg := sessionRegistry(t, ctx)
	s := Open(seedWith(`el("a")`, ""), reg, nil)

	s.SetCode(`el("b")`)
	assert.Equal(t, `el("b")`, s.Code())
	_, ok := reg.Record("exec-summary")
	assert.False(t, ok, "editing must not touch the registry")
}

func TestPreviewRendersBuffer(t *testing.T) {
	ctx := sessionContext(t)
	s := Open(seedWith(`el("card", txt("hi"))`, ""), sessionRegistry(t, ctx), nil)

	out := s.Preview(ctx)
	require.True(t, out.OK())
	assert.Equal(t, "card", out.Tree.Tag)
}

func TestPreviewFailureLogsAndContains(t *testing.T) {
	ctx := sessionContext(t)
	s := Open(seedWith(`el(`, ""), sessionRegistry(t, ctx), nil)

	out := s.Preview(ctx)
	require.False(t, out.OK())

	entries := s.Log().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, EntryError, entries[0].Type)
	assert.Equal(t, "preview", entries[0].Message)
}

func TestSavePreservesLayoutAndArchives(t *testing.T) {
	ctx := sessionContext(t)
	reg := sessionRegistry(t, ctx)
	require.NoError(t, reg.Save(ctx, "exec-summary", registry.Draft{Code: "v1", Name: "Exec"}))
	require.NoError(t, reg.Toggle(ctx, "exec-summary", false))
	require.NoError(t, reg.SetOrder(ctx, "exec-summary", 3))

	s := Open(seedWith("v1", ""), reg, nil)
	s.SetCode("v2")
	require.NoError(t, s.Save(ctx, "admin"))

	rec, ok := reg.Record("exec-summary")
	require.True(t, ok)
	assert.Equal(t, "v2", rec.Code)
	assert.Equal(t, "Exec", rec.Name, "save keeps the record's name")
	assert.False(t, rec.EnabledValue())
	assert.Equal(t, 3, rec.OrderValue())

	history, err := reg.History(ctx, "exec-summary")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "v1", history[0].Code)
	assert.Equal(t, "admin", history[0].SavedBy)
}

func TestResetUsesTemplateBufferOnly(t *testing.T) {
	ctx := sessionContext(t)
	reg := sessionRegistry(t, ctx)
	require.NoError(t, reg.Save(ctx, "exec-summary", registry.Draft{Code: `el("saved")`}))

	s := Open(seedWith(`el("saved")`, `el("tpl")`), reg, nil)
	s.Reset()
	assert.Equal(t, `el("tpl")`, s.Code())

	// The saved record is untouched until an explicit Save.
	rec, ok := reg.Record("exec-summary")
	require.True(t, ok)
	assert.Equal(t, `el("saved")`, rec.Code)
}

func TestResetWithoutTemplateUsesStarter(t *testing.T) {
	ctx := sessionContext(t)
	s := Open(seedWith(`el("saved")`, ""), sessionRegistry(t, ctx), nil)
	s.Reset()
	assert.Equal(t, starterSource, s.Code())
}

func TestBindingsReportScopeUsage(t *testing.T) {
	ctx := sessionContext(t)
	s := Open(seedWith(`el("card", txt(member.name), icon("flame"))`, ""), sessionRegistry(t, ctx), nil)

	analysis, err := s.Bindings()
	require.NoError(t, err)
	assert.Equal(t, []string{"member"}, analysis.Variables)
	assert.Equal(t, []string{"el", "icon", "txt"}, analysis.Functions)
}

func TestCallUnknownEntryFails(t *testing.T) {
	ctx := sessionContext(t)
	s := Open(seedWith(`el("x")`, ""), sessionRegistry(t, ctx), nil)

	_, err := s.Call(ctx, "no_such_capability", nil)
	require.Error(t, err)

	_, err = s.Call(ctx, "colors", nil)
	require.Error(t, err, "non-function entries are not callable")
}

func TestCallGoesThroughLoggingProxy(t *testing.T) {
	ctx := sessionContext(t)
	seed := seedWith(`el("x")`, "")
	seed.Scope = scope.NewBuilder().Build(map[string]scope.Value{
		"refresh": scope.FuncVal(scope.NewFunc("refresh", func(ctx context.Context, args []scope.Value) (scope.Value, error) {
			return scope.StringVal("done"), nil
		})),
	})
	s := Open(seed, sessionRegistry(t, ctx), nil)

	result, err := s.Call(ctx, "refresh", nil)
	require.NoError(t, err)
	assert.Equal(t, "done", result.Str())

	entries := s.Log().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, EntryCall, entries[0].Type)
	assert.Equal(t, EntryReturn, entries[1].Type)
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := sessionContext(t)
	reg := sessionRegistry(t, ctx)

	first := Open(seedWith(`el(`, ""), reg, nil)
	first.Preview(ctx)
	require.Equal(t, 1, first.Log().Len())

	second := Open(seedWith(`el("a")`, ""), reg, nil)
	assert.Zero(t, second.Log().Len(), "no log carry-over between sessions")
}
