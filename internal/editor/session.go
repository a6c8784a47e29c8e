package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/sagelabs/widgetlab/internal/boundary"
	"github.com/sagelabs/widgetlab/internal/registry"
	"github.com/sagelabs/widgetlab/internal/resolve"
	"github.com/sagelabs/widgetlab/internal/sandbox"
	"github.com/sagelabs/widgetlab/internal/scope"
	"github.com/sagelabs/widgetlab/internal/tree"
)

// starterSource fills the buffer when a widget has neither saved code nor a
// template to reset to.
const starterSource = `el("card", { title = "New widget" }, txt("Edit me"))`

// Session is one editor session for one widget. It owns an independent
// source buffer and a fresh observability log; nothing carries over between
// sessions, and nothing a session does besides Save is visible outside it.
type Session struct {
	seed    resolve.Seed
	reg     *registry.Registry
	log     *Log
	proxied *scope.Scope

	mu     sync.Mutex
	buffer string
}

// Open starts a session from an editor-open seed. The buffer starts with the
// seed's resolved source, and the seed's scope is wrapped so that every
// loggable capability call lands in the session log. A nil quiet set means
// DefaultQuiet.
func Open(seed resolve.Seed, reg *registry.Registry, quiet map[string]bool) *Session {
	if quiet == nil {
		quiet = DefaultQuiet()
	}
	s := &Session{
		seed:   seed,
		reg:    reg,
		log:    NewLog(),
		buffer: seed.Source,
	}
	if s.buffer == "" {
		s.buffer = starterSource
	}
	if seed.Scope != nil {
		s.proxied = ProxyScope(seed.Scope, s.log, quiet)
	} else {
		s.proxied = scope.FromEntries(nil)
	}
	return s
}

// WidgetID returns the widget this session edits.
func (s *Session) WidgetID() string { return s.seed.WidgetID }

// DisplayName returns the widget's human-readable name.
func (s *Session) DisplayName() string { return s.seed.DisplayName }

// Log returns the session's observability log.
func (s *Session) Log() *Log { return s.log }

// Code returns the current buffer.
func (s *Session) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

// SetCode replaces the buffer. Purely local until Save.
func (s *Session) SetCode(src string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = src
}

// Preview evaluates the buffer against the proxied scope, contained the same
// way live rendering is. Failures additionally land in the session log.
func (s *Session) Preview(ctx context.Context) boundary.Outcome {
	src := s.Code()
	out := boundary.Protect(func() (*tree.Node, error) {
		return sandbox.Evaluate(ctx, src, s.proxied)
	})
	if !out.OK() {
		s.log.Append(EntryError, "preview", []any{out.Err.Error()})
	}
	return out
}

// Call invokes a scope capability by name through the logging proxy, for the
// console's "run this binding" affordance.
func (s *Session) Call(ctx context.Context, name string, args []scope.Value) (scope.Value, error) {
	v, ok := s.proxied.Get(name)
	if !ok {
		return scope.NullVal(), fmt.Errorf("no scope entry %q", name)
	}
	if v.Kind() != scope.KindFunc {
		return scope.NullVal(), fmt.Errorf("scope entry %q is a %s, not callable", name, v.Kind())
	}
	return v.Func().Call(ctx, args)
}

// Save persists the buffer through the registry, which preserves the
// record's layout fields and archives replaced code. The buffer is not
// rolled back if persistence fails.
func (s *Session) Save(ctx context.Context, by string) error {
	draft := registry.Draft{
		Code:    s.Code(),
		SavedBy: by,
	}
	if rec, ok := s.reg.Record(s.seed.WidgetID); ok {
		draft.Name = rec.Name
		draft.Description = rec.Description
	}
	return s.reg.Save(ctx, s.seed.WidgetID, draft)
}

// Reset replaces the buffer with the shipped template, or the starter source
// when there is none. It touches nothing outside the buffer.
func (s *Session) Reset() {
	src := s.seed.Template
	if src == "" {
		src = starterSource
	}
	s.SetCode(src)
}

// Bindings analyzes the buffer and reports which scope entries it reaches
// for.
func (s *Session) Bindings() (sandbox.Analysis, error) {
	return sandbox.Analyze(s.Code())
}

// Describe resolves one level of the session scope for the value viewer.
func (s *Session) Describe(path []string) (ViewNode, error) {
	return Describe(s.proxied, path)
}

// Close ends the session, dropping its log entries.
func (s *Session) Close() {
	s.log.Clear()
}
