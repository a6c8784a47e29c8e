package editor

import (
	"context"
	"unicode"
	"unicode/utf8"

	"github.com/sagelabs/widgetlab/internal/scope"
)

// DefaultQuiet returns the functions excluded from call logging by default:
// the render-tree constructors, which would otherwise flood the log on every
// preview.
func DefaultQuiet() map[string]bool {
	quiet := make(map[string]bool)
	for _, name := range scope.BaseFunctionNames() {
		quiet[name] = true
	}
	return quiet
}

// ProxyScope returns a copy of the scope in which every loggable capability
// is wrapped in a call logger. Components (uppercase keys) and quiet
// functions pass through untouched; so does everything that is not a
// function. The original scope is never mutated.
func ProxyScope(sc *scope.Scope, log *Log, quiet map[string]bool) *scope.Scope {
	return sc.Transform(func(name string, v scope.Value) scope.Value {
		if v.Kind() != scope.KindFunc {
			return v
		}
		if quiet[name] || startsUpper(name) {
			return v
		}
		return scope.FuncVal(&loggedFunc{name: name, inner: v.Func(), log: log})
	})
}

func startsUpper(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// loggedFunc decorates a capability with observability logging. Entries are
// logged under the scope key the capability is bound to, not the function's
// self-reported name. The wrapped function's behavior is unchanged:
// arguments, results and errors pass through exactly as they are.
type loggedFunc struct {
	name  string
	inner scope.Func
	log   *Log
}

func (f *loggedFunc) Name() string { return f.name }

func (f *loggedFunc) Call(ctx context.Context, args []scope.Value) (scope.Value, error) {
	f.log.Append(EntryCall, f.name, SanitizeArgs(args))

	result, err := f.inner.Call(ctx, args)
	if err != nil {
		f.log.Append(EntryError, f.name, []any{err.Error()})
		return result, err
	}

	if result.Kind() == scope.KindDeferred {
		// The call has already returned; its outcome is logged whenever the
		// deferred settles. The caller gets the deferred unaltered.
		def := result.Deferred()
		go func() {
			<-def.Done()
			v, derr := def.Result()
			if derr != nil {
				f.log.Append(EntryError, f.name, []any{derr.Error()})
				return
			}
			f.log.Append(EntryReturn, f.name, []any{Sanitize(v)})
		}()
		return result, nil
	}

	if !result.IsNull() {
		f.log.Append(EntryReturn, f.name, []any{Sanitize(result)})
	}
	return result, nil
}
