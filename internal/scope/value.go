package scope

import (
	"context"
	"fmt"
	"sync"

	"github.com/sagelabs/widgetlab/internal/tree"
)

// Kind discriminates the variants of a Value. Everything that crosses the
// scope boundary carries one of these tags, so the editor's logger and value
// viewer switch on the tag instead of inspecting shape.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindObject
	KindFunc
	KindComponent
	KindTree
	KindEvent
	KindDeferred
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	case KindFunc:
		return "func"
	case KindComponent:
		return "component"
	case KindTree:
		return "tree"
	case KindEvent:
		return "event"
	case KindDeferred:
		return "deferred"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a tagged union of everything a widget scope can hold.
// The zero Value is the null value.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	list []Value
	obj  map[string]Value
	fn   Func
	comp Component
	node *tree.Node
	ev   *Event
	def  *Deferred
}

// NullVal returns the null value.
func NullVal() Value { return Value{kind: KindNull} }

// BoolVal wraps a bool.
func BoolVal(b bool) Value { return Value{kind: KindBool, b: b} }

// NumberVal wraps a float64.
func NumberVal(n float64) Value { return Value{kind: KindNumber, num: n} }

// StringVal wraps a string.
func StringVal(s string) Value { return Value{kind: KindString, str: s} }

// ListVal wraps a slice of values.
func ListVal(elems []Value) Value { return Value{kind: KindList, list: elems} }

// ObjectVal wraps a map of named values.
func ObjectVal(fields map[string]Value) Value { return Value{kind: KindObject, obj: fields} }

// FuncVal wraps a callable capability.
func FuncVal(f Func) Value { return Value{kind: KindFunc, fn: f} }

// ComponentVal wraps a native UI component.
func ComponentVal(c Component) Value { return Value{kind: KindComponent, comp: c} }

// TreeVal wraps a render tree.
func TreeVal(n *tree.Node) Value { return Value{kind: KindTree, node: n} }

// EventVal wraps a UI event.
func EventVal(e *Event) Value { return Value{kind: KindEvent, ev: e} }

// DeferredVal wraps a deferred result.
func DeferredVal(d *Deferred) Value { return Value{kind: KindDeferred, def: d} }

// Kind reports the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the wrapped bool, or false for other variants.
func (v Value) Bool() bool { return v.b }

// Number returns the wrapped number, or 0 for other variants.
func (v Value) Number() float64 { return v.num }

// Str returns the wrapped string, or "" for other variants.
func (v Value) Str() string { return v.str }

// Elements returns the wrapped list, or nil for other variants.
func (v Value) Elements() []Value { return v.list }

// Fields returns the wrapped object fields, or nil for other variants.
func (v Value) Fields() map[string]Value { return v.obj }

// Func returns the wrapped capability, or nil for other variants.
func (v Value) Func() Func { return v.fn }

// Component returns the wrapped component. Valid only for KindComponent.
func (v Value) Component() Component { return v.comp }

// Tree returns the wrapped render tree, or nil for other variants.
func (v Value) Tree() *tree.Node { return v.node }

// Event returns the wrapped event, or nil for other variants.
func (v Value) Event() *Event { return v.ev }

// Deferred returns the wrapped deferred, or nil for other variants.
func (v Value) Deferred() *Deferred { return v.def }

// Func is a callable capability exposed to widget source. Implementations
// must be safe for concurrent calls.
type Func interface {
	Name() string
	Call(ctx context.Context, args []Value) (Value, error)
}

// NewFunc wraps a Go function as a named capability.
func NewFunc(name string, impl func(ctx context.Context, args []Value) (Value, error)) Func {
	return &funcImpl{name: name, impl: impl}
}

type funcImpl struct {
	name string
	impl func(ctx context.Context, args []Value) (Value, error)
}

func (f *funcImpl) Name() string { return f.name }

func (f *funcImpl) Call(ctx context.Context, args []Value) (Value, error) {
	return f.impl(ctx, args)
}

// Component is a native, hand-written renderer. Components are addressed by
// scope keys starting with an uppercase letter and are never wrapped or
// invoked by the editor's call logger.
type Component struct {
	Name   string
	Render func(ctx context.Context, sc *Scope) (*tree.Node, error)
}

// Event is the explicit UI-event variant. The editor's sanitizer replaces
// events with an opaque placeholder before anything is logged.
type Event struct {
	Name   string `json:"name"`
	Target string `json:"target"`
}

// Deferred is an asynchronous result: a value that settles exactly once,
// some time after the call that produced it has already returned.
type Deferred struct {
	mu   sync.Mutex
	done chan struct{}
	val  Value
	err  error
}

// NewDeferred returns an unsettled deferred.
func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Settle records the outcome and releases waiters. Settling twice is a no-op;
// the first outcome wins.
func (d *Deferred) Settle(v Value, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case <-d.done:
		return
	default:
	}
	d.val, d.err = v, err
	close(d.done)
}

// Done is closed once the deferred has settled.
func (d *Deferred) Done() <-chan struct{} { return d.done }

// Result returns the settled outcome. It must only be called after Done is
// closed.
func (d *Deferred) Result() (Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.val, d.err
}

// Wait blocks until the deferred settles or the context is cancelled.
func (d *Deferred) Wait(ctx context.Context) (Value, error) {
	select {
	case <-d.done:
		return d.Result()
	case <-ctx.Done():
		return NullVal(), ctx.Err()
	}
}
