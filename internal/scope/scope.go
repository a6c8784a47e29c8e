package scope

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/sagelabs/widgetlab/internal/tree"
)

// Scope is the capability object bound to evaluated widget source. It is the
// complete binding surface: evaluated code has no access to anything that is
// not a scope entry.
type Scope struct {
	vals map[string]Value
}

// Get returns the named entry.
func (s *Scope) Get(name string) (Value, bool) {
	v, ok := s.vals[name]
	return v, ok
}

// Names returns all entry names in sorted order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vals))
	for name := range s.vals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (s *Scope) Len() int { return len(s.vals) }

// Transform returns a copy of the scope with every entry mapped through fn.
// It is how the editor swaps capabilities for logging decorators without
// mutating the scope the rest of the page renders with.
func (s *Scope) Transform(fn func(name string, v Value) Value) *Scope {
	out := &Scope{vals: make(map[string]Value, len(s.vals))}
	for name, v := range s.vals {
		out.vals[name] = fn(name, v)
	}
	return out
}

// FromEntries builds a scope directly from a map, bypassing the Builder.
// Intended for tests.
func FromEntries(vals map[string]Value) *Scope {
	out := &Scope{vals: make(map[string]Value, len(vals))}
	for name, v := range vals {
		out.vals[name] = v
	}
	return out
}

// defaultTokens are the shared design tokens exposed to every widget.
var defaultTokens = map[string]string{
	"navy":   "#002E47",
	"teal":   "#47A88D",
	"orange": "#E04E1B",
	"blue":   "#2563EB",
	"green":  "#16A34A",
	"red":    "#DC2626",
	"amber":  "#D97706",
	"bg":     "#F7F9FB",
	"text":   "#1F2937",
	"muted":  "#6B7280",
	"subtle": "#E5E7EB",
}

// defaultIcons is the curated glyph subset. Deliberately a small fraction of
// the full icon catalog to bound the scope payload.
var defaultIcons = map[string]string{
	"flame":     "\U0001F525",
	"trophy":    "\U0001F3C6",
	"zap":       "⚡",
	"users":     "\U0001F465",
	"book":      "\U0001F4D6",
	"chart":     "\U0001F4CA",
	"message":   "\U0001F4AC",
	"calendar":  "\U0001F4C5",
	"target":    "\U0001F3AF",
	"trending":  "\U0001F4C8",
	"check":     "✓",
	"lightbulb": "\U0001F4A1",
	"cpu":       "\U0001F5A5",
	"clock":     "\U0001F552",
	"shield":    "\U0001F6E1",
	"star":      "⭐",
}

// baseFunctionNames are the render-tree constructors installed by the
// Builder. They are reserved: caller-supplied entries cannot shadow them, and
// the editor never wraps them in call loggers.
var baseFunctionNames = []string{"el", "txt", "frag", "icon"}

// BaseFunctionNames returns the reserved constructor names.
func BaseFunctionNames() []string {
	out := make([]string, len(baseFunctionNames))
	copy(out, baseFunctionNames)
	return out
}

// Builder assembles widget scopes from a fixed base plus caller-supplied,
// screen-specific entries.
type Builder struct {
	tokens map[string]string
	icons  map[string]string
}

// NewBuilder returns a builder with the default tokens and icon subset.
func NewBuilder() *Builder {
	return &Builder{tokens: defaultTokens, icons: defaultIcons}
}

// Build merges the fixed base with the caller's entries. The fully merged
// object is additionally exposed under the "scope" key so source can
// introspect its own bindings as data.
func (b *Builder) Build(extra map[string]Value) *Scope {
	s := &Scope{vals: make(map[string]Value, len(extra)+8)}

	tokens := make(map[string]Value, len(b.tokens))
	for name, hex := range b.tokens {
		tokens[name] = StringVal(hex)
	}
	s.vals["colors"] = ObjectVal(tokens)

	icons := make(map[string]Value, len(b.icons))
	for name, glyph := range b.icons {
		icons[name] = StringVal(glyph)
	}
	s.vals["icons"] = ObjectVal(icons)

	s.vals["el"] = FuncVal(NewFunc("el", func(ctx context.Context, args []Value) (Value, error) {
		if len(args) == 0 || args[0].Kind() != KindString {
			return NullVal(), fmt.Errorf("el: first argument must be a tag name")
		}
		attrs, children, err := collectNodeArgs(ctx, s, args[1:])
		if err != nil {
			return NullVal(), fmt.Errorf("el(%s): %w", args[0].Str(), err)
		}
		return TreeVal(tree.Element(args[0].Str(), attrs, children...)), nil
	}))

	s.vals["txt"] = FuncVal(NewFunc("txt", func(ctx context.Context, args []Value) (Value, error) {
		text := ""
		for _, a := range args {
			part, ok := stringify(a)
			if !ok {
				return NullVal(), fmt.Errorf("txt: cannot render a %s as text", a.Kind())
			}
			text += part
		}
		return TreeVal(tree.Text(text)), nil
	}))

	s.vals["frag"] = FuncVal(NewFunc("frag", func(ctx context.Context, args []Value) (Value, error) {
		_, children, err := collectNodeArgs(ctx, s, args)
		if err != nil {
			return NullVal(), fmt.Errorf("frag: %w", err)
		}
		return TreeVal(tree.Fragment(children...)), nil
	}))

	s.vals["icon"] = FuncVal(NewFunc("icon", func(ctx context.Context, args []Value) (Value, error) {
		if len(args) != 1 || args[0].Kind() != KindString {
			return NullVal(), fmt.Errorf("icon: expected a single icon name")
		}
		name := args[0].Str()
		glyph, ok := b.icons[name]
		if !ok {
			return NullVal(), fmt.Errorf("icon: unknown icon %q", name)
		}
		return TreeVal(tree.Element("icon", map[string]string{"name": name, "glyph": glyph})), nil
	}))

	reserved := make(map[string]bool, len(baseFunctionNames))
	for _, name := range baseFunctionNames {
		reserved[name] = true
	}
	for name, v := range extra {
		if reserved[name] {
			continue
		}
		s.vals[name] = v
	}

	s.vals["scope"] = introspect(s.vals)
	return s
}

// collectNodeArgs interprets constructor arguments: objects contribute
// attributes, everything else becomes a child node. Components are rendered
// inline against the current scope.
func collectNodeArgs(ctx context.Context, s *Scope, args []Value) (map[string]string, []*tree.Node, error) {
	var attrs map[string]string
	var children []*tree.Node
	for _, a := range args {
		switch a.Kind() {
		case KindNull:
			// Optional child, skipped.
		case KindObject:
			if attrs == nil {
				attrs = make(map[string]string, len(a.Fields()))
			}
			for k, fv := range a.Fields() {
				str, ok := stringify(fv)
				if !ok {
					return nil, nil, fmt.Errorf("attribute %q must be a primitive, got %s", k, fv.Kind())
				}
				attrs[k] = str
			}
		case KindTree:
			children = append(children, a.Tree())
		case KindList:
			_, nested, err := collectNodeArgs(ctx, s, a.Elements())
			if err != nil {
				return nil, nil, err
			}
			children = append(children, nested...)
		case KindComponent:
			comp := a.Component()
			if comp.Render == nil {
				return nil, nil, fmt.Errorf("component %q has no renderer", comp.Name)
			}
			node, err := comp.Render(ctx, s)
			if err != nil {
				return nil, nil, fmt.Errorf("component %q: %w", comp.Name, err)
			}
			children = append(children, node)
		default:
			str, ok := stringify(a)
			if !ok {
				return nil, nil, fmt.Errorf("cannot render a %s as a child node", a.Kind())
			}
			children = append(children, tree.Text(str))
		}
	}
	return attrs, children, nil
}

// stringify converts primitive values to their attribute/text representation.
func stringify(v Value) (string, bool) {
	switch v.Kind() {
	case KindString:
		return v.Str(), true
	case KindNumber:
		return strconv.FormatFloat(v.Number(), 'f', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.Bool()), true
	default:
		return "", false
	}
}

// introspect projects the merged scope into a plain data object. Functions
// and components appear as tagged marker strings because they have no data
// representation inside evaluated source.
func introspect(vals map[string]Value) Value {
	fields := make(map[string]Value, len(vals))
	for name, v := range vals {
		switch v.Kind() {
		case KindFunc:
			fields[name] = StringVal("fn:" + name)
		case KindComponent:
			fields[name] = StringVal("component:" + v.Component().Name)
		case KindTree:
			fields[name] = StringVal("tree")
		case KindEvent, KindDeferred:
			fields[name] = StringVal(v.Kind().String())
		default:
			fields[name] = v
		}
	}
	return ObjectVal(fields)
}
