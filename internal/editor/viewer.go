package editor

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/sagelabs/widgetlab/internal/scope"
)

// ViewNode is one node of the lazy value viewer: a summary of the value at a
// path, plus summaries of its immediate children. Grandchildren are never
// resolved; the client asks again with a longer path to expand. Because
// expansion is one level at a time, cyclic structures are viewable without
// special handling.
type ViewNode struct {
	Path       []string   `json:"path"`
	Name       string     `json:"name,omitempty"`
	Kind       string     `json:"kind"`
	Label      string     `json:"label"`
	ChildCount int        `json:"child_count,omitempty"`
	Expandable bool       `json:"expandable,omitempty"`
	Children   []ViewNode `json:"children,omitempty"`
}

// Describe resolves one level of the scope at the given path. An empty path
// describes the scope itself as an object of its entries.
func Describe(sc *scope.Scope, path []string) (ViewNode, error) {
	fields := make(map[string]scope.Value, sc.Len())
	for _, name := range sc.Names() {
		v, _ := sc.Get(name)
		fields[name] = v
	}
	current := scope.ObjectVal(fields)

	for i, seg := range path {
		next, err := stepInto(current, seg)
		if err != nil {
			return ViewNode{}, fmt.Errorf("at %v: %w", path[:i+1], err)
		}
		current = next
	}

	node := summarize(current)
	node.Path = path
	if len(path) > 0 {
		node.Name = path[len(path)-1]
	}
	node.Children = childSummaries(current, path)
	return node, nil
}

func stepInto(v scope.Value, seg string) (scope.Value, error) {
	switch v.Kind() {
	case scope.KindObject:
		child, ok := v.Fields()[seg]
		if !ok {
			return scope.NullVal(), fmt.Errorf("no field %q", seg)
		}
		return child, nil
	case scope.KindList:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(v.Elements()) {
			return scope.NullVal(), fmt.Errorf("no element %q", seg)
		}
		return v.Elements()[idx], nil
	default:
		return scope.NullVal(), fmt.Errorf("a %s is not expandable", v.Kind())
	}
}

// summarize renders the single-line description of a value without touching
// its children.
func summarize(v scope.Value) ViewNode {
	node := ViewNode{Kind: v.Kind().String()}
	switch v.Kind() {
	case scope.KindNull:
		node.Label = "null"
	case scope.KindBool:
		node.Label = strconv.FormatBool(v.Bool())
	case scope.KindNumber:
		node.Label = formatNumber(v.Number())
	case scope.KindString:
		node.Label = strconv.Quote(v.Str())
	case scope.KindFunc:
		// An inert glyph: the viewer never invokes anything.
		node.Label = "ƒ " + v.Func().Name()
	case scope.KindComponent:
		node.Label = "<" + v.Component().Name + ">"
	case scope.KindTree:
		node.Label = PlaceholderElement
	case scope.KindEvent:
		node.Label = PlaceholderEvent
	case scope.KindDeferred:
		node.Label = PlaceholderDeferred
	case scope.KindList:
		node.Label = fmt.Sprintf("list(%d)", len(v.Elements()))
		node.ChildCount = len(v.Elements())
		node.Expandable = node.ChildCount > 0
	case scope.KindObject:
		node.Label = fmt.Sprintf("object(%d)", len(v.Fields()))
		node.ChildCount = len(v.Fields())
		node.Expandable = node.ChildCount > 0
	}
	return node
}

// childSummaries summarizes the immediate children of a container, collapsed:
// each child shows its own label and child count but no grandchildren.
func childSummaries(v scope.Value, path []string) []ViewNode {
	switch v.Kind() {
	case scope.KindObject:
		names := make([]string, 0, len(v.Fields()))
		for name := range v.Fields() {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]ViewNode, 0, len(names))
		for _, name := range names {
			child := summarize(v.Fields()[name])
			child.Name = name
			child.Path = childPath(path, name)
			out = append(out, child)
		}
		return out
	case scope.KindList:
		out := make([]ViewNode, 0, len(v.Elements()))
		for i, e := range v.Elements() {
			seg := strconv.Itoa(i)
			child := summarize(e)
			child.Name = seg
			child.Path = childPath(path, seg)
			out = append(out, child)
		}
		return out
	default:
		return nil
	}
}

func childPath(path []string, seg string) []string {
	out := make([]string, 0, len(path)+1)
	out = append(out, path...)
	return append(out, seg)
}
