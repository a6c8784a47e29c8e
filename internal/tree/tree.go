// Package tree defines the render tree produced by evaluating widget source.
//
// A render tree is plain data: the runtime never interprets it beyond
// structural traversal. Consumers (the console JSON surface, the terminal
// preview renderer) decide how a node is painted. Every node carries an
// explicit Kind tag so downstream code switches on a real variant instead of
// sniffing shapes.
package tree

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the node variants.
type Kind int

const (
	// KindElement is a tagged element with attributes and children.
	KindElement Kind = iota
	// KindText is a leaf holding literal text.
	KindText
	// KindFragment groups children without introducing an element of its own.
	KindFragment
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindFragment:
		return "fragment"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a single node of a render tree.
type Node struct {
	Kind     Kind              `json:"kind"`
	Tag      string            `json:"tag,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// Element builds an element node. The attrs map may be nil.
func Element(tag string, attrs map[string]string, children ...*Node) *Node {
	return &Node{Kind: KindElement, Tag: tag, Attrs: attrs, Children: compact(children)}
}

// Text builds a text leaf.
func Text(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// Fragment groups the given children under an anonymous node.
func Fragment(children ...*Node) *Node {
	return &Node{Kind: KindFragment, Children: compact(children)}
}

// compact drops nil children so callers can pass optional subtrees directly.
func compact(children []*Node) []*Node {
	out := children[:0]
	for _, c := range children {
		if c != nil {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Walk visits n and its descendants depth-first. The visit function returns
// false to stop descending into the current node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// String renders the node as a stable s-expression, used by tests and debug
// logging. Attributes are emitted in sorted key order.
func (n *Node) String() string {
	if n == nil {
		return "()"
	}
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.Kind {
	case KindText:
		fmt.Fprintf(b, "%q", n.Text)
		return
	case KindFragment:
		b.WriteString("(frag")
	default:
		b.WriteString("(")
		b.WriteString(n.Tag)
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%q", k, n.Attrs[k])
	}
	for _, c := range n.Children {
		b.WriteString(" ")
		c.write(b)
	}
	b.WriteString(")")
}
