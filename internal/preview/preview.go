// Package preview renders widget trees as styled terminal output, for the
// preview subcommand and for eyeballing a widget without a browser.
package preview

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sagelabs/widgetlab/internal/boundary"
	"github.com/sagelabs/widgetlab/internal/tree"
)

const indentStep = "  "

// Renderer turns render trees into indented terminal text.
type Renderer struct {
	tag   lipgloss.Style
	attr  lipgloss.Style
	text  lipgloss.Style
	panel lipgloss.Style
	fail  lipgloss.Style
}

// New returns a renderer with the console's default styles.
func New() *Renderer {
	return &Renderer{
		tag:  lipgloss.NewStyle().Foreground(lipgloss.Color("#47A88D")).Bold(true),
		attr: lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		text: lipgloss.NewStyle().Foreground(lipgloss.Color("#1F2937")),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#47A88D")).
			Padding(0, 1),
		fail: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#DC2626")).
			Foreground(lipgloss.Color("#DC2626")).
			Padding(0, 1),
	}
}

// Render produces the indented tree listing. A nil node renders as the empty
// string, matching a widget that resolved to nothing.
func (r *Renderer) Render(node *tree.Node) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	r.writeNode(&b, node, 0)
	return r.panel.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderOutcome renders a boundary outcome: the tree when healthy, a red
// error box otherwise.
func (r *Renderer) RenderOutcome(widgetID string, out boundary.Outcome, showRaw bool) string {
	if out.OK() {
		return r.Render(out.Tree)
	}
	lines := []string{"widget " + widgetID + " failed to render"}
	if showRaw && out.Err != nil {
		lines = append(lines, out.Err.Error())
	}
	return r.fail.Render(strings.Join(lines, "\n"))
}

func (r *Renderer) writeNode(b *strings.Builder, node *tree.Node, depth int) {
	indent := strings.Repeat(indentStep, depth)
	switch node.Kind {
	case tree.KindText:
		b.WriteString(indent + r.text.Render(node.Text) + "\n")
	case tree.KindFragment:
		for _, child := range node.Children {
			r.writeNode(b, child, depth)
		}
	default:
		b.WriteString(indent + r.tag.Render(node.Tag) + r.renderAttrs(node) + "\n")
		for _, child := range node.Children {
			r.writeNode(b, child, depth+1)
		}
	}
}

func (r *Renderer) renderAttrs(node *tree.Node) string {
	if len(node.Attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(node.Attrs))
	for k := range node.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+node.Attrs[k])
	}
	return " " + r.attr.Render(strings.Join(parts, " "))
}
