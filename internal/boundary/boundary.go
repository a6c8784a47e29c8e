// Package boundary provides per-widget failure containment.
//
// A Boundary supervises one widget subtree. Render attempts come back as a
// tagged Outcome, either Ok(tree) or Err(error), and no failure, including a
// panic, ever crosses the boundary to siblings or the hosting page. A failed
// boundary stays failed (showing its fallback panel) until Retry resets it,
// which may immediately fail again if the cause persists.
package boundary

import (
	"fmt"
	"sync"

	"github.com/sagelabs/widgetlab/internal/tree"
)

// State is the boundary's health.
type State int

const (
	// Healthy means render attempts are allowed.
	Healthy State = iota
	// Failed means the last attempt failed and the fallback panel is shown.
	Failed
)

// Outcome is the tagged result of a render attempt.
type Outcome struct {
	Tree *tree.Node
	Err  error
}

// OK reports whether the attempt produced a tree.
func (o Outcome) OK() bool { return o.Err == nil }

// Boundary is the supervisor for a single widget subtree.
type Boundary struct {
	mu    sync.Mutex
	state State
	err   error
}

// New returns a healthy boundary.
func New() *Boundary {
	return &Boundary{}
}

// Render runs the attempt if the boundary is healthy. A failed boundary
// short-circuits with its recorded error until Retry.
func (b *Boundary) Render(attempt func() (*tree.Node, error)) Outcome {
	b.mu.Lock()
	if b.state == Failed {
		err := b.err
		b.mu.Unlock()
		return Outcome{Err: err}
	}
	b.mu.Unlock()

	out := Protect(attempt)
	if !out.OK() {
		b.mu.Lock()
		b.state = Failed
		b.err = out.Err
		b.mu.Unlock()
	}
	return out
}

// Retry resets the boundary to healthy. The next Render attempt runs again.
func (b *Boundary) Retry() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Healthy
	b.err = nil
}

// State returns the current health.
func (b *Boundary) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the recorded failure, if any.
func (b *Boundary) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Protect runs a single render attempt, converting panics into Err outcomes.
func Protect(attempt func() (*tree.Node, error)) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("widget render panicked: %v", r)}
		}
	}()
	node, err := attempt()
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Tree: node}
}

// FallbackPanel builds the inline error panel shown in place of a failed
// widget. showRaw includes the raw error text.
func FallbackPanel(widgetID string, err error, showRaw bool) *tree.Node {
	children := []*tree.Node{
		tree.Element("title", nil, tree.Text("Widget failed to render")),
		tree.Element("hint", nil, tree.Text("The rest of the page is unaffected. Retry after fixing the widget source.")),
	}
	if showRaw && err != nil {
		children = append(children, tree.Element("detail", nil, tree.Text(err.Error())))
	}
	children = append(children, tree.Element("retry", map[string]string{"action": "retry", "widget": widgetID}, tree.Text("Retry")))
	return tree.Element("error-panel", map[string]string{"widget": widgetID, "tone": "error"}, children...)
}
