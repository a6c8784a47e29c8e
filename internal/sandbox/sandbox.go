package sandbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/sagelabs/widgetlab/internal/ctxlog"
	"github.com/sagelabs/widgetlab/internal/scope"
	"github.com/sagelabs/widgetlab/internal/tree"
	"github.com/zclconf/go-cty/cty"
)

// Mode is the evaluation mode of a piece of widget source.
type Mode int

const (
	// ModeExpression evaluates the entire source as a single expression
	// yielding the render tree.
	ModeExpression Mode = iota
	// ModeStatement lets the source bind local helpers and requires it to
	// produce output through an explicit render(...) call.
	ModeStatement
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeStatement {
		return "statement"
	}
	return "expression"
}

// DetectMode selects the evaluation mode. Selection is purely syntactic: any
// occurrence of the substring "render(" in the trimmed source means
// statement mode.
func DetectMode(src string) Mode {
	if strings.Contains(strings.TrimSpace(src), "render(") {
		return ModeStatement
	}
	return ModeExpression
}

// EvalError reports a widget source that failed to parse or evaluate. It is
// the only error kind Evaluate returns; the failure containment boundary
// owns what happens next.
type EvalError struct {
	Detail string
	Diags  hcl.Diagnostics
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if len(e.Diags) > 0 {
		return fmt.Sprintf("%s: %s", e.Detail, e.Diags.Error())
	}
	return e.Detail
}

// Evaluate runs trimmed widget source against the given scope and returns
// the resulting render tree. Failures never escape as panics; they come back
// as *EvalError.
func Evaluate(ctx context.Context, src string, sc *scope.Scope) (out *tree.Node, err error) {
	logger := ctxlog.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Widget evaluation panicked.", "panic", r)
			out, err = nil, &EvalError{Detail: fmt.Sprintf("evaluation panicked: %v", r)}
		}
	}()

	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, &EvalError{Detail: "empty widget source"}
	}

	mode := DetectMode(trimmed)
	logger.Debug("Evaluating widget source.", "mode", mode.String(), "bytes", len(trimmed))
	evalCtx := sc.EvalContext(ctx)

	if mode == ModeStatement {
		return evalStatements(trimmed, evalCtx)
	}

	expr, diags := hclsyntax.ParseExpression([]byte(trimmed), "widget.hcl", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, &EvalError{Detail: "parse widget expression", Diags: diags}
	}
	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, &EvalError{Detail: "evaluate widget expression", Diags: diags}
	}
	node, terr := toTree(v)
	if terr != nil {
		return nil, terr
	}
	return node, nil
}

// toTree converts an evaluation result into a render tree. Strings become
// text leaves and tuples become fragments, so simple sources stay simple.
func toTree(v cty.Value) (*tree.Node, *EvalError) {
	if v.IsNull() {
		return nil, &EvalError{Detail: "widget source produced no render tree"}
	}
	t := v.Type()
	switch {
	case t.Equals(scope.TreeCapsule):
		return v.EncapsulatedValue().(*tree.Node), nil
	case t == cty.String:
		return tree.Text(v.AsString()), nil
	case t.IsTupleType() || t.IsListType():
		var children []*tree.Node
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			child, err := toTree(ev)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return tree.Fragment(children...), nil
	default:
		return nil, &EvalError{Detail: fmt.Sprintf("widget source produced a %s, not a render tree", t.FriendlyName())}
	}
}
