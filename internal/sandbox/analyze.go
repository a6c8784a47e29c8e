package sandbox

import (
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Analysis lists the scope bindings a piece of widget source reaches for:
// referenced variable roots and called functions, each sorted and unique.
// The editor surfaces this so an admin can see which capabilities a widget
// actually touches before saving it.
type Analysis struct {
	Variables []string
	Functions []string
}

// Analyze parses the source in its detected mode and extracts the referenced
// bindings. Parse failures return an *EvalError, same as evaluation.
func Analyze(src string) (Analysis, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return Analysis{}, &EvalError{Detail: "empty widget source"}
	}

	var exprs []hclsyntax.Expression
	if DetectMode(trimmed) == ModeStatement {
		file, diags := hclsyntax.ParseConfig([]byte(trimmed), "widget.hcl", hcl.InitialPos)
		if diags.HasErrors() {
			return Analysis{}, &EvalError{Detail: "parse widget statements", Diags: diags}
		}
		body := file.Body.(*hclsyntax.Body)
		for _, attr := range sourceOrder(body.Attributes) {
			exprs = append(exprs, attr.Expr)
		}
	} else {
		expr, diags := hclsyntax.ParseExpression([]byte(trimmed), "widget.hcl", hcl.InitialPos)
		if diags.HasErrors() {
			return Analysis{}, &EvalError{Detail: "parse widget expression", Diags: diags}
		}
		exprs = append(exprs, expr)
	}

	vars := make(map[string]struct{})
	funcs := make(map[string]struct{})
	for _, expr := range exprs {
		for _, traversal := range expr.Variables() {
			vars[traversal.RootName()] = struct{}{}
		}
		hclsyntax.Walk(expr, &functionCollector{found: funcs})
	}

	return Analysis{Variables: sortedKeys(vars), Functions: sortedKeys(funcs)}, nil
}

// functionCollector walks a syntax tree picking up function call names,
// which Expression.Variables does not report.
type functionCollector struct {
	found map[string]struct{}
}

func (c *functionCollector) Enter(node hclsyntax.Node) hcl.Diagnostics {
	if call, ok := node.(*hclsyntax.FunctionCallExpr); ok {
		c.found[call.Name] = struct{}{}
	}
	return nil
}

func (c *functionCollector) Exit(node hclsyntax.Node) hcl.Diagnostics {
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
