package sandbox

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/sagelabs/widgetlab/internal/tree"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// evalStatements runs statement-mode source: an HCL body whose attributes
// are local helper bindings, evaluated in source order, one of which must
// call render(...) to produce the widget's output.
func evalStatements(src string, evalCtx *hcl.EvalContext) (*tree.Node, error) {
	file, diags := hclsyntax.ParseConfig([]byte(src), "widget.hcl", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, &EvalError{Detail: "parse widget statements", Diags: diags}
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, &EvalError{Detail: "unexpected widget source body"}
	}
	if len(body.Blocks) > 0 {
		return nil, &EvalError{Detail: "blocks are not allowed in widget source"}
	}

	var captured *tree.Node
	child := evalCtx.NewChild()
	child.Variables = make(map[string]cty.Value, len(body.Attributes))
	child.Functions = map[string]function.Function{
		"render": renderCapture(&captured),
	}

	for _, attr := range sourceOrder(body.Attributes) {
		v, diags := attr.Expr.Value(child)
		if diags.HasErrors() {
			return nil, &EvalError{Detail: "evaluate binding " + attr.Name, Diags: diags}
		}
		child.Variables[attr.Name] = v
	}

	if captured == nil {
		return nil, &EvalError{Detail: "statement-mode source never called render(...)"}
	}
	return captured, nil
}

// renderCapture builds the render(tree) function. It records its argument as
// the widget output and passes the value through, so the binding it appears
// in stays usable.
func renderCapture(out **tree.Node) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{
			Name:             "tree",
			Type:             cty.DynamicPseudoType,
			AllowDynamicType: true,
		}},
		Type: func(args []cty.Value) (cty.Type, error) {
			return args[0].Type(), nil
		},
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			node, err := toTree(args[0])
			if err != nil {
				return cty.NilVal, err
			}
			*out = node
			return args[0], nil
		},
	})
}

// sourceOrder returns body attributes ordered by their position in the
// source text. HCL hands them back as a map, but statement mode promises
// top-to-bottom binding.
func sourceOrder(attrs hclsyntax.Attributes) []*hclsyntax.Attribute {
	out := make([]*hclsyntax.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SrcRange.Start.Byte < out[j].SrcRange.Start.Byte
	})
	return out
}
