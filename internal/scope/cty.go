package scope

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/sagelabs/widgetlab/internal/tree"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// TreeCapsule carries *tree.Node values through cty evaluation opaquely.
var TreeCapsule = cty.Capsule("tree", reflect.TypeOf(tree.Node{}))

// ComponentCapsule carries Component values through cty evaluation opaquely.
var ComponentCapsule = cty.Capsule("component", reflect.TypeOf(Component{}))

// EvalContext converts the scope into the HCL evaluation context the sandbox
// evaluates widget source against. Scope functions become cty functions; all
// other entries become variables.
func (s *Scope) EvalContext(ctx context.Context) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(s.vals))
	funcs := make(map[string]function.Function, 4)
	for name, v := range s.vals {
		if v.Kind() == KindFunc {
			funcs[name] = ctyFunction(ctx, v.Func())
			continue
		}
		vars[name] = toCty(v)
	}
	return &hcl.EvalContext{Variables: vars, Functions: funcs}
}

// ctyFunction adapts a scope capability to a variadic cty function. The
// context is captured at scope-conversion time; widget evaluation is
// synchronous within it.
func ctyFunction(ctx context.Context, f Func) function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{
			Name:             "args",
			Type:             cty.DynamicPseudoType,
			AllowNull:        true,
			AllowDynamicType: true,
		},
		Type: func(args []cty.Value) (cty.Type, error) {
			return cty.DynamicPseudoType, nil
		},
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			converted := make([]Value, len(args))
			for i, a := range args {
				v, err := FromCty(a)
				if err != nil {
					return cty.NilVal, fmt.Errorf("%s: argument %d: %w", f.Name(), i, err)
				}
				converted[i] = v
			}
			out, err := f.Call(ctx, converted)
			if err != nil {
				return cty.NilVal, err
			}
			return toCty(out), nil
		},
	})
}

// toCty converts a tagged value to its cty representation. Lists become
// tuples so heterogeneous children are legal; trees and components ride in
// capsules.
func toCty(v Value) cty.Value {
	switch v.Kind() {
	case KindNull:
		return cty.NullVal(cty.DynamicPseudoType)
	case KindBool:
		return cty.BoolVal(v.Bool())
	case KindNumber:
		return cty.NumberFloatVal(v.Number())
	case KindString:
		return cty.StringVal(v.Str())
	case KindList:
		elems := v.Elements()
		if len(elems) == 0 {
			return cty.EmptyTupleVal
		}
		out := make([]cty.Value, len(elems))
		for i, e := range elems {
			out[i] = toCty(e)
		}
		return cty.TupleVal(out)
	case KindObject:
		fields := v.Fields()
		if len(fields) == 0 {
			return cty.EmptyObjectVal
		}
		out := make(map[string]cty.Value, len(fields))
		for name, f := range fields {
			out[name] = toCty(f)
		}
		return cty.ObjectVal(out)
	case KindFunc:
		// Functions reach evaluation through the Functions table; a function
		// nested inside data degrades to its marker string.
		return cty.StringVal("fn:" + v.Func().Name())
	case KindComponent:
		comp := v.Component()
		return cty.CapsuleVal(ComponentCapsule, &comp)
	case KindTree:
		return cty.CapsuleVal(TreeCapsule, v.Tree())
	case KindEvent:
		ev := v.Event()
		return cty.ObjectVal(map[string]cty.Value{
			"name":   cty.StringVal(ev.Name),
			"target": cty.StringVal(ev.Target),
		})
	case KindDeferred:
		return cty.StringVal("deferred")
	default:
		return cty.NullVal(cty.DynamicPseudoType)
	}
}

// FromCty converts an evaluation result back into a tagged value.
func FromCty(cv cty.Value) (Value, error) {
	if cv == cty.NilVal || cv.IsNull() {
		return NullVal(), nil
	}
	if !cv.IsKnown() {
		return NullVal(), fmt.Errorf("unknown value")
	}
	t := cv.Type()
	switch {
	case t.Equals(TreeCapsule):
		return TreeVal(cv.EncapsulatedValue().(*tree.Node)), nil
	case t.Equals(ComponentCapsule):
		return ComponentVal(*cv.EncapsulatedValue().(*Component)), nil
	case t == cty.Bool:
		return BoolVal(cv.True()), nil
	case t == cty.Number:
		f, _ := cv.AsBigFloat().Float64()
		return NumberVal(f), nil
	case t == cty.String:
		return StringVal(cv.AsString()), nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		var elems []Value
		for it := cv.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			v, err := FromCty(ev)
			if err != nil {
				return NullVal(), err
			}
			elems = append(elems, v)
		}
		return ListVal(elems), nil
	case t.IsObjectType() || t.IsMapType():
		fields := make(map[string]Value)
		for name, fv := range cv.AsValueMap() {
			v, err := FromCty(fv)
			if err != nil {
				return NullVal(), fmt.Errorf("field %q: %w", name, err)
			}
			fields[name] = v
		}
		return ObjectVal(fields), nil
	default:
		return NullVal(), fmt.Errorf("unsupported value type %s", t.FriendlyName())
	}
}

// SortedFieldNames returns the sorted field names of an object value, or nil
// for other variants. Used by the value viewer for stable child ordering.
func SortedFieldNames(v Value) []string {
	if v.Kind() != KindObject {
		return nil
	}
	names := make([]string, 0, len(v.Fields()))
	for name := range v.Fields() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
