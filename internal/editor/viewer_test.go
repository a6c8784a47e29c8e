package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagelabs/widgetlab/internal/scope"
	"github.com/sagelabs/widgetlab/internal/tree"
)

func viewerScope() *scope.Scope {
	return scope.FromEntries(map[string]scope.Value{
		"member": scope.ObjectVal(map[string]scope.Value{
			"name":   scope.StringVal("Ada"),
			"streak": scope.NumberVal(7),
			"badges": scope.ListVal([]scope.Value{
				scope.StringVal("starter"),
				scope.StringVal("builder"),
			}),
		}),
		"fetch":   scope.FuncVal(scope.NewFunc("fetch", func(ctx context.Context, args []scope.Value) (scope.Value, error) { return scope.NullVal(), nil })),
		"banner":  scope.TreeVal(tree.Text("hello")),
		"nothing": scope.NullVal(),
	})
}

func TestDescribeRootListsEntriesCollapsed(t *testing.T) {
	node, err := Describe(viewerScope(), nil)
	require.NoError(t, err)

	assert.Equal(t, "object", node.Kind)
	assert.Equal(t, 4, node.ChildCount)
	require.Len(t, node.Children, 4)

	byName := make(map[string]ViewNode)
	for _, child := range node.Children {
		byName[child.Name] = child
		// One level only: children arrive collapsed.
		assert.Nil(t, child.Children)
	}

	assert.Equal(t, "ƒ fetch", byName["fetch"].Label)
	assert.Equal(t, PlaceholderElement, byName["banner"].Label)
	assert.Equal(t, "null", byName["nothing"].Label)
	assert.Equal(t, "object(3)", byName["member"].Label)
	assert.True(t, byName["member"].Expandable)
}

func TestDescribeResolvesNestedPath(t *testing.T) {
	node, err := Describe(viewerScope(), []string{"member", "badges"})
	require.NoError(t, err)

	assert.Equal(t, "list", node.Kind)
	assert.Equal(t, []string{"member", "badges"}, node.Path)
	require.Len(t, node.Children, 2)
	assert.Equal(t, `"starter"`, node.Children[0].Label)
	assert.Equal(t, []string{"member", "badges", "0"}, node.Children[0].Path)

	leaf, err := Describe(viewerScope(), []string{"member", "badges", "1"})
	require.NoError(t, err)
	assert.Equal(t, `"builder"`, leaf.Label)
	assert.Empty(t, leaf.Children)
}

func TestDescribeRejectsBadPaths(t *testing.T) {
	_, err := Describe(viewerScope(), []string{"member", "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no field "missing"`)

	_, err = Describe(viewerScope(), []string{"member", "name", "deeper"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not expandable")

	_, err = Describe(viewerScope(), []string{"member", "badges", "9"})
	require.Error(t, err)
}

func TestDescribeToleratesCyclicObjects(t *testing.T) {
	inner := map[string]scope.Value{"label": scope.StringVal("loop")}
	cyclic := scope.ObjectVal(inner)
	inner["self"] = cyclic

	sc := scope.FromEntries(map[string]scope.Value{"cycle": cyclic})

	// Expansion is one level at a time, so a cycle just keeps expanding.
	node, err := Describe(sc, []string{"cycle", "self", "self", "self"})
	require.NoError(t, err)
	assert.Equal(t, "object", node.Kind)
	assert.Equal(t, 2, node.ChildCount)
}
