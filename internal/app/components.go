package app

import (
	"context"

	"github.com/sagelabs/widgetlab/internal/resolve"
	"github.com/sagelabs/widgetlab/internal/scope"
	"github.com/sagelabs/widgetlab/internal/tree"
)

// registerNativeComponents installs the hand-written widgets. These are the
// bypass targets: widgets with free-text inputs lose focus if they are
// re-rendered from evaluated source, so they stay native.
func registerNativeComponents(r *resolve.Resolver) {
	r.Register("identity-builder", scope.Component{
		Name:   "IdentityBuilder",
		Render: renderIdentityBuilder,
	})
}

func renderIdentityBuilder(ctx context.Context, sc *scope.Scope) (*tree.Node, error) {
	name := "there"
	if member, ok := sc.Get("member"); ok && member.Kind() == scope.KindObject {
		if n, ok := member.Fields()["name"]; ok && n.Kind() == scope.KindString {
			name = n.Str()
		}
	}
	return tree.Element("card", map[string]string{"title": "Identity Builder"},
		tree.Element("prompt", nil, tree.Text("I am becoming someone who...")),
		tree.Element("input", map[string]string{
			"id":          "identity-statement",
			"placeholder": "Finish the sentence, " + name,
		}),
	), nil
}
