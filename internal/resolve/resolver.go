package resolve

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sagelabs/widgetlab/internal/catalog"
	"github.com/sagelabs/widgetlab/internal/ctxlog"
	"github.com/sagelabs/widgetlab/internal/registry"
	"github.com/sagelabs/widgetlab/internal/sandbox"
	"github.com/sagelabs/widgetlab/internal/scope"
	"github.com/sagelabs/widgetlab/internal/tree"
)

// Mount is one widget slot on a page: the id to resolve, an optional caller
// fallback tree, and screen-specific scope entries.
type Mount struct {
	WidgetID string
	Fallback *tree.Node
	Extra    map[string]scope.Value
}

// Kind tags what a resolution decided to render.
type Kind int

const (
	// KindNothing renders nothing at all (disabled or no content).
	KindNothing Kind = iota
	// KindNative renders a registered native component.
	KindNative
	// KindSource evaluates widget source in the sandbox.
	KindSource
	// KindFallback renders the caller-provided fallback tree.
	KindFallback
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindSource:
		return "source"
	case KindFallback:
		return "fallback"
	default:
		return "nothing"
	}
}

// Resolution is the decision for one mount, before any rendering happens.
type Resolution struct {
	WidgetID  string
	Kind      Kind
	Component scope.Component
	Source    string
	Fallback  *tree.Node
	Scope     *scope.Scope
}

// Options configures a resolver's allowlists.
type Options struct {
	// Bypass ids skip dynamic resolution entirely and always render their
	// native component. The escape hatch for widgets that must never be
	// re-rendered from source (focus-sensitive inputs and the like).
	Bypass []string
	// ForceTemplate ids ignore saved custom code and always use the shipped
	// template.
	ForceTemplate []string
	// ShowRawErrors includes raw error text in fallback panels.
	ShowRawErrors bool
}

// Resolver decides, per mount, what actually renders for a widget id.
type Resolver struct {
	registry *registry.Registry
	builder  *scope.Builder
	cat      atomic.Pointer[catalog.Catalog]

	components    map[string]scope.Component
	bypass        map[string]bool
	forceTemplate map[string]bool
	showRawErrors bool
}

// New creates a resolver over the registry and an initial catalog.
func New(reg *registry.Registry, builder *scope.Builder, cat *catalog.Catalog, opts Options) *Resolver {
	r := &Resolver{
		registry:      reg,
		builder:       builder,
		components:    make(map[string]scope.Component),
		bypass:        make(map[string]bool, len(opts.Bypass)),
		forceTemplate: make(map[string]bool, len(opts.ForceTemplate)),
		showRawErrors: opts.ShowRawErrors,
	}
	if cat == nil {
		cat = catalog.Empty()
	}
	r.cat.Store(cat)
	for _, id := range opts.Bypass {
		r.bypass[id] = true
	}
	for _, id := range opts.ForceTemplate {
		r.forceTemplate[id] = true
	}
	return r
}

// Register installs a native component for a widget id. Components are
// registered once at startup; a duplicate registration is a programmer error.
func (r *Resolver) Register(id string, component scope.Component) {
	if _, dup := r.components[id]; dup {
		panic(fmt.Sprintf("resolve: native component %q registered twice", id))
	}
	r.components[id] = component
}

// SetCatalog swaps in a reloaded catalog. Safe against concurrent Resolve.
func (r *Resolver) SetCatalog(cat *catalog.Catalog) {
	if cat == nil {
		cat = catalog.Empty()
	}
	r.cat.Store(cat)
}

// Catalog returns the current catalog.
func (r *Resolver) Catalog() *catalog.Catalog {
	return r.cat.Load()
}

// Resolve decides what a mount renders. The precedence is fixed: disabled
// wins over everything, the bypass allowlist over dynamic code, saved custom
// code over the template unless the id is force-templated, and the caller
// fallback is last before rendering nothing.
func (r *Resolver) Resolve(ctx context.Context, mount Mount) Resolution {
	id := mount.WidgetID
	res := Resolution{WidgetID: id, Kind: KindNothing}

	if !r.registry.IsEnabled(id) {
		return res
	}

	res.Scope = r.builder.Build(mount.Extra)

	if r.bypass[id] {
		if component, ok := r.components[id]; ok {
			res.Kind = KindNative
			res.Component = component
			return res
		}
		ctxlog.FromContext(ctx).Warn("Bypass widget has no native component, resolving dynamically", "widget_id", id)
	}

	res.Source = r.candidateSource(id)
	if res.Source != "" {
		res.Kind = KindSource
		return res
	}

	if mount.Fallback != nil {
		res.Kind = KindFallback
		res.Fallback = mount.Fallback
		return res
	}

	// No code, no fallback. A shipped template that exists but is empty still
	// goes through the sandbox so its failure panel surfaces instead of a
	// silent blank.
	if _, ok := r.cat.Load().Template(id); ok {
		res.Kind = KindSource
	}
	return res
}

// candidateSource picks the source to evaluate: saved custom code when
// present, the shipped template otherwise, and the template unconditionally
// for force-templated ids.
func (r *Resolver) candidateSource(id string) string {
	template := ""
	if tpl, ok := r.cat.Load().Template(id); ok {
		template = tpl.Source
	}
	if r.forceTemplate[id] {
		return template
	}
	if rec, ok := r.registry.Record(id); ok && rec.Code != "" {
		return rec.Code
	}
	return template
}

// Render executes a resolution to a final tree. A nil tree with nil error
// means the widget renders nothing.
func (r *Resolver) Render(ctx context.Context, mount Mount) (*tree.Node, error) {
	res := r.Resolve(ctx, mount)
	switch res.Kind {
	case KindNative:
		return res.Component.Render(ctx, res.Scope)
	case KindSource:
		return sandbox.Evaluate(ctx, res.Source, res.Scope)
	case KindFallback:
		return res.Fallback, nil
	default:
		return nil, nil
	}
}

// ShowRawErrors reports whether fallback panels include raw error text.
func (r *Resolver) ShowRawErrors() bool { return r.showRawErrors }

// Seed is the editor-open contract: everything a session needs, computed
// without touching live rendering.
type Seed struct {
	WidgetID    string
	DisplayName string
	// Source is what the editor buffer opens with; may be empty when the id
	// has neither saved code nor a template.
	Source string
	// Template is the reset target, empty when the catalog ships none.
	Template string
	Scope    *scope.Scope
}

// EditSeed builds the contract for opening the editor on a mount.
func (r *Resolver) EditSeed(mount Mount) Seed {
	id := mount.WidgetID
	seed := Seed{
		WidgetID: id,
		Source:   r.candidateSource(id),
		Scope:    r.builder.Build(mount.Extra),
	}
	if tpl, ok := r.cat.Load().Template(id); ok {
		seed.Template = tpl.Source
	}

	seed.DisplayName = id
	if w, ok := r.cat.Load().Widget(id); ok && w.Name != "" {
		seed.DisplayName = w.Name
	}
	if rec, ok := r.registry.Record(id); ok && rec.Name != "" {
		seed.DisplayName = rec.Name
	}
	return seed
}
