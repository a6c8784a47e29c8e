// Package scope assembles the capability object exposed to evaluated widget
// source and defines the tagged value model that crosses the evaluation
// boundary.
//
// The Scope is the complete capability surface: widget source has no ambient
// access to the host process, filesystem, or network. A Builder merges a
// fixed base (render-tree constructors, a curated icon subset, shared design
// tokens) with caller-supplied, screen-specific data values and callbacks,
// and exposes the merged object under a "scope" key for introspection.
//
// Every value is a tagged variant (Value) so the editor's call logger,
// sanitizer, and value viewer switch on an explicit Kind instead of duck
// typing. The package also owns the bridge into HCL: EvalContext converts a
// scope into the hcl.EvalContext the sandbox evaluates against, with render
// trees and native components riding in cty capsule types.
package scope
