// Package sandbox evaluates admin-authored widget source against a scope.
//
// Widget source is a restricted HCL dialect. The scope is the only binding
// surface: nothing outside it is reachable from evaluated code. Two modes
// exist, selected purely syntactically by the presence of the "render("
// substring. Expression mode evaluates the whole source as one expression
// yielding the render tree. Statement mode treats the source as an HCL body
// of local helper bindings evaluated top to bottom, one of which must call
// render(tree) to produce output.
//
// Evaluation failures are returned as *EvalError and never escape as panics;
// the boundary package decides how a failed widget is presented.
package sandbox
