// Package editor implements the widget editor sessions behind the
// observability console.
//
// A session wraps the widget's scope in logging decorators: every capability
// call is recorded as call/return/error entries in an append-only log, with
// UI events and render trees sanitized to placeholders before logging.
// Asynchronous results are logged when they settle, from an independent
// continuation, without altering what the caller sees. The value viewer
// resolves the scope one level at a time so arbitrarily deep or cyclic data
// stays browsable.
package editor
