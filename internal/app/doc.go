// Package app wires the widget runtime together: document store, registry,
// catalog, resolver, native components and the console server, under one
// isolated logger and a single lifecycle.
package app
