// Package cli defines the widgetlab command tree: serve for the admin
// console, preview for rendering one widget in the terminal, and widgets for
// the grouped listing. Configuration merges flags, WIDGETLAB_* environment
// variables and an optional widgetlab.yaml.
package cli
