// Package resolve is the resolution engine: per mount, it decides whether a
// widget id renders nothing, a native component, evaluated source, or the
// caller's fallback tree.
//
// Precedence is fixed and total. A disabled record wins over everything.
// Bypass-allowlisted ids render their native component, the escape hatch for
// widgets that must not be re-rendered from source. Otherwise saved custom
// code beats the shipped template, except for force-templated ids where the
// template always wins. A caller fallback is used only when no source could
// be found at all.
package resolve
