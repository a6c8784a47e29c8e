// Package catalog loads the shipped widget catalog from a directory of HCL
// files.
//
// Two block kinds exist: "widget" declares the metadata the console shows
// for a shipped widget, and "template" ships its default source. A widget's
// template shares its id. Declaration order across lexicographically sorted
// files is the canonical enumeration order used to break ordering ties in
// listings.
package catalog
