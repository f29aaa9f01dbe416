// Package filter implements the predicate filters that run before the
// dependent-filter cascade: free-text search, per-field selections,
// instance counts, health status, and label selectors.
//
// The package is built around the [Filter] interface and [Chain] type, which
// allow composable, ordered filter application. Named presets are described
// by [Profile].
package filter
