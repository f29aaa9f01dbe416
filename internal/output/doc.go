// Package output renders cascade results for the CLI.
//
// The package is organized around four concerns:
//
//   - Reports (report.go): a serializable view of one run, with headings in
//     dependency order, pruned selections and the surviving records.
//
//   - Serialization (serializer.go): canonical YAML and JSON with nulls and
//     empty collections stripped.
//
//   - Text (text.go): a human-readable rendering with optional color.
//
//   - Writers (writer.go, registry.go): pluggable formats and destinations
//     via [Registry] and the [Writer] interface.
package output
