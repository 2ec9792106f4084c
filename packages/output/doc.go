// Package output provides formatters for parsed statements, execution
// envelopes, batch results and history entries.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: The envelope exactly as the HTTP server returns it
//   - YAML: The same documents as JSON, with key order preserved
package output
