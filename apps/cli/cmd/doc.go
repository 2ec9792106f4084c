// Package cmd implements the reqline CLI commands using Cobra.
//
// Available commands:
//   - run: Execute a statement, or every statement in a file
//   - parse: Print the request a statement describes without sending it
//   - validate: Check statements for syntax errors
//   - serve: Expose the parser and executor over HTTP
//   - bench: Send one statement repeatedly and report latency percentiles
//   - history: Inspect executions recorded in the history database
//   - import: Convert curl commands into statements
//   - init: Create a config file and example statements
//   - version: Show reqline version information
//
// Exit codes distinguish parse errors (2), configuration errors (3),
// execution errors (4) and usage errors (64) from other failures (1).
package cmd
