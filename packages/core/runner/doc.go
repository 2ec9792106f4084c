// Package runner parses and executes reqline statements.
//
// It provides functionality for:
//   - Running a single statement
//   - Running statement files, one statement per line
//   - Parallel execution with configurable concurrency
//   - Recording every attempt to an execution history
//
// Parse errors and execution errors are both reported on the Result; use
// errors.Is with parser.ErrParse or http.ErrExecution to tell them apart.
package runner
