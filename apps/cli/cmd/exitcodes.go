package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqline/packages/core/config"
	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	"github.com/abdul-hamid-achik/reqline/packages/http"
)

// Exit codes for reqline CLI
const (
	// ExitSuccess indicates every statement succeeded
	ExitSuccess = 0

	// ExitFailure indicates a failure not covered below, or a batch with failures
	ExitFailure = 1

	// ExitParseError indicates a statement was rejected by the parser
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitExecutionError indicates a network error or a non-success response
	ExitExecutionError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the exit code for err. Reported errors were already
// printed by a formatter.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func usageError(err error) error {
	return withExitCode(ExitUsageError, err)
}

// reported marks err as already shown to the user.
func reported(err error) error {
	return &exitError{code: exitCodeFor(err), err: err, reported: true}
}

func isReported(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.reported
}

func exitCodeFor(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee) && ee.code != 0:
		return ee.code
	case errors.Is(err, parser.ErrParse):
		return ExitParseError
	case errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	case errors.Is(err, http.ErrExecution):
		return ExitExecutionError
	default:
		return ExitFailure
	}
}

// usageArgs turns argument validation failures into usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
