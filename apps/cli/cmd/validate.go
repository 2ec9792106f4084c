package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
)

var validateFileFlag string

var validateCmd = &cobra.Command{
	Use:   "validate [statement...]",
	Short: "Check statements for syntax errors without executing them",
	Long: `Check reqline statements for syntax errors without sending any request.

Statements are taken from the arguments, or from every non-blank line of
the file given with --file. The command exits with status 2 when any
statement is invalid.`,
	Example: `  reqline validate 'HTTP GET | URL https://example.com'
  reqline validate --file requests.reqline`,
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().StringVarP(&validateFileFlag, "file", "f", "", "File with one statement per line")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	var statements []runner.Statement
	switch {
	case validateFileFlag != "" && len(args) > 0:
		return usageError(errors.New("pass either statements or --file, not both"))
	case validateFileFlag != "":
		data, err := os.ReadFile(validateFileFlag)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		statements = runner.SplitStatements(string(data))
	case len(args) > 0:
		for _, arg := range args {
			statements = append(statements, runner.Statement{Text: arg})
		}
	default:
		return usageError(errors.New("at least one statement or --file is required"))
	}

	if len(statements) == 0 {
		return fmt.Errorf("no statements found in %s", validateFileFlag)
	}

	out := cmd.OutOrStdout()
	invalid := 0
	for _, stmt := range statements {
		where := stmt.Text
		if stmt.Line > 0 {
			where = fmt.Sprintf("line %d", stmt.Line)
		}

		if _, err := parser.Parse(stmt.Text); err != nil {
			invalid++
			var perr *parser.Error
			if errors.As(err, &perr) {
				fmt.Fprintf(out, "Invalid: %s: %s [%s]\n", where, perr.Message, perr.Code)
			} else {
				fmt.Fprintf(out, "Invalid: %s: %v\n", where, err)
			}
			continue
		}
		fmt.Fprintf(out, "Valid: %s\n", where)
	}

	if invalid > 0 {
		return reported(withExitCode(ExitParseError, fmt.Errorf("%d of %d statements are invalid", invalid, len(statements))))
	}
	return nil
}
