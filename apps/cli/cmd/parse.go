package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
)

var parseCmd = &cobra.Command{
	Use:   "parse <statement>",
	Short: "Parse a statement and print the request without sending it",
	Example: `  reqline parse 'HTTP POST | URL https://example.com/items | BODY {"name": "pen"}'
  reqline parse -o json 'HTTP GET | URL https://example.com | QUERY {"q": "a b"}'`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: parseCommand,
}

func parseCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}

	req, err := parser.Parse(args[0])
	if err != nil {
		formatter.FormatError(err)
		return reported(err)
	}
	formatter.FormatRequest(req)
	return nil
}
