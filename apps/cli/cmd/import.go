package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqline/packages/import/curl"
)

var (
	importFileFlag   string
	importOutputFlag string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Convert requests from other tools into statements",
}

var importCurlCmd = &cobra.Command{
	Use:   "curl [command]",
	Short: "Convert curl commands into statements",
	Long: `Convert a curl command, or a file of curl commands, into reqline
statements, one per line.

Only GET and POST requests with a JSON body (or none) can be converted.
Options without a statement equivalent, such as -k, are reported on stderr.`,
	Example: `  reqline import curl "curl -H 'Accept: application/json' https://api.example.com/users?page=2"
  reqline import curl --file requests.sh --out requests.reqline`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: importCurlCommand,
}

func init() {
	importCurlCmd.Flags().StringVarP(&importFileFlag, "file", "f", "", "File with curl commands")
	importCurlCmd.Flags().StringVar(&importOutputFlag, "out", "", "Write statements to this file instead of stdout")
	importCmd.AddCommand(importCurlCmd)
	rootCmd.AddCommand(importCmd)
}

func importCurlCommand(cmd *cobra.Command, args []string) error {
	var conversions []*curl.Conversion
	switch {
	case importFileFlag != "" && len(args) > 0:
		return usageError(errors.New("pass either a command or --file, not both"))
	case importFileFlag != "":
		f, err := os.Open(importFileFlag)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		conversions, err = curl.ConvertAll(f)
		if err != nil {
			return err
		}
	case len(args) == 1:
		conv, err := curl.Convert(args[0])
		if err != nil {
			return err
		}
		conversions = append(conversions, conv)
	default:
		return usageError(errors.New("a curl command or --file is required"))
	}

	out := cmd.OutOrStdout()
	if importOutputFlag != "" {
		f, err := os.Create(importOutputFlag)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	for _, conv := range conversions {
		for _, note := range conv.Notes {
			fmt.Fprintf(cmd.ErrOrStderr(), "note: %s\n", note)
		}
		fmt.Fprintln(out, conv.Statement)
	}

	if importOutputFlag != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d statements to %s\n", len(conversions), importOutputFlag)
	}
	return nil
}
