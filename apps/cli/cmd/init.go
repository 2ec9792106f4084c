package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqline/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a reqline project",
	Long: `Initialize a reqline project in the current directory.

This creates:
  - .reqline.yaml     - Configuration file with the default settings
  - example.reqline   - Example statements, one per line`,
	Example: `  reqline init
  reqline init --force`,
	Args: usageArgs(cobra.NoArgs),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite existing files")
}

const exampleStatements = `HTTP GET | URL https://dummyjson.com/quotes/3 | QUERY {"refid": 1920933}
HTTP GET | URL https://dummyjson.com/products/search | QUERY {"q": "phone", "limit": 2}
HTTP POST | URL https://dummyjson.com/products/add | HEADERS {"Content-Type": "application/json"} | BODY {"title": "reqline"}
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, ".reqline.yaml")
	exampleFile := filepath.Join(cwd, "example.reqline")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitFailure, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{"User-Agent": "reqline/" + version}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleStatements), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nreqline project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'reqline run --file example.reqline' to execute the examples.\n")
	return nil
}
