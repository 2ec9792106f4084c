package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqline/packages/core/config"
	"github.com/abdul-hamid-achik/reqline/packages/history"
	"github.com/abdul-hamid-achik/reqline/packages/http"
)

var historyLimitFlag int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List executions recorded in the history database",
	Long: `List the most recent executions recorded in the history database.

History is enabled with --history on run and serve, the history key of
the config file, or REQLINE_HISTORY.`,
	Example: `  reqline history --history reqline.db
  reqline history show 3f2a9c1e-...
  reqline history clear`,
	Args: usageArgs(cobra.NoArgs),
	RunE: historyListCommand,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded execution with its envelope",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE:  historyShowCommand,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every recorded execution",
	Args:  usageArgs(cobra.NoArgs),
	RunE:  historyClearCommand,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyFlag, "history", "", "SQLite database recording every execution (env: REQLINE_HISTORY)")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Number of entries to list, 0 for all")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func openHistoryFromFlags(cmd *cobra.Command) (*config.Config, *history.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.History == "" {
		return nil, nil, withExitCode(ExitConfigError, errors.New("history is not configured, pass --history or set REQLINE_HISTORY"))
	}
	store, err := openHistory(cfg)
	if err != nil {
		return nil, nil, withExitCode(ExitConfigError, err)
	}
	return cfg, store, nil
}

func historyListCommand(cmd *cobra.Command, args []string) error {
	if historyLimitFlag < 0 {
		return usageError(errors.New("--limit must not be negative"))
	}

	cfg, store, err := openHistoryFromFlags(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}

	entries, err := store.List(cmd.Context(), historyLimitFlag)
	if err != nil {
		return err
	}
	formatter.FormatHistory(entries)
	return nil
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	cfg, store, err := openHistoryFromFlags(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}

	entry, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		formatter.FormatError(err)
		return reported(err)
	}

	if cfg.Output != "console" || entry.Envelope == "" {
		formatter.FormatHistory([]history.Entry{entry})
		return nil
	}

	var env http.Envelope
	if err := json.Unmarshal([]byte(entry.Envelope), &env); err != nil {
		return fmt.Errorf("decoding envelope of %s: %w", entry.ID, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", entry.Statement)
	formatter.FormatEnvelope(&env)
	return nil
}

func historyClearCommand(cmd *cobra.Command, args []string) error {
	_, store, err := openHistoryFromFlags(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Clear(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", n)
	return nil
}
