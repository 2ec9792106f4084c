package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqline/packages/core/config"
	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
	"github.com/abdul-hamid-achik/reqline/packages/output"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	fileFlag        string
	watchFlag       bool
	bailFlag        bool
	parallelFlag    bool
	concurrencyFlag int
)

var runCmd = &cobra.Command{
	Use:   "run [statement]",
	Short: "Parse and execute a statement, or every statement in a file",
	Long: `Parse a reqline statement, send the request and print the response.

With --file every non-blank line of the file is executed as its own
statement and a summary is printed at the end.`,
	Example: `  reqline run 'HTTP GET | URL https://dummyjson.com/quotes/3 | QUERY {"refid": 1920933}'
  reqline run --file requests.reqline --parallel
  reqline run -f requests.reqline --watch`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: runStatement,
}

func init() {
	runCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "File with one statement per line")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the file for changes and re-run it")
	runCmd.Flags().BoolVar(&bailFlag, "bail", false, "Stop at the first failing statement")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", false, "Execute file statements concurrently")
	runCmd.Flags().IntVarP(&concurrencyFlag, "concurrency", "c", 5, "Maximum concurrent statements with --parallel")
	addRequestFlags(runCmd)
	addHistoryFlag(runCmd)
}

func runStatement(cmd *cobra.Command, args []string) error {
	switch {
	case fileFlag == "" && len(args) == 0:
		return usageError(errors.New("a statement or --file is required"))
	case fileFlag != "" && len(args) > 0:
		return usageError(errors.New("pass either a statement or --file, not both"))
	case watchFlag && fileFlag == "":
		return usageError(errors.New("--watch requires --file"))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}
	r, closeHistory, err := newRunner(cfg, newLogger(cmd.ErrOrStderr(), cfg))
	if err != nil {
		return err
	}
	defer closeHistory()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if fileFlag == "" {
		result, err := r.Run(ctx, args[0])
		if err != nil {
			formatter.FormatError(err)
			return reported(err)
		}
		if cfg.GetVerbose() {
			formatter.FormatRequest(result.Request)
		}
		formatter.FormatEnvelope(result.Envelope)
		return nil
	}

	runErr := runFile(ctx, r, formatter, fileFlag)
	if !watchFlag {
		return runErr
	}
	return watchFile(ctx, cmd, cfg, r, fileFlag)
}

func runFile(ctx context.Context, r *runner.Runner, formatter output.Formatter, path string) error {
	result, err := r.RunFile(ctx, path)
	if err != nil {
		formatter.FormatError(err)
		return reported(err)
	}
	formatter.FormatResult(result)

	if result.Failed > 0 {
		return reported(fmt.Errorf("%d of %d statements failed", result.Failed, len(result.Results)))
	}
	return nil
}

// watchFile re-runs path whenever it is written until ctx is cancelled.
// Editors that replace the file on save are handled by watching its directory.
func watchFile(ctx context.Context, cmd *cobra.Command, cfg *config.Config, r *runner.Runner, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	// Runs are serialized so output from two saves never interleaves
	var mu sync.Mutex
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != target || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				mu.Lock()
				defer mu.Unlock()
				if ctx.Err() != nil {
					return
				}

				fmt.Fprintf(out, "\nFile changed: %s\nRe-running statements...\n", path)
				formatter, err := output.New(cfg.Output, out, cfg.GetNoColor(), cfg.GetVerbose())
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					return
				}
				_ = runFile(ctx, r, formatter, path)
				fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}
