package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqline/packages/core/config"
	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
	"github.com/abdul-hamid-achik/reqline/packages/history"
	"github.com/abdul-hamid-achik/reqline/packages/output"
)

// Flags shared by the commands that send requests
var (
	timeoutFlag      time.Duration
	proxyFlag        string
	insecureFlag     bool
	headerFlags      []string
	noFailStatusFlag bool
	historyFlag      string
)

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Request timeout (env: REQLINE_TIMEOUT)")
	cmd.Flags().StringVar(&proxyFlag, "proxy", "", "Proxy URL for HTTP requests (env: REQLINE_PROXY)")
	cmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", false, "Disable SSL certificate validation (env: REQLINE_INSECURE)")
	cmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "Default header sent with every request, as \"Name: value\"")
	cmd.Flags().BoolVar(&noFailStatusFlag, "no-fail-on-status", false, "Treat non-2xx responses as results instead of errors")
}

func addHistoryFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&historyFlag, "history", "", "SQLite database recording every execution (env: REQLINE_HISTORY)")
}

// loadConfig reads .env, the config file and the environment, then applies
// the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	fileConfig, err := config.Load(cwd, configFlag)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	overrides, err := flagOverrides(cmd)
	if err != nil {
		return nil, usageError(err)
	}

	cfg := fileConfig.Merge(overrides)
	if err := cfg.Validate(); err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return cfg, nil
}

func flagOverrides(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	overrides := &config.Config{}
	if changed("output") {
		overrides.Output = strings.ToLower(outputFlag)
	}
	if changed("no-color") {
		overrides.NoColor = config.BoolPtr(noColorFlag)
	}
	if changed("verbose") {
		overrides.Verbose = config.BoolPtr(verboseFlag)
	}
	if changed("timeout") {
		overrides.Timeout = int(timeoutFlag.Milliseconds())
	}
	if changed("proxy") {
		overrides.Proxy = proxyFlag
	}
	if changed("insecure") {
		overrides.ValidateSSL = config.BoolPtr(!insecureFlag)
	}
	if changed("no-fail-on-status") {
		overrides.FailOnStatus = config.BoolPtr(!noFailStatusFlag)
	}
	if changed("history") {
		overrides.History = historyFlag
	}
	if changed("bail") {
		overrides.Bail = config.BoolPtr(bailFlag)
	}
	if changed("parallel") {
		overrides.Parallel = config.BoolPtr(parallelFlag)
	}
	// bench has its own --concurrency, only run's feeds the config
	if changed("concurrency") && cmd.Name() == "run" {
		overrides.Concurrency = concurrencyFlag
	}
	if changed("header") {
		headers, err := parseHeaderFlags(headerFlags)
		if err != nil {
			return nil, err
		}
		overrides.Headers = headers
	}
	return overrides, nil
}

func parseHeaderFlags(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", v)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

func newFormatter(cmd *cobra.Command, cfg *config.Config) (output.Formatter, error) {
	f, err := output.New(cfg.Output, cmd.OutOrStdout(), cfg.GetNoColor(), cfg.GetVerbose())
	if err != nil {
		return nil, usageError(err)
	}
	return f, nil
}

// newLogger writes text logs to w, at debug level when verbose.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if !cfg.GetVerbose() {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func runnerConfig(cfg *config.Config) *runner.Config {
	return &runner.Config{
		Timeout:        cfg.TimeoutDuration(),
		FollowRedirect: cfg.GetFollowRedirects(),
		MaxRedirects:   cfg.MaxRedirects,
		ValidateSSL:    cfg.GetValidateSSL(),
		Proxy:          cfg.Proxy,
		Headers:        cfg.Headers,
		FailOnStatus:   cfg.GetFailOnStatus(),
		Bail:           cfg.GetBail(),
		Parallel:       cfg.GetParallel(),
		Concurrency:    cfg.Concurrency,
	}
}

// openHistory opens the configured history store. It returns nil when
// history is disabled.
func openHistory(cfg *config.Config) (*history.Store, error) {
	if cfg.History == "" {
		return nil, nil
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return store, nil
}

// newRunner builds the statement runner for cfg. The returned close func
// releases the history store, if any.
func newRunner(cfg *config.Config, logger *slog.Logger) (*runner.Runner, func(), error) {
	store, err := openHistory(cfg)
	if err != nil {
		return nil, nil, withExitCode(ExitConfigError, err)
	}

	opts := []runner.Option{runner.WithLogger(logger)}
	closeFn := func() {}
	if store != nil {
		opts = append(opts, runner.WithRecorder(store))
		closeFn = func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close history", "error", err)
			}
		}
	}

	return runner.NewRunner(runnerConfig(cfg), opts...), closeFn, nil
}
