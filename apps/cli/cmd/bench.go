package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
	"github.com/abdul-hamid-achik/reqline/packages/stress"
)

var (
	benchRequestsFlag    int
	benchRateFlag        float64
	benchConcurrencyFlag int
	benchDurationFlag    time.Duration
	benchWarmupFlag      int
	benchThresholdFlag   string
	benchNoProgressFlag  bool
	benchJSONFlag        bool
)

var benchCmd = &cobra.Command{
	Use:   "bench <statement>",
	Short: "Send one statement repeatedly and report latency percentiles",
	Long: `Parse a statement once and send it repeatedly, then report throughput,
latency percentiles and status codes.

The run stops after --requests requests or when --duration elapses,
whichever comes first. Thresholds make the command exit with status 1
when they are not met.

Thresholds:
  p50<100ms, p90<150ms, p95<200ms, p99<500ms   Latency percentiles
  max<1s                                       Maximum latency
  errors<0.1%                                  Error rate
  rps>100                                      Minimum requests per second`,
	Example: `  reqline bench -n 500 -c 20 'HTTP GET | URL http://localhost:8080/health'
  reqline bench -d 30s -r 50 --threshold "p95<200ms,errors<1%" 'HTTP GET | URL http://localhost:8080'`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: benchCommand,
}

func init() {
	benchCmd.Flags().IntVarP(&benchRequestsFlag, "requests", "n", 100, "Total requests to send, 0 to run until --duration elapses")
	benchCmd.Flags().Float64VarP(&benchRateFlag, "rate", "r", 0, "Target requests per second, 0 for as fast as possible")
	benchCmd.Flags().IntVarP(&benchConcurrencyFlag, "concurrency", "c", 10, "Maximum concurrent requests")
	benchCmd.Flags().DurationVarP(&benchDurationFlag, "duration", "d", 0, "Stop after this long (e.g., 30s, 5m)")
	benchCmd.Flags().IntVar(&benchWarmupFlag, "warmup", 0, "Requests sent before measuring")
	benchCmd.Flags().StringVar(&benchThresholdFlag, "threshold", "", "Pass/fail thresholds (e.g., \"p95<200ms,errors<0.1%\")")
	benchCmd.Flags().BoolVar(&benchNoProgressFlag, "no-progress", false, "Disable real-time progress display")
	benchCmd.Flags().BoolVar(&benchJSONFlag, "json", false, "Output the summary as JSON")
	addRequestFlags(benchCmd)
}

func benchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	thresholds, err := stress.ParseThresholds(benchThresholdFlag)
	if err != nil {
		return usageError(fmt.Errorf("invalid threshold: %w", err))
	}
	benchConfig := &stress.Config{
		Requests:    benchRequestsFlag,
		Duration:    benchDurationFlag,
		Rate:        benchRateFlag,
		Concurrency: benchConcurrencyFlag,
		Warmup:      benchWarmupFlag,
		Thresholds:  thresholds,
	}
	if err := benchConfig.Validate(); err != nil {
		return usageError(err)
	}

	// JSON output replaces the live display
	reporter := stress.NewReporter(
		stress.WithWriter(cmd.OutOrStdout()),
		stress.WithNoColor(cfg.GetNoColor()),
		stress.WithNoProgress(benchNoProgressFlag || benchJSONFlag),
		stress.WithVerbose(cfg.GetVerbose()),
		stress.WithQuiet(benchJSONFlag),
	)

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	bench := stress.NewRunner(benchConfig,
		stress.WithExecutor(runner.NewClient(runnerConfig(cfg), logger)),
		stress.WithReporter(reporter),
		stress.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := bench.Run(ctx, args[0])
	if err != nil {
		formatter, ferr := newFormatter(cmd, cfg)
		if ferr != nil {
			return err
		}
		formatter.FormatError(err)
		return reported(err)
	}

	if benchJSONFlag {
		if err := reporter.JSONSummary(result.Summary, result.Thresholds); err != nil {
			return err
		}
	}

	if result.HasThresholdFailures() {
		return reported(withExitCode(ExitFailure, errors.New("thresholds not met")))
	}
	return nil
}
