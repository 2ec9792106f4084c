package stress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
	"github.com/abdul-hamid-achik/reqline/packages/http"
)

// Runner executes bench runs
type Runner struct {
	config    *Config
	executor  runner.Executor
	reporter  *Reporter
	logger    *slog.Logger
	scheduler *Scheduler
	metrics   *Metrics
}

// RunnerOption configures the runner
type RunnerOption func(*Runner)

// WithExecutor sets what sends the requests
func WithExecutor(executor runner.Executor) RunnerOption {
	return func(r *Runner) {
		r.executor = executor
	}
}

// WithReporter sets the reporter
func WithReporter(reporter *Reporter) RunnerOption {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new bench runner
func NewRunner(config *Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		config:    config,
		metrics:   NewMetrics(),
		scheduler: NewScheduler(config),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.executor == nil {
		r.executor = http.NewClient()
	}
	if r.reporter == nil {
		r.reporter = NewReporter()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	r.logger = r.logger.With("component", "stress")

	return r
}

// Run parses statement once and executes it until the request budget or the
// duration is spent. Parse errors are returned before any request is sent.
func (r *Runner) Run(ctx context.Context, statement string) (*Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	req, err := parser.Parse(statement)
	if err != nil {
		return nil, err
	}

	r.reporter.Header(statement, r.config)

	if r.config.Warmup > 0 {
		r.reporter.Info("Warming up with %d request(s)...", r.config.Warmup)
		for i := 0; i < r.config.Warmup; i++ {
			if _, err := r.executor.Execute(ctx, req); err != nil {
				r.logger.Debug("warmup request failed", "error", err)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
	}

	r.metrics.Start()

	runCtx := ctx
	if r.config.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.config.Duration)
		defer cancel()
	}

	progressDone := make(chan struct{})
	var progressWG sync.WaitGroup
	progressWG.Add(1)
	go func() {
		defer progressWG.Done()
		r.progressLoop(progressDone)
	}()

	r.loop(runCtx, req)

	r.metrics.Stop()
	close(progressDone)
	progressWG.Wait()
	r.reporter.ClearProgress()

	summary := r.metrics.GetSummary()
	var thresholdResults []ThresholdResult
	if r.config.Thresholds.HasThresholds() {
		thresholdResults = EvaluateThresholds(summary, r.config.Thresholds)
	}

	r.reporter.Summary(summary, thresholdResults)
	r.logger.Info("bench finished",
		"requests", summary.TotalRequests,
		"errors", summary.ErrorCount,
		"rps", summary.RPS)

	result := &Result{
		Statement:  statement,
		Request:    req,
		Summary:    summary,
		Thresholds: thresholdResults,
	}
	result.Passed = !result.HasThresholdFailures()
	return result, nil
}

func (r *Runner) loop(ctx context.Context, req *parser.Request) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		if ctx.Err() != nil {
			return
		}

		if _, ok := r.scheduler.Next(); !ok {
			return
		}

		if err := r.scheduler.Wait(ctx); err != nil {
			return
		}

		if err := r.scheduler.Acquire(ctx); err != nil {
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer r.scheduler.Release()
			r.execute(ctx, req)
		}()
	}
}

// execute sends one request and records its outcome
func (r *Runner) execute(ctx context.Context, req *parser.Request) {
	r.metrics.IncrementInFlight()
	defer r.metrics.DecrementInFlight()

	start := time.Now()
	env, err := r.executor.Execute(ctx, req)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			r.metrics.RecordTimeout()
			return
		}

		status := 0
		var execErr *http.ExecutionError
		if errors.As(err, &execErr) {
			status = execErr.StatusCode
		}
		r.metrics.Record(status, duration, err)
		return
	}

	r.metrics.Record(env.Response.HTTPStatus, duration, nil)
}

// progressLoop updates the progress display
func (r *Runner) progressLoop(done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.reporter.Progress(r.metrics.GetCurrentStats(), r.config)
		}
	}
}

// Result holds the final result of a bench run
type Result struct {
	Statement  string
	Request    *parser.Request
	Summary    *Summary
	Thresholds []ThresholdResult
	Passed     bool
}

// HasThresholdFailures returns true if any thresholds failed
func (r *Result) HasThresholdFailures() bool {
	for _, tr := range r.Thresholds {
		if !tr.Passed {
			return true
		}
	}
	return false
}
