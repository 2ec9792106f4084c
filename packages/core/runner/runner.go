package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	"github.com/abdul-hamid-achik/reqline/packages/history"
	"github.com/abdul-hamid-achik/reqline/packages/http"
)

const (
	// DefaultConcurrency is the default number of concurrent requests in parallel mode
	DefaultConcurrency = 5
)

// Executor performs the HTTP exchange for a parsed request.
type Executor interface {
	Execute(ctx context.Context, req *parser.Request) (*http.Envelope, error)
}

// Recorder stores execution attempts.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

type Runner struct {
	executor Executor
	recorder Recorder
	logger   *slog.Logger
	config   *Config
	now      func() time.Time
}

type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
	MaxRedirects   int
	ValidateSSL    bool
	Proxy          string
	Headers        map[string]string
	FailOnStatus   bool
	Bail           bool
	Parallel       bool
	Concurrency    int
}

// DefaultConfig returns the configuration used when NewRunner is given nil.
func DefaultConfig() *Config {
	return &Config{
		Timeout:        http.DefaultTimeout,
		FollowRedirect: true,
		MaxRedirects:   http.DefaultMaxRedirects,
		ValidateSSL:    true,
		FailOnStatus:   true,
		Concurrency:    DefaultConcurrency,
	}
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor replaces the HTTP client built from the config.
func WithExecutor(e Executor) Option {
	return func(r *Runner) {
		r.executor = e
	}
}

// WithRecorder records every attempt, successful or not.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	r := &Runner{
		config: cfg,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.executor == nil {
		r.executor = NewClient(cfg, r.logger)
	}

	return r
}

// NewClient returns the HTTP client a Runner uses for cfg when no executor
// is supplied.
func NewClient(cfg *Config, logger *slog.Logger) *http.Client {
	clientOpts := []http.ClientOption{
		http.WithFollowRedirects(cfg.FollowRedirect),
		http.WithValidateSSL(cfg.ValidateSSL),
		http.WithFailOnStatus(cfg.FailOnStatus),
	}
	if logger != nil {
		clientOpts = append(clientOpts, http.WithLogger(logger))
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxRedirects > 0 {
		clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
	}
	if len(cfg.Headers) > 0 {
		clientOpts = append(clientOpts, http.WithDefaultHeaders(cfg.Headers))
	}
	return http.NewClient(clientOpts...)
}

// Result is the outcome of one statement.
type Result struct {
	ID        string
	Line      int // Line in the source file, 0 for statements not read from a file
	Statement string
	Request   *parser.Request // Nil when the statement did not parse
	Envelope  *http.Envelope  // Nil when the statement failed
	Error     error
	StartedAt time.Time
	Duration  time.Duration
}

// Passed reports whether the statement parsed and executed.
func (r *Result) Passed() bool {
	return r.Error == nil
}

// IsParseError reports whether the statement was rejected before execution.
func (r *Result) IsParseError() bool {
	return errors.Is(r.Error, parser.ErrParse)
}

type RunResult struct {
	File     string
	Results  []*Result
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

// Statement is a statement together with where it came from.
type Statement struct {
	Line int
	Text string
}

// Run parses statement and executes it. The returned Result is never nil;
// its Error is the same error Run returns.
func (r *Runner) Run(ctx context.Context, statement string) (*Result, error) {
	result := r.run(ctx, Statement{Text: statement})
	return result, result.Error
}

func (r *Runner) run(ctx context.Context, stmt Statement) *Result {
	result := &Result{
		ID:        uuid.NewString(),
		Line:      stmt.Line,
		Statement: stmt.Text,
		StartedAt: r.now(),
	}

	req, err := parser.Parse(stmt.Text)
	if err != nil {
		result.Error = err
		result.Duration = r.now().Sub(result.StartedAt)
		r.logger.Debug("statement rejected", "id", result.ID, "line", stmt.Line, "error", err)
		r.record(ctx, result)
		return result
	}
	result.Request = req

	env, err := r.executor.Execute(ctx, req)
	result.Duration = r.now().Sub(result.StartedAt)
	if err != nil {
		result.Error = err
		r.logger.Debug("execution failed", "id", result.ID, "url", req.URL, "error", err)
		r.record(ctx, result)
		return result
	}
	result.Envelope = env

	r.record(ctx, result)
	return result
}

func (r *Runner) record(ctx context.Context, result *Result) {
	if r.recorder == nil {
		return
	}

	entry := history.Entry{
		ID:         result.ID,
		Statement:  result.Statement,
		StartedAt:  result.StartedAt,
		DurationMs: result.Duration.Milliseconds(),
	}
	if result.Request != nil {
		entry.Method = result.Request.Method
		entry.FullURL = result.Request.FullURL
	}
	if result.Error != nil {
		entry.Error = result.Error.Error()
		var execErr *http.ExecutionError
		if errors.As(result.Error, &execErr) {
			entry.HTTPStatus = execErr.StatusCode
		}
	}
	if result.Envelope != nil {
		entry.HTTPStatus = result.Envelope.Response.HTTPStatus
		entry.DurationMs = result.Envelope.Response.Duration
		if data, err := json.Marshal(result.Envelope); err == nil {
			entry.Envelope = string(data)
		}
	}

	if err := r.recorder.Record(ctx, entry); err != nil {
		r.logger.Warn("failed to record execution", "id", result.ID, "error", err)
	}
}

// RunFile executes every non-blank line of the file at path as a statement.
func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	result := r.RunStatements(ctx, SplitStatements(string(data)))
	result.File = path
	return result, nil
}

// SplitStatements returns the non-blank lines of text with their line
// numbers. Lines are otherwise kept as written since spacing is significant.
func SplitStatements(text string) []Statement {
	var statements []Statement
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		statements = append(statements, Statement{Line: i + 1, Text: line})
	}
	return statements
}

// RunStatements executes statements in order, or concurrently when the
// config asks for it. With Bail set, sequential runs stop at the first
// failure and the remaining statements are counted as skipped.
func (r *Runner) RunStatements(ctx context.Context, statements []Statement) *RunResult {
	start := r.now()
	result := &RunResult{}

	if r.config.Parallel {
		result.Results = r.runParallel(ctx, statements)
	} else {
		for i, stmt := range statements {
			if ctx.Err() != nil {
				result.Skipped += len(statements) - i
				break
			}

			res := r.run(ctx, stmt)
			result.Results = append(result.Results, res)

			if !res.Passed() && r.config.Bail {
				result.Skipped += len(statements) - i - 1
				break
			}
		}
	}

	for _, res := range result.Results {
		if res.Passed() {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	result.Duration = r.now().Sub(start)
	return result
}

func (r *Runner) runParallel(ctx context.Context, statements []Statement) []*Result {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*Result, len(statements))
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, stmt := range statements {
		wg.Add(1)
		sem <- struct{}{} // acquire semaphore

		go func(idx int, s Statement) {
			defer wg.Done()
			defer func() { <-sem }() // release semaphore

			results[idx] = r.run(ctx, s)
		}(i, stmt)
	}

	wg.Wait()
	return results
}
