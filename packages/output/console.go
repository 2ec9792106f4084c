package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"
	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
	"github.com/abdul-hamid-achik/reqline/packages/history"
	"github.com/abdul-hamid-achik/reqline/packages/http"
)

// formatValue formats a value for display, truncating long text
func formatValue(v jsonvalue.Value, maxLen int) string {
	var str string
	switch v.Kind() {
	case jsonvalue.Array:
		return fmt.Sprintf("[array with %d items]", v.Len())
	case jsonvalue.Object:
		return fmt.Sprintf("{object with %d keys}", v.Len())
	case jsonvalue.String:
		str = v.Str()
	default:
		str = v.String()
	}
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

// indentJSON renders v as indented JSON.
func indentJSON(v jsonvalue.Value, prefix string) string {
	raw, err := v.MarshalJSON()
	if err != nil {
		return v.String()
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, prefix, "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatRequest(req *parser.Request) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", bold(req.Method), req.URL)
	fmt.Fprintf(f.writer, "  %s %s\n", cyan("Full URL:"), req.FullURL)
	fmt.Fprintf(f.writer, "  %s %s\n", cyan("Headers: "), indentJSON(req.Headers, "  "))
	fmt.Fprintf(f.writer, "  %s %s\n", cyan("Query:   "), indentJSON(req.Query, "  "))
	fmt.Fprintf(f.writer, "  %s %s\n", cyan("Body:    "), indentJSON(req.Body, "  "))
}

func (f *ConsoleFormatter) FormatEnvelope(env *http.Envelope) {
	cyan := color.New(color.FgCyan).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	resp := env.Response
	fmt.Fprintf(f.writer, "%s %s %s\n", f.status(resp.HTTPStatus), env.Request.FullURL, cyan(fmt.Sprintf("(%dms)", resp.Duration)))

	if f.verbose {
		fmt.Fprintf(f.writer, "  %s %d -> %d\n", dim("Timestamps:"), resp.RequestStartTimestamp, resp.RequestStopTimestamp)
		fmt.Fprintf(f.writer, "  %s %s\n", dim("Headers:"), indentJSON(env.Request.Headers, "  "))
		fmt.Fprintf(f.writer, "  %s %s\n", dim("Query:"), indentJSON(env.Request.Query, "  "))
		fmt.Fprintf(f.writer, "  %s %s\n", dim("Body:"), indentJSON(env.Request.Body, "  "))
	}

	if resp.ResponseData.Kind() == jsonvalue.String {
		fmt.Fprintf(f.writer, "%s\n", resp.ResponseData.Str())
		return
	}
	fmt.Fprintf(f.writer, "%s\n", indentJSON(resp.ResponseData, ""))
}

func (f *ConsoleFormatter) status(code int) string {
	text := fmt.Sprintf("%d", code)
	switch {
	case code >= 200 && code < 300:
		return color.New(color.FgGreen, color.Bold).Sprint(text)
	case code >= 300 && code < 400:
		return color.New(color.FgYellow, color.Bold).Sprint(text)
	default:
		return color.New(color.FgRed, color.Bold).Sprint(text)
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	if result.File != "" {
		fmt.Fprintf(f.writer, "\n%s\n", bold("Running: "+result.File))
	}
	fmt.Fprintf(f.writer, "\n")

	for _, r := range result.Results {
		label := fmt.Sprintf("line %d", r.Line)
		if r.Request != nil {
			label += fmt.Sprintf(" %s %s", r.Request.Method, r.Request.FullURL)
		}

		if r.Error != nil {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), label, red(fmt.Sprintf("(%s)", describeError(r.Error))))
			continue
		}

		fmt.Fprintf(f.writer, "  %s %s %s %s\n", green("✓"), label,
			f.status(r.Envelope.Response.HTTPStatus),
			cyan(fmt.Sprintf("(%dms)", r.Envelope.Response.Duration)))

		if f.verbose {
			fmt.Fprintf(f.writer, "    Response: %s\n", formatValue(r.Envelope.Response.ResponseData, 100))
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Statements: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	total := result.Passed + result.Failed + result.Skipped
	fmt.Fprintf(f.writer, "%d total\n", total)
	fmt.Fprintf(f.writer, "Time:       %dms\n", result.Duration.Milliseconds())
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatHistory(entries []history.Entry) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if len(entries) == 0 {
		fmt.Fprintln(f.writer, "No executions recorded")
		return
	}

	for _, e := range entries {
		symbol := green("✓")
		if e.Failed() {
			symbol = red("✗")
		}
		when := e.StartedAt.Format("2006-01-02 15:04:05")
		fmt.Fprintf(f.writer, "%s %s %s %s\n", symbol, dim(when), dim(e.ID[:min(8, len(e.ID))]), e.Statement)
		if e.Failed() {
			fmt.Fprintf(f.writer, "    %s\n", red(e.Error))
		} else if f.verbose {
			fmt.Fprintf(f.writer, "    %d in %dms\n", e.HTTPStatus, e.DurationMs)
		}
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", red("Error:"), describeError(err))
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("reqline"), version)
}

// describeError appends the catalog code to parse error messages.
func describeError(err error) string {
	var perr *parser.Error
	if errors.As(err, &perr) && perr.Code != "" {
		return fmt.Sprintf("%s [%s]", perr.Message, perr.Code)
	}
	return strings.TrimSpace(err.Error())
}
