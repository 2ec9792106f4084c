package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
	"github.com/abdul-hamid-achik/reqline/packages/history"
	"github.com/abdul-hamid-achik/reqline/packages/http"
)

// JSONFormatter writes one indented JSON document per call
type JSONFormatter struct {
	writer io.Writer
	now    func() time.Time
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func JSONWithClock(now func() time.Time) JSONOption {
	return func(f *JSONFormatter) {
		f.now = now
	}
}

func (f *JSONFormatter) encode(v any) {
	if err := encodeJSON(f.writer, v); err != nil {
		fmt.Fprintf(f.writer, "{\"error\":true,\"message\":%q}\n", err.Error())
	}
}

// encodeJSON writes v with two space indentation and without HTML escaping.
func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (f *JSONFormatter) FormatRequest(req *parser.Request) {
	f.encode(req)
}

func (f *JSONFormatter) FormatEnvelope(env *http.Envelope) {
	f.encode(env)
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	f.encode(newResultDocument(result, f.now()))
}

func (f *JSONFormatter) FormatHistory(entries []history.Entry) {
	f.encode(newHistoryDocuments(entries))
}

func (f *JSONFormatter) FormatError(err error) {
	f.encode(NewErrorDocument(err))
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}
