package output

import (
	"fmt"
	"io"

	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
	"github.com/abdul-hamid-achik/reqline/packages/history"
	"github.com/abdul-hamid-achik/reqline/packages/http"
)

// Formatter renders reqline results.
type Formatter interface {
	FormatRequest(req *parser.Request)
	FormatEnvelope(env *http.Envelope)
	FormatResult(result *runner.RunResult)
	FormatHistory(entries []history.Entry)
	FormatError(err error)
	FormatHeader(version string)
}

// Formats lists the names accepted by New.
var Formats = []string{"console", "json", "yaml"}

// New returns the formatter registered under format.
func New(format string, w io.Writer, noColor, verbose bool) (Formatter, error) {
	switch format {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithNoColor(noColor), WithVerbose(verbose)), nil
	case "json":
		return NewJSONFormatter(JSONWithWriter(w)), nil
	case "yaml":
		return NewYAMLFormatter(YAMLWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
