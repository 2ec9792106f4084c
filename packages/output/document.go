package output

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
	"github.com/abdul-hamid-achik/reqline/packages/history"
	"github.com/abdul-hamid-achik/reqline/packages/http"
)

// ErrorDocument is the body reqline returns for a rejected statement.
type ErrorDocument struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewErrorDocument builds the error body for err.
func NewErrorDocument(err error) ErrorDocument {
	doc := ErrorDocument{Error: true, Message: err.Error()}
	var perr *parser.Error
	if errors.As(err, &perr) {
		doc.Code = string(perr.Code)
	}
	return doc
}

// ResultDocument is the machine readable form of a batch run.
type ResultDocument struct {
	File     string              `json:"file,omitempty"`
	Summary  SummaryDocument     `json:"summary"`
	Results  []StatementDocument `json:"results"`
	Duration int64               `json:"duration"`
	Time     string              `json:"time"`
}

type SummaryDocument struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// StatementDocument is one statement of a batch run.
type StatementDocument struct {
	ID        string         `json:"id"`
	Line      int            `json:"line,omitempty"`
	Statement string         `json:"statement"`
	Passed    bool           `json:"passed"`
	Error     *ErrorDocument `json:"error,omitempty"`
	Envelope  *http.Envelope `json:"envelope,omitempty"`
}

// HistoryDocument is one recorded execution.
type HistoryDocument struct {
	ID         string          `json:"id"`
	Statement  string          `json:"statement"`
	Method     string          `json:"method,omitempty"`
	FullURL    string          `json:"full_url,omitempty"`
	HTTPStatus int             `json:"http_status,omitempty"`
	DurationMs int64           `json:"duration"`
	StartedAt  string          `json:"started_at"`
	Error      string          `json:"error,omitempty"`
	Envelope   json.RawMessage `json:"envelope,omitempty"`
}

func newResultDocument(result *runner.RunResult, now time.Time) ResultDocument {
	doc := ResultDocument{
		File: result.File,
		Summary: SummaryDocument{
			Total:   result.Passed + result.Failed + result.Skipped,
			Passed:  result.Passed,
			Failed:  result.Failed,
			Skipped: result.Skipped,
		},
		Results:  make([]StatementDocument, 0, len(result.Results)),
		Duration: result.Duration.Milliseconds(),
		Time:     now.Format(time.RFC3339),
	}

	for _, r := range result.Results {
		stmt := StatementDocument{
			ID:        r.ID,
			Line:      r.Line,
			Statement: r.Statement,
			Passed:    r.Passed(),
			Envelope:  r.Envelope,
		}
		if r.Error != nil {
			errDoc := NewErrorDocument(r.Error)
			stmt.Error = &errDoc
		}
		doc.Results = append(doc.Results, stmt)
	}
	return doc
}

func newHistoryDocuments(entries []history.Entry) []HistoryDocument {
	docs := make([]HistoryDocument, 0, len(entries))
	for _, e := range entries {
		doc := HistoryDocument{
			ID:         e.ID,
			Statement:  e.Statement,
			Method:     e.Method,
			FullURL:    e.FullURL,
			HTTPStatus: e.HTTPStatus,
			DurationMs: e.DurationMs,
			StartedAt:  e.StartedAt.UTC().Format(time.RFC3339Nano),
			Error:      e.Error,
		}
		if e.Envelope != "" && json.Valid([]byte(e.Envelope)) {
			doc.Envelope = json.RawMessage(e.Envelope)
		}
		docs = append(docs, doc)
	}
	return docs
}
