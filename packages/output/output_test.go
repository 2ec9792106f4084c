package output

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"
	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	"github.com/abdul-hamid-achik/reqline/packages/core/runner"
	"github.com/abdul-hamid-achik/reqline/packages/history"
	"github.com/abdul-hamid-achik/reqline/packages/http"
)

var fixedNow = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

func sampleEnvelope() *http.Envelope {
	return &http.Envelope{
		Request: http.EnvelopeRequest{
			Query:   jsonvalue.MustParse(`{"q":"a&b"}`),
			Body:    jsonvalue.EmptyObject(),
			Headers: jsonvalue.MustParse(`{"X-Id":"<7>"}`),
			FullURL: "https://api.test/items?q=a%26b",
		},
		Response: http.EnvelopeResponse{
			HTTPStatus:            200,
			Duration:              42,
			RequestStartTimestamp: 1000,
			RequestStopTimestamp:  1042,
			ResponseData:          jsonvalue.MustParse(`{"zeta":1,"alpha":[true,null,1.5]}`),
		},
	}
}

func sampleRunResult(t *testing.T) *runner.RunResult {
	t.Helper()
	req, err := parser.Parse("HTTP GET | URL https://api.test/items")
	require.NoError(t, err)
	_, perr := parser.Parse("HTTP get | URL https://api.test/items")
	require.Error(t, perr)

	return &runner.RunResult{
		File: "statements.reqline",
		Results: []*runner.Result{
			{ID: "a", Line: 1, Statement: "HTTP GET | URL https://api.test/items", Request: req, Envelope: sampleEnvelope()},
			{ID: "b", Line: 3, Statement: "HTTP get | URL https://api.test/items", Error: perr},
		},
		Duration: 50 * time.Millisecond,
		Passed:   1,
		Failed:   1,
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	for _, format := range Formats {
		f, err := New(format, &buf, true, false)
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := New("xml", &buf, true, false)
	assert.Error(t, err)
}

func TestJSONFormatter_Envelope(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.FormatEnvelope(sampleEnvelope())

	out := buf.String()
	assert.Contains(t, out, `"full_url": "https://api.test/items?q=a%26b"`)
	assert.Contains(t, out, `"X-Id": "<7>"`)
	assert.Contains(t, out, `"http_status": 200`)
	assert.Contains(t, out, `"request_start_timestamp": 1000`)
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(`"zeta"`)), bytes.Index(buf.Bytes(), []byte(`"alpha"`)))
}

func TestJSONFormatter_Error(t *testing.T) {
	_, perr := parser.Parse("HTTP GET")
	require.Error(t, perr)

	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.FormatError(perr)

	assert.JSONEq(t, `{"error":true,"message":"Missing required URL keyword","code":"MISSING_URL"}`, buf.String())

	buf.Reset()
	f.FormatError(errors.New("boom"))
	assert.JSONEq(t, `{"error":true,"message":"boom"}`, buf.String())
}

func TestJSONFormatter_Result(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf), JSONWithClock(fixedNow))
	f.FormatResult(sampleRunResult(t))

	value, err := jsonvalue.Parse(buf.String())
	require.NoError(t, err)

	summary, ok := value.Get("summary")
	require.True(t, ok)
	assert.Equal(t, `{"total":2,"passed":1,"failed":1,"skipped":0}`, mustJSON(t, summary))

	results, _ := value.Get("results")
	require.Equal(t, 2, results.Len())
	second := results.Elements()[1]
	errDoc, ok := second.Get("error")
	require.True(t, ok)
	code, _ := errDoc.Get("code")
	assert.Equal(t, "METHOD_MUST_BE_UPPERCASE", code.Str())

	ts, _ := value.Get("time")
	assert.Equal(t, "2026-01-02T03:04:05Z", ts.Str())
}

func TestJSONFormatter_History(t *testing.T) {
	entries := []history.Entry{
		{ID: "1", Statement: "HTTP GET | URL x", Method: "GET", FullURL: "x", HTTPStatus: 200, DurationMs: 5,
			StartedAt: fixedNow(), Envelope: `{"request":{}}`},
		{ID: "2", Statement: "bad", StartedAt: fixedNow(), Error: "Missing required HTTP keyword"},
	}

	var buf bytes.Buffer
	NewJSONFormatter(JSONWithWriter(&buf)).FormatHistory(entries)

	value, err := jsonvalue.Parse(buf.String())
	require.NoError(t, err)
	require.Equal(t, 2, value.Len())

	first := value.Elements()[0]
	env, ok := first.Get("envelope")
	require.True(t, ok)
	assert.Equal(t, jsonvalue.Object, env.Kind())

	second := value.Elements()[1]
	_, ok = second.Get("envelope")
	assert.False(t, ok)
}

func TestMarshalYAML_PreservesOrderAndTypes(t *testing.T) {
	data, err := MarshalYAML(sampleEnvelope())
	require.NoError(t, err)

	want := `request:
  query:
    q: a&b
  body: {}
  headers:
    X-Id: <7>
  full_url: https://api.test/items?q=a%26b
response:
  http_status: 200
  duration: 42
  request_start_timestamp: 1000
  request_stop_timestamp: 1042
  response_data:
    zeta: 1
    alpha:
      - true
      - null
      - 1.5
`
	assert.Equal(t, want, string(data))
}

func TestMarshalYAML_QuotesAmbiguousStrings(t *testing.T) {
	data, err := MarshalYAML(map[string]any{"v": "true", "n": "10"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `n: "10"`)
	assert.Contains(t, string(data), `v: "true"`)
}

func TestYAMLFormatter_Error(t *testing.T) {
	var buf bytes.Buffer
	NewYAMLFormatter(YAMLWithWriter(&buf)).FormatError(errors.New("Request failed with status code 404"))
	assert.Equal(t, "---\nerror: true\nmessage: Request failed with status code 404\n", buf.String())
}

func TestConsoleFormatter_Result(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatResult(sampleRunResult(t))

	out := buf.String()
	assert.Contains(t, out, "Running: statements.reqline")
	assert.Contains(t, out, "✓ line 1 GET https://api.test/items 200 (42ms)")
	assert.Contains(t, out, "✗ line 3 (HTTP method must be uppercase [METHOD_MUST_BE_UPPERCASE])")
	assert.Contains(t, out, "1 passed")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "2 total")
}

func TestConsoleFormatter_Envelope(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	f.FormatEnvelope(sampleEnvelope())

	out := buf.String()
	assert.Contains(t, out, "200 https://api.test/items?q=a%26b (42ms)")
	assert.Contains(t, out, "Timestamps: 1000 -> 1042")
	assert.Contains(t, out, `"zeta": 1`)
}

func TestConsoleFormatter_TextResponse(t *testing.T) {
	env := sampleEnvelope()
	env.Response.ResponseData = jsonvalue.NewString("plain text")

	var buf bytes.Buffer
	NewConsoleFormatter(WithWriter(&buf), WithNoColor(true)).FormatEnvelope(env)
	assert.Contains(t, buf.String(), "\nplain text\n")
}

func TestConsoleFormatter_History(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatHistory(nil)
	assert.Equal(t, "No executions recorded\n", buf.String())

	buf.Reset()
	f.FormatHistory([]history.Entry{
		{ID: "0123456789", Statement: "HTTP GET | URL x", StartedAt: fixedNow()},
		{ID: "abc", Statement: "oops", StartedAt: fixedNow(), Error: "Invalid reqline statement"},
	})
	out := buf.String()
	assert.Contains(t, out, "✓ 2026-01-02 03:04:05 01234567 HTTP GET | URL x")
	assert.Contains(t, out, "✗ 2026-01-02 03:04:05 abc oops")
	assert.Contains(t, out, "Invalid reqline statement")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "[array with 2 items]", formatValue(jsonvalue.MustParse(`[1,2]`), 10))
	assert.Equal(t, "{object with 1 keys}", formatValue(jsonvalue.MustParse(`{"a":1}`), 10))
	assert.Equal(t, "abc...", formatValue(jsonvalue.NewString("abcdef"), 3))
	assert.Equal(t, "12", formatValue(jsonvalue.NewNumber(12), 10))
}

func mustJSON(t *testing.T, v jsonvalue.Value) string {
	t.Helper()
	data, err := v.MarshalJSON()
	require.NoError(t, err)
	return string(data)
}
