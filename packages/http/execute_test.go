package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"
	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock returns start on the first call and advances by step on
// every call after that.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(step)
		return now
	}
}

func mustParse(t *testing.T, statement string) *parser.Request {
	t.Helper()
	req, err := parser.Parse(statement)
	require.NoError(t, err)
	return req
}

func TestExecute_GET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		assert.Equal(t, "7", r.Header.Get("X-Trace"))

		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 3, "name": "Ada"}`))
	}))
	defer server.Close()

	start := time.UnixMilli(1_700_000_000_000)
	client := NewClient(WithClock(steppingClock(start, 120*time.Millisecond)))

	desc := mustParse(t, `HTTP GET | URL `+server.URL+`/users | HEADERS {"X-Trace": 7} | QUERY {"page": 2} | BODY {"ignored": true}`)
	env, err := client.Execute(context.Background(), desc)
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/users?page=2", env.Request.FullURL)
	assert.True(t, env.Request.Query.Equal(desc.Query))
	assert.True(t, env.Request.Body.Equal(desc.Body))
	assert.True(t, env.Request.Headers.Equal(desc.Headers))

	assert.Equal(t, 200, env.Response.HTTPStatus)
	assert.Equal(t, int64(1_700_000_000_000), env.Response.RequestStartTimestamp)
	assert.Equal(t, int64(1_700_000_000_120), env.Response.RequestStopTimestamp)
	assert.Equal(t, int64(120), env.Response.Duration)
	assert.True(t, env.Response.ResponseData.Equal(jsonvalue.MustParse(`{"id": 3, "name": "Ada"}`)))
}

func TestExecute_POSTSendsBody(t *testing.T) {
	var received []byte
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		received, _ = io.ReadAll(r.Body)
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewClient()
	desc := mustParse(t, `HTTP POST | URL `+server.URL+` | BODY {"name": "John", "age": 30, "tags": ["a"]}`)

	env, err := client.Execute(context.Background(), desc)
	require.NoError(t, err)
	assert.Equal(t, 201, env.Response.HTTPStatus)

	assert.Equal(t, "application/json", contentType)
	sent, err := jsonvalue.ParseBytes(received)
	require.NoError(t, err)
	assert.True(t, sent.Equal(desc.Body), "sent %s", received)
}

func TestExecute_POSTKeepsContentTypeFromHeaders(t *testing.T) {
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	client := NewClient()
	desc := mustParse(t, `HTTP POST | URL `+server.URL+` | HEADERS {"content-type": "application/vnd.api+json"} | BODY {"a": 1}`)

	_, err := client.Execute(context.Background(), desc)
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.api+json", contentType)
}

func TestExecute_POSTWithoutKeysSendsNoBody(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		assert.Empty(t, r.Header.Get("Content-Type"))
	}))
	defer server.Close()

	client := NewClient()
	for _, body := range []string{"{}", "[]", "null", "7"} {
		_, err := client.Execute(context.Background(), mustParse(t, "HTTP POST | URL "+server.URL+" | BODY "+body))
		require.NoError(t, err)
		assert.Empty(t, received, body)
	}
}

func TestExecute_POSTStringBodySentRaw(t *testing.T) {
	var received []byte
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		contentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	_, err := NewClient().Execute(context.Background(), mustParse(t, `HTTP POST | URL `+server.URL+` | BODY "abc"`))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(received))
	assert.Empty(t, contentType)
}

func TestExecute_ResponseDataFallsBackToText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("plain text, not JSON"))
	}))
	defer server.Close()

	env, err := NewClient().Execute(context.Background(), mustParse(t, "HTTP GET | URL "+server.URL))
	require.NoError(t, err)
	assert.Equal(t, jsonvalue.String, env.Response.ResponseData.Kind())
	assert.Equal(t, "plain text, not JSON", env.Response.ResponseData.Str())
}

func TestExecute_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "missing"}`))
	}))
	defer server.Close()

	desc := mustParse(t, "HTTP GET | URL "+server.URL)

	_, err := NewClient().Execute(context.Background(), desc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecution))
	assert.False(t, errors.Is(err, parser.ErrParse))
	assert.Equal(t, "Request failed with status code 404", err.Error())

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 404, execErr.StatusCode)
	assert.Equal(t, "GET", execErr.Method)

	env, err := NewClient(WithFailOnStatus(false)).Execute(context.Background(), desc)
	require.NoError(t, err)
	assert.Equal(t, 404, env.Response.HTTPStatus)
	assert.True(t, env.Response.ResponseData.Equal(jsonvalue.MustParse(`{"error": "missing"}`)))
}

func TestExecute_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient().Execute(context.Background(), mustParse(t, "HTTP GET | URL "+url))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecution)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Zero(t, execErr.StatusCode)
	assert.Error(t, execErr.Unwrap())
}

func TestExecute_InvalidURL(t *testing.T) {
	_, err := NewClient().Execute(context.Background(), mustParse(t, "HTTP GET | URL not-a-url"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecution)
	assert.Contains(t, err.Error(), "unsupported URL scheme")
}

func TestExecute_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient().Execute(ctx, mustParse(t, "HTTP GET | URL "+server.URL))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrExecution)
}

func TestExecute_LogsExchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := NewClient(WithLogger(logger)).Execute(context.Background(), mustParse(t, "HTTP GET | URL "+server.URL))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "request completed")
	assert.Contains(t, buf.String(), "component=http")
	assert.Contains(t, buf.String(), "status=200")
}

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name            string
		statement       string
		wantHeaders     map[string]string
		wantBody        string
		wantContentType string
	}{
		{
			name:        "headers stringified",
			statement:   `HTTP GET | URL http://x.test | HEADERS {"A": 1, "B": true, "C": null, "D": [1, 2], "E": {"x": 1}}`,
			wantHeaders: map[string]string{"A": "1", "B": "true", "C": "null", "D": "1,2", "E": "[object Object]"},
		},
		{
			name:        "array headers ignored",
			statement:   `HTTP GET | URL http://x.test | HEADERS ["a"]`,
			wantHeaders: map[string]string{},
		},
		{
			name:        "GET drops body",
			statement:   `HTTP GET | URL http://x.test | BODY {"a": 1}`,
			wantHeaders: map[string]string{},
		},
		{
			name:            "POST body keeps member order",
			statement:       `HTTP POST | URL http://x.test | BODY {"z": 1, "a": {"k": "<v>"}}`,
			wantHeaders:     map[string]string{},
			wantBody:        `{"z":1,"a":{"k":"<v>"}}`,
			wantContentType: "application/json",
		},
		{
			name:            "POST array body",
			statement:       `HTTP POST | URL http://x.test | BODY [1, 2]`,
			wantHeaders:     map[string]string{},
			wantBody:        `[1,2]`,
			wantContentType: "application/json",
		},
		{
			name:        "POST string body is raw text",
			statement:   `HTTP POST | URL http://x.test | BODY "a\"b"`,
			wantHeaders: map[string]string{},
			wantBody:    `a"b`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(mustParse(t, tt.statement))
			require.NoError(t, err)
			assert.Equal(t, "http://x.test", req.URL)
			assert.Equal(t, tt.wantHeaders, req.Headers)
			assert.Equal(t, tt.wantBody, string(req.Body))
			assert.Equal(t, tt.wantContentType, req.ContentType)
		})
	}
}

func TestEnvelope_MarshalJSON(t *testing.T) {
	env := Envelope{
		Request: EnvelopeRequest{
			Query:   jsonvalue.MustParse(`{"b": 1, "a": 2}`),
			Body:    jsonvalue.EmptyObject(),
			Headers: jsonvalue.EmptyObject(),
			FullURL: "http://x.test?b=1&a=2",
		},
		Response: EnvelopeResponse{
			HTTPStatus:            200,
			Duration:              15,
			RequestStartTimestamp: 1000,
			RequestStopTimestamp:  1015,
			ResponseData:          jsonvalue.MustParse(`[1, "x"]`),
		},
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)

	want := `{"request":{"query":{"b":1,"a":2},"body":{},"headers":{},"full_url":"http://x.test?b=1&a=2"},` +
		`"response":{"http_status":200,"duration":15,"request_start_timestamp":1000,"request_stop_timestamp":1015,"response_data":[1,"x"]}}`
	assert.Equal(t, want, string(data))
}

func TestExecutionError_Message(t *testing.T) {
	assert.Equal(t, "request failed", (&ExecutionError{}).Error())
	assert.Equal(t, "boom", (&ExecutionError{Err: errors.New("boom")}).Error())
	assert.Equal(t, "Request failed with status code 500", (&ExecutionError{StatusCode: 500}).Error())
}
