package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqline/packages/core/config"
	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
	reqhttp "github.com/abdul-hamid-achik/reqline/packages/http"
)

// resetFlags restores every flag of c and its subcommands to its default,
// since cobra keeps parsed values between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI with args in an empty working directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	return executeHere(t, args...)
}

func executeHere(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{config.EnvHistory, config.EnvTimeout, config.EnvProxy, config.EnvInsecure} {
		t.Setenv(key, "")
	}

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"path": %q, "refid": %q}`, r.URL.Path, r.URL.Query().Get("refid"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExitCodeFor(t *testing.T) {
	_, parseErr := parser.Parse("HTTP GET")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitFailure},
		{"parse", parseErr, ExitParseError},
		{"config", fmt.Errorf("load: %w", config.ErrInvalid), ExitConfigError},
		{"execution", &reqhttp.ExecutionError{StatusCode: 500}, ExitExecutionError},
		{"usage", usageError(errors.New("bad flag")), ExitUsageError},
		{"reported parse", reported(parseErr), ExitParseError},
		{"explicit code wins", withExitCode(ExitFailure, parseErr), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}

func TestReported(t *testing.T) {
	err := errors.New("shown")
	assert.False(t, isReported(err))
	assert.True(t, isReported(reported(err)))
	assert.True(t, isReported(fmt.Errorf("wrapped: %w", reported(err))))
	assert.ErrorIs(t, reported(err), err)
}

func TestParseHeaderFlags(t *testing.T) {
	headers, err := parseHeaderFlags([]string{"Authorization: Bearer abc", "X-Empty:"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer abc", "X-Empty": ""}, headers)

	_, err = parseHeaderFlags([]string{"no-colon"})
	assert.Error(t, err)
	_, err = parseHeaderFlags([]string{": value"})
	assert.Error(t, err)
}

func TestParseCommand(t *testing.T) {
	out, err := execute(t, "parse", "-o", "json", `HTTP GET | URL https://example.com/a | QUERY {"q": "a b"}`)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &req))
	assert.Equal(t, "GET", req["method"])
	assert.Equal(t, "https://example.com/a?q=a%20b", req["fullUrl"])
	assert.Equal(t, map[string]any{}, req["headers"])
}

func TestParseCommand_Invalid(t *testing.T) {
	out, err := execute(t, "parse", "-o", "json", "HTTP GET")
	require.Error(t, err)
	assert.True(t, isReported(err))
	assert.Equal(t, ExitParseError, exitCodeFor(err))
	assert.Contains(t, out, `"code": "MISSING_URL"`)
}

func TestParseCommand_Usage(t *testing.T) {
	_, err := execute(t, "parse")
	assert.Equal(t, ExitUsageError, exitCodeFor(err))

	_, err = execute(t, "parse", "--bogus", "x")
	assert.Equal(t, ExitUsageError, exitCodeFor(err))
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "requests.reqline")
	require.NoError(t, os.WriteFile(file, []byte("HTTP GET | URL https://example.com\n\nHTTP GET\n"), 0644))

	t.Chdir(dir)
	out, err := executeHere(t, "validate", "--file", file)
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCodeFor(err))
	assert.Contains(t, out, "Valid: line 1")
	assert.Contains(t, out, "Invalid: line 3: Missing required URL keyword [MISSING_URL]")

	out, err = execute(t, "validate", "HTTP POST | URL https://example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Valid: HTTP POST | URL https://example.com")
}

func TestRunCommand(t *testing.T) {
	srv := upstream(t)

	out, err := execute(t, "run", "-o", "json", fmt.Sprintf(`HTTP GET | URL %s/quotes | QUERY {"refid": 1920933}`, srv.URL))
	require.NoError(t, err)

	var env reqhttp.Envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, 200, env.Response.HTTPStatus)
	assert.Equal(t, srv.URL+"/quotes?refid=1920933", env.Request.FullURL)
	refid, _ := env.Response.ResponseData.Get("refid")
	assert.Equal(t, "1920933", refid.Str())
}

func TestRunCommand_ExecutionError(t *testing.T) {
	srv := upstream(t)

	_, err := execute(t, "run", fmt.Sprintf("HTTP GET | URL %s/missing", srv.URL))
	require.Error(t, err)
	assert.Equal(t, ExitExecutionError, exitCodeFor(err))

	out, err := execute(t, "run", "--no-fail-on-status", "-o", "json", fmt.Sprintf("HTTP GET | URL %s/missing", srv.URL))
	require.NoError(t, err)
	assert.Contains(t, out, `"http_status": 404`)
}

func TestRunCommand_Usage(t *testing.T) {
	_, err := execute(t, "run")
	assert.Equal(t, ExitUsageError, exitCodeFor(err))

	_, err = execute(t, "run", "--watch", "HTTP GET | URL http://localhost")
	assert.Equal(t, ExitUsageError, exitCodeFor(err))
}

func TestRunCommand_FileAndHistory(t *testing.T) {
	srv := upstream(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "requests.reqline")
	content := fmt.Sprintf("HTTP GET | URL %s/one\nHTTP get | URL %s/two\n", srv.URL, srv.URL)
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	db := filepath.Join(dir, "history.db")

	t.Chdir(dir)
	out, err := executeHere(t, "run", "--file", file, "--history", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCodeFor(err))
	assert.Contains(t, out, "1 passed")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "[METHOD_MUST_BE_UPPERCASE]")

	out, err = executeHere(t, "history", "--history", db, "-o", "json")
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)

	out, err = executeHere(t, "history", "clear", "--history", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 entries")
}

func TestHistoryCommand_NotConfigured(t *testing.T) {
	_, err := execute(t, "history")
	assert.Equal(t, ExitConfigError, exitCodeFor(err))
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := executeHere(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "reqline project initialized!")
	assert.FileExists(t, filepath.Join(dir, "example.reqline"))

	cfg, err := config.LoadConfig(filepath.Join(dir, ".reqline.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "reqline/"+version, cfg.Headers["User-Agent"])

	_, err = executeHere(t, "init")
	assert.ErrorContains(t, err, "file already exists")

	_, err = executeHere(t, "init", "--force")
	assert.NoError(t, err)
}

func TestConfigFileInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".reqline.yaml"), []byte("output: xml\n"), 0644))
	t.Chdir(dir)

	_, err := executeHere(t, "parse", "HTTP GET | URL https://example.com")
	assert.Equal(t, ExitConfigError, exitCodeFor(err))
}

func TestImportCurlCommand(t *testing.T) {
	out, err := execute(t, "import", "curl", `curl -k "https://api.example.com/users?page=2"`)
	require.NoError(t, err)
	assert.Contains(t, out, "note: -k/--insecure")
	assert.Contains(t, out, `HTTP GET | URL https://api.example.com/users | QUERY {"page":"2"}`)

	_, err = execute(t, "import", "curl", "curl -X DELETE https://api.example.com")
	assert.ErrorContains(t, err, "method DELETE")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "reqline version "+version)
}
