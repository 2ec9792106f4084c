package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_Do(t *testing.T) {
	var contentType string
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		contentType = r.Header.Get("Content-Type")
		received, _ = io.ReadAll(r.Body)
		w.Header().Set("X-Echo", "yes")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("done"))
	}))
	defer server.Close()

	req := NewRequest("PUT", server.URL).SetBody([]byte(`{"a":1}`))
	req.ContentType = "application/json"

	resp, err := NewClient().Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)
	assert.Equal(t, "yes", resp.Headers["X-Echo"])
	assert.Equal(t, "done", string(resp.Body))
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, `{"a":1}`, string(received))
}

func TestClient_DoWithoutContentTypeSendsNone(t *testing.T) {
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	req := NewRequest("POST", server.URL).SetBody([]byte("raw text"))
	_, err := NewClient().Do(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, contentType)
}

func TestClient_WithTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithTimeout(50 * time.Millisecond))
	_, err := client.Execute(context.Background(), mustParse(t, "HTTP GET | URL "+server.URL))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecution)
	assert.Contains(t, err.Error(), "Client.Timeout exceeded")
}

func TestClient_WithDefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "statement-agent", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithDefaultHeaders(map[string]string{
		"Authorization": "test-token",
		"User-Agent":    "custom-agent",
	}))
	desc := mustParse(t, `HTTP GET | URL `+server.URL+` | HEADERS {"User-Agent": "statement-agent"}`)

	env, err := client.Execute(context.Background(), desc)
	require.NoError(t, err)
	assert.Equal(t, 200, env.Response.HTTPStatus)
}

func TestClient_FollowRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"at": "final"}`))
			return
		}
		redirectCount++
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(true))
	env, err := client.Execute(context.Background(), mustParse(t, "HTTP GET | URL "+server.URL+"/redirect"))

	require.NoError(t, err)
	assert.Equal(t, 200, env.Response.HTTPStatus)
	assert.True(t, env.Response.ResponseData.Equal(jsonvalue.MustParse(`{"at": "final"}`)))
	assert.Equal(t, 1, redirectCount)
}

func TestClient_NoFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	desc := mustParse(t, "HTTP GET | URL "+server.URL+"/redirect")

	env, err := NewClient(WithFollowRedirects(false), WithFailOnStatus(false)).Execute(context.Background(), desc)
	require.NoError(t, err)
	assert.Equal(t, 302, env.Response.HTTPStatus)

	_, err = NewClient(WithFollowRedirects(false)).Execute(context.Background(), desc)
	assert.EqualError(t, err, "Request failed with status code 302")
}

func TestClient_MaxRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		redirectCount++
		http.Redirect(w, r, "/redirect", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithMaxRedirects(3), WithFailOnStatus(false))
	env, err := client.Execute(context.Background(), mustParse(t, "HTTP GET | URL "+server.URL+"/redirect"))

	require.NoError(t, err)
	assert.Equal(t, 302, env.Response.HTTPStatus)
	assert.Equal(t, 3, redirectCount)
}

func TestClient_WithValidateSSL(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"secure": true}`))
	}))
	defer server.Close()

	desc := mustParse(t, "HTTP GET | URL "+server.URL)

	_, err := NewClient().Execute(context.Background(), desc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecution)

	env, err := NewClient(WithValidateSSL(false)).Execute(context.Background(), desc)
	require.NoError(t, err)
	assert.Equal(t, 200, env.Response.HTTPStatus)
}

func TestClient_WithProxy(t *testing.T) {
	var target string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target = r.URL.String()
		_, _ = w.Write([]byte(`{"via": "proxy"}`))
	}))
	defer proxy.Close()

	client := NewClient(WithProxy(proxy.URL))
	env, err := client.Execute(context.Background(), mustParse(t, `HTTP GET | URL http://upstream.test/items | QUERY {"q": 1}`))

	require.NoError(t, err)
	assert.Equal(t, "http://upstream.test/items", target)
	assert.True(t, env.Response.ResponseData.Equal(jsonvalue.MustParse(`{"via": "proxy"}`)))
}

func TestClient_WithHTTPClient(t *testing.T) {
	var seen *http.Request
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{"stub": 1}`)),
			Request:    r,
		}, nil
	})}

	client := NewClient(WithHTTPClient(hc), WithDefaultHeaders(map[string]string{"X-Default": "d"}))
	env, err := client.Execute(context.Background(), mustParse(t, `HTTP POST | URL https://api.test/v1 | BODY {"k": "v"}`))

	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "POST", seen.Method)
	assert.Equal(t, "https://api.test/v1", seen.URL.String())
	assert.Equal(t, "d", seen.Header.Get("X-Default"))
	assert.Equal(t, "application/json", seen.Header.Get("Content-Type"))
	assert.True(t, env.Response.ResponseData.Equal(jsonvalue.MustParse(`{"stub": 1}`)))
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://example.com/path",
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing scheme",
			url:     "example.com/path",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(WithHTTPClient(&http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody, Request: r}, nil
			})}))

			_, err := client.Execute(context.Background(), mustParse(t, "HTTP GET | URL "+tt.url))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrExecution)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResponse_IsSuccess(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   bool
	}{
		{200, true},
		{201, true},
		{204, true},
		{299, true},
		{300, false},
		{400, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.statusCode}
		assert.Equal(t, tt.expected, resp.IsSuccess(), "StatusCode: %d", tt.statusCode)
	}
}
