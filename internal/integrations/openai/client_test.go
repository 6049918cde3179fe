package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// chatURL helper
// ---------------------------------------------------------------------------

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/v1/chat/completions"},
		{"", "https://api.openai.com/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_NilGetter(t *testing.T) {
	_, err := NewClient(nil, "/reads-agent")
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestNewClient_EmptyPrefix(t *testing.T) {
	_, err := NewClient(&fakeGetter{}, "  ")
	require.Error(t, err)
}

func TestNewClient_Valid(t *testing.T) {
	g := &fakeGetter{}
	c, err := NewClient(g, "/reads-agent")
	require.NoError(t, err)
	require.Equal(t, "https://api.openai.com/v1", c.baseURL)
	require.NotNil(t, c.getter)
}

// ---------------------------------------------------------------------------
// resolveConfig and SSM caching behaviour
// ---------------------------------------------------------------------------

// fakeGetter is a minimal paramstore.Getter stub for use within this package.
type fakeGetter struct {
	vals   map[string]string
	val    string
	err    error
	onCall func() // optional; called on each GetParameter invocation
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return "", f.err
	}
	if f.vals != nil {
		return f.vals[name], nil
	}
	return f.val, nil
}

func configuredGetter() *fakeGetter {
	return &fakeGetter{vals: map[string]string{
		"/reads-agent/open-ai-token":       `{"token":"sk-from-ssm"}`,
		"/reads-agent/config/openai_model": "gpt-4o-mini",
	}}
}

func TestResolveConfig_FetchedOnFirstCallOnly(t *testing.T) {
	calls := 0
	g := configuredGetter()
	g.onCall = func() { calls++ }
	c, err := NewClient(g, "/reads-agent")
	require.NoError(t, err)

	key, model, err := c.resolveConfig(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-from-ssm", key)
	require.Equal(t, "gpt-4o-mini", model)
	require.Equal(t, 2, calls)

	// subsequent calls must never hit SSM again
	_, _, _ = c.resolveConfig(context.Background())
	_, _, _ = c.resolveConfig(context.Background())
	require.Equal(t, 2, calls, "SSM must only be consulted once per process lifetime")
}

func TestResolveConfig_MissingModel(t *testing.T) {
	g := &fakeGetter{vals: map[string]string{
		"/reads-agent/open-ai-token": `{"token":"sk"}`,
	}}
	c, err := NewClient(g, "/reads-agent")
	require.NoError(t, err)

	_, _, err = c.resolveConfig(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")
}

// ---------------------------------------------------------------------------
// fetchAPIKeyFromParamStore
// ---------------------------------------------------------------------------

func TestFetchAPIKey_JSONToken(t *testing.T) {
	g := &fakeGetter{val: `{"token":"sk-from-json"}`}
	key, err := fetchAPIKeyFromParamStore(context.Background(), g, "/reads-agent/open-ai-token")
	require.NoError(t, err)
	require.Equal(t, "sk-from-json", key)
}

func TestFetchAPIKey_JSONMissingTokenField(t *testing.T) {
	g := &fakeGetter{val: `{"other":"value"}`}
	_, err := fetchAPIKeyFromParamStore(context.Background(), g, "/reads-agent/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "API token is empty")
}

func TestFetchAPIKey_MalformedJSON(t *testing.T) {
	g := &fakeGetter{val: `{"broken`}
	_, err := fetchAPIKeyFromParamStore(context.Background(), g, "/reads-agent/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmarshal")
}

func TestFetchAPIKey_GetterError(t *testing.T) {
	g := &fakeGetter{err: errors.New("ssm unavailable")}
	_, err := fetchAPIKeyFromParamStore(context.Background(), g, "/reads-agent/open-ai-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssm unavailable")
}

// ---------------------------------------------------------------------------
// Summarize
// ---------------------------------------------------------------------------

func chatBody(content string) string {
	return `{"choices":[{"index":0,"message":{"role":"assistant","content":` + marshalString(content) + `}}]}`
}

func marshalString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestSummarize_HappyPath(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		_, _ = w.Write([]byte(chatBody("  A tidy summary.  ")))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(configuredGetter(), "/reads-agent", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	summary, err := c.Summarize(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	require.Equal(t, "A tidy summary.", summary)
	require.Equal(t, "Bearer sk-from-ssm", gotAuth)
	require.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	require.Contains(t, gotReq.Messages[1].Content, "https://example.com/a")
}

func TestSummarize_EmptyLink(t *testing.T) {
	c, err := NewClient(configuredGetter(), "/reads-agent")
	require.NoError(t, err)
	_, err = c.Summarize(context.Background(), "  ")
	require.Error(t, err)
}

func TestSummarize_UpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(configuredGetter(), "/reads-agent", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Summarize(context.Background(), "https://example.com/a")
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusTooManyRequests, statusErr.HTTPStatusCode())
}

func TestSummarize_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(configuredGetter(), "/reads-agent", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Summarize(context.Background(), "https://example.com/a")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}

func TestSummarize_EmptySummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody("   ")))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(configuredGetter(), "/reads-agent", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Summarize(context.Background(), "https://example.com/a")
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty summary")
}

func TestSummarize_ConfigErrorPropagates(t *testing.T) {
	g := &fakeGetter{err: errors.New("ssm unavailable")}
	c, err := NewClient(g, "/reads-agent")
	require.NoError(t, err)

	_, err = c.Summarize(context.Background(), "https://example.com/a")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssm unavailable")
}
