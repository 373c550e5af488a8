package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/medparams/internal/common"
	"github.com/joseph-ayodele/medparams/internal/llm"
)

func chatRequest() llm.ChatRequest {
	return llm.ChatRequest{
		Model: "gpt-4o",
		Messages: []llm.ChatMessage{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: "Výška pacienta 180 cm"},
		},
	}
}

func serve(t *testing.T, status int, body string, inspect func(*http.Request, llm.ChatRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var got llm.ChatRequest
		_ = json.Unmarshal(raw, &got)
		if inspect != nil {
			inspect(r, got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete_OK(t *testing.T) {
	var hdr http.Header
	var path string
	var body llm.ChatRequest
	srv := serve(t, 200, `{"choices":[{"message":{"role":"assistant","content":"  Výška,180\n"}}]}`,
		func(r *http.Request, req llm.ChatRequest) {
			hdr = r.Header.Clone()
			path = r.URL.Path
			body = req
		})

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"}, nil)
	ctx := common.WithRequestID(context.Background(), "req-1")
	out, err := c.Complete(ctx, chatRequest())
	require.NoError(t, err)

	assert.Equal(t, "Výška,180", out)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "Bearer sk-test", hdr.Get("Authorization"))
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.Equal(t, "req-1", hdr.Get("X-Request-ID"))
	assert.Equal(t, chatRequest(), body)
}

func TestComplete_SelfHostedOverridesModel(t *testing.T) {
	var hdr http.Header
	var body llm.ChatRequest
	srv := serve(t, 200, `{"choices":[{"message":{"content":"BMI,24"}}]}`,
		func(r *http.Request, req llm.ChatRequest) {
			hdr = r.Header.Clone()
			body = req
		})

	c := NewClient(Config{Name: BackendSelfHosted, BaseURL: srv.URL, ModelOverride: "llama3"}, nil)
	assert.Equal(t, BackendSelfHosted, c.Name())

	out, err := c.Complete(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.Equal(t, "BMI,24", out)
	assert.Equal(t, "llama3", body.Model)
	assert.Empty(t, hdr.Get("Authorization"))
	assert.Equal(t, "llama3", c.MapModel("gpt-4o"))
	assert.Equal(t, "gpt-4o", NewClient(Config{}, nil).MapModel("gpt-4o"))
}

func TestComplete_ProviderErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"openai error object", 429, `{"error":{"message":"rate limited","type":"requests"}}`, "rate limited"},
		{"string error", 500, `{"error":"model not loaded"}`, "model not loaded"},
		{"plain body", 502, `bad gateway`, "HTTP 502: bad gateway"},
		{"empty body", 503, ``, "HTTP 503 Service Unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := serve(t, tc.status, tc.body, nil)
			c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)

			_, err := c.Complete(context.Background(), chatRequest())
			require.Error(t, err)
			ae := common.AsAppError(err)
			assert.Equal(t, common.CodeProvider, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Equal(t, tc.status, llm.HTTPStatus(err))
		})
	}
}

func TestComplete_MalformedSuccessBody(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"id":"x"}`, `not json`, `{"choices":[{"message":{"content":7}}]}`} {
		srv := serve(t, 200, body, nil)
		c := NewClient(Config{BaseURL: srv.URL}, nil)
		_, err := c.Complete(context.Background(), chatRequest())
		assert.Equal(t, common.CodeProvider, common.KindOf(err), body)
	}
}

func TestComplete_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url}, nil)
	_, err := c.Complete(context.Background(), chatRequest())
	require.Error(t, err)
	assert.Equal(t, common.CodeTransport, common.KindOf(err))
	assert.Contains(t, err.Error(), "could not reach hosted backend")
}

func TestComplete_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := c.Complete(context.Background(), chatRequest())
	require.Error(t, err)
	assert.Equal(t, common.CodeTransport, common.KindOf(err))
	assert.Equal(t, "hosted request timed out", common.AsAppError(err).Message)
}

func TestComplete_SelfHostedWithoutURL(t *testing.T) {
	c := NewClient(Config{Name: BackendSelfHosted}, nil)
	_, err := c.Complete(context.Background(), chatRequest())
	assert.Equal(t, common.CodeConfiguration, common.KindOf(err))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{}, nil)
	assert.Equal(t, BackendHosted, c.Name())
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", c.Endpoint())
}
