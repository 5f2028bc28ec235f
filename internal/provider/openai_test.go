package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIAdapter_Invoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization: %q", got)
		}
		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Model != "gemini-2.5-flash" || body.Temperature != 0 {
			t.Errorf("unexpected request: %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"message": map[string]any{"role": "assistant", "content": "Check the portal."},
			}},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL+"/v1", server.Client())
	require.NoError(t, adapter.Probe())
	at := adapter.Invoke(context.Background(), NewRequest("exam dates?", "test-key", "", -0.3))

	assert.Equal(t, OutcomeSuccess, at.Outcome, at.Reason)
	assert.Equal(t, "Check the portal.", at.Answer)
}

func TestOpenAIAdapter_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`[{"error":{"code":401,"message":"invalid key"}}]`))
	}))
	defer server.Close()

	at := NewOpenAIAdapter(server.URL, server.Client()).Invoke(context.Background(), NewRequest("q", "k", "", 0.2))
	assert.Equal(t, OutcomeRuntimeFailure, at.Outcome)
	assert.Contains(t, at.Reason, "invalid key")
}

func TestOpenAIAdapter_FallsBackToPublicEndpoint(t *testing.T) {
	a := NewOpenAIAdapter("", nil)
	require.NoError(t, a.Probe())

	c, err := construct(context.Background(), NewRequest("q", "k", "", 0.2), a.strategies())
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIBaseURL+"/chat/completions", c.url)
}

func TestOpenAIAdapter_Unavailable(t *testing.T) {
	assert.Error(t, NewOpenAIAdapter("::bad", nil).Probe())

	at := NewOpenAIAdapter("", nil).Invoke(context.Background(), NewRequest("q", "line\nbreak", "", 0.2))
	assert.Equal(t, OutcomeUnavailable, at.Outcome)
	assert.Contains(t, at.Reason, "configured-endpoint")
	assert.Contains(t, at.Reason, "public-endpoint")
}
