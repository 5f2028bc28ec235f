package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unilife/qa-bot/internal"
	"github.com/unilife/qa-bot/internal/config"
	"github.com/unilife/qa-bot/internal/kb"
	"github.com/unilife/qa-bot/internal/provider"
	"github.com/unilife/qa-bot/internal/router"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: "0", AllowedOrigin: "http://localhost:5173"},
		Provider: config.ProviderConfig{
			DefaultModel:       provider.DefaultModel,
			DefaultTemperature: provider.DefaultTemperature,
			Adapters:           []string{"rest"},
			HTTPTimeout:        5 * time.Second,
		},
		Secrets: config.SecretsConfig{File: filepath.Join(t.TempDir(), "secrets.toml")},
	}
}

func testApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	a, err := newApp(cfg, zap.NewNop())
	require.NoError(t, err)
	return a
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAsk_RuleBased(t *testing.T) {
	a := testApp(t, testConfig(t))
	h := newEngine(a)

	w := doJSON(t, h, http.MethodPost, "/api/ask", internal.AskRequest{Mode: "rule-based", Question: "How do I register for exams?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp internal.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, kb.Default().Entries()[1].Answer, resp.Answer)
	assert.Empty(t, resp.CredentialSource)
	assert.Equal(t, "How do I register for exams?", resp.Turn.User)
	assert.Equal(t, 1, a.history.Len())
}

func TestAsk_BlankQuestionAddsNothing(t *testing.T) {
	a := testApp(t, testConfig(t))
	h := newEngine(a)

	w := doJSON(t, h, http.MethodPost, "/api/ask", internal.AskRequest{Mode: "provider", Question: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, a.history.Len())
}

func TestAsk_UnknownMode(t *testing.T) {
	a := testApp(t, testConfig(t))
	w := doJSON(t, newEngine(a), http.MethodPost, "/api/ask", internal.AskRequest{Mode: "oracle", Question: "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown mode")
}

func TestAsk_InvalidJSON(t *testing.T) {
	a := testApp(t, testConfig(t))
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader("{"))
	w := httptest.NewRecorder()
	newEngine(a).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAsk_ProviderNotConfigured(t *testing.T) {
	a := testApp(t, testConfig(t))
	w := doJSON(t, newEngine(a), http.MethodPost, "/api/ask", internal.AskRequest{Mode: "provider", Question: "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp internal.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, router.NotConfigured, resp.Answer)
	assert.Equal(t, "none", resp.CredentialSource)
}

func TestAsk_ProviderThroughREST(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "pasted-key" {
			t.Errorf("unexpected key header %q", r.Header.Get("x-goog-api-key"))
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"The gym is in Building C."}]}}]}`))
	}))
	defer upstream.Close()

	cfg := testConfig(t)
	cfg.Provider.RESTBaseURL = upstream.URL
	a := testApp(t, cfg)

	temp := 0.4
	w := doJSON(t, newEngine(a), http.MethodPost, "/api/ask", internal.AskRequest{
		Mode: "provider", Question: "Where is the gym?", APIKey: "pasted-key", Temperature: &temp,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp internal.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "The gym is in Building C.", resp.Answer)
	assert.Equal(t, "user-supplied", resp.CredentialSource)
	assert.NotContains(t, w.Body.String(), "pasted-key")
}

func TestHistoryLifecycle(t *testing.T) {
	a := testApp(t, testConfig(t))
	h := newEngine(a)

	w := doJSON(t, h, http.MethodGet, "/api/history/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	doJSON(t, h, http.MethodPost, "/api/ask", internal.AskRequest{Question: "Where is the library?"})

	w = doJSON(t, h, http.MethodGet, "/api/history", nil)
	var hist internal.ChatHistory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	require.Len(t, hist.Turns, 1)

	w = doJSON(t, h, http.MethodGet, "/api/history/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), transcriptName)
	assert.True(t, strings.HasPrefix(w.Body.String(), "You: Where is the library?\nBot: "))

	w = doJSON(t, h, http.MethodDelete, "/api/history", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, a.history.Len())
}

func TestInfoEndpoints(t *testing.T) {
	a := testApp(t, testConfig(t))
	h := newEngine(a)

	w := doJSON(t, h, http.MethodGet, "/api/kb", nil)
	var list internal.KnowledgeList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, kb.Default().Questions(), list.Questions)

	w = doJSON(t, h, http.MethodGet, "/api/settings", nil)
	var s internal.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, provider.DefaultModel, s.DefaultModel)
	assert.Equal(t, []string{"rest"}, s.Adapters)

	w = doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	doJSON(t, h, http.MethodPost, "/api/ask", internal.AskRequest{Question: "library"})
	w = doJSON(t, h, http.MethodGet, "/metrics", nil)
	assert.Contains(t, w.Body.String(), `unilife_answers_total{mode="rule-based"} 1`)

	w = doJSON(t, h, http.MethodOptions, "/api/ask", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
