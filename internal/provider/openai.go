package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultOpenAIBaseURL is Gemini's OpenAI-compatible surface.
const DefaultOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// OpenAIAdapter speaks the OpenAI chat-completions dialect, which Gemini and
// most gateways in front of it accept.
type OpenAIAdapter struct {
	configured string
	httpClient *http.Client
}

// NewOpenAIAdapter takes an optional configured endpoint; the public Gemini
// endpoint is tried after it.
func NewOpenAIAdapter(baseURL string, httpClient *http.Client) *OpenAIAdapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAIAdapter{configured: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (a *OpenAIAdapter) Name() string { return "openai" }

func (a *OpenAIAdapter) Probe() error {
	if a.configured == "" {
		return nil
	}
	return checkEndpoint(a.configured)
}

type openAIClient struct {
	url string
	key string
}

func (a *OpenAIAdapter) strategies() []Strategy[*openAIClient] {
	build := func(base string) func(context.Context, Request) (*openAIClient, error) {
		return func(_ context.Context, req Request) (*openAIClient, error) {
			if base == "" {
				return nil, errors.New("no endpoint configured")
			}
			if err := headerSafe(req.Credential); err != nil {
				return nil, err
			}
			return &openAIClient{url: base + "/chat/completions", key: req.Credential}, nil
		}
	}
	return []Strategy[*openAIClient]{
		{Name: "configured-endpoint", Build: build(a.configured)},
		{Name: "public-endpoint", Build: build(DefaultOpenAIBaseURL)},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

func (a *OpenAIAdapter) Invoke(ctx context.Context, req Request) Attempt {
	client, err := construct(ctx, req, a.strategies())
	if err != nil {
		return Unavailable(err.Error())
	}

	b, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Question}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return Failure(fmt.Sprintf("marshal request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, client.url, bytes.NewReader(b))
	if err != nil {
		return Failure(fmt.Sprintf("create request: %v", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+client.key)
	httpReq.Header.Set("Content-Type", "application/json")

	raw, status, err := doJSON(a.httpClient, httpReq)
	if err != nil {
		return Failure(redact(err, req.Credential).Error())
	}
	if status >= http.StatusBadRequest {
		return Failure(statusError(status, raw))
	}
	return Success(Extract(raw))
}
