package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GenAIAdapter talks to Gemini through the official Go SDK.
type GenAIAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewGenAIAdapter uses the SDK's default endpoint when baseURL is empty.
func NewGenAIAdapter(baseURL string, httpClient *http.Client) *GenAIAdapter {
	return &GenAIAdapter{baseURL: baseURL, httpClient: httpClient}
}

func (a *GenAIAdapter) Name() string { return "genai" }

func (a *GenAIAdapter) Probe() error {
	if a.baseURL == "" {
		return nil
	}
	return checkEndpoint(a.baseURL)
}

func (a *GenAIAdapter) strategies() []Strategy[*genai.Client] {
	return []Strategy[*genai.Client]{
		{Name: "api-key", Build: func(ctx context.Context, req Request) (*genai.Client, error) {
			if req.Credential == "" {
				return nil, errors.New("no credential")
			}
			return genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:      req.Credential,
				Backend:     genai.BackendGeminiAPI,
				HTTPClient:  a.httpClient,
				HTTPOptions: genai.HTTPOptions{BaseURL: a.baseURL},
			})
		}},
		// The SDK picks up GOOGLE_API_KEY or the Vertex AI variables on its own.
		{Name: "environment", Build: func(ctx context.Context, _ Request) (*genai.Client, error) {
			return genai.NewClient(ctx, &genai.ClientConfig{
				HTTPClient:  a.httpClient,
				HTTPOptions: genai.HTTPOptions{BaseURL: a.baseURL},
			})
		}},
	}
}

func (a *GenAIAdapter) Invoke(ctx context.Context, req Request) Attempt {
	client, err := construct(ctx, req, a.strategies())
	if err != nil {
		return Unavailable(err.Error())
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Question), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	})
	if err != nil {
		return Failure(fmt.Sprintf("generate content: %v", redact(err, req.Credential)))
	}
	if resp == nil {
		return Failure("generate content: empty response")
	}
	if text := resp.Text(); text != "" {
		return Success(text)
	}
	return Success(Extract(resp))
}
