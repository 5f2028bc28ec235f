package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const DefaultRESTBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// RESTAdapter calls the Gemini generateContent endpoint directly over HTTP.
type RESTAdapter struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTAdapter(baseURL string, httpClient *http.Client) *RESTAdapter {
	if baseURL == "" {
		baseURL = DefaultRESTBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RESTAdapter{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (a *RESTAdapter) Name() string { return "rest" }

func (a *RESTAdapter) Probe() error { return checkEndpoint(a.baseURL) }

// restClient carries how the key is attached to each request.
type restClient struct {
	endpoint string
	auth     func(*http.Request)
}

func (a *RESTAdapter) strategies() []Strategy[*restClient] {
	return []Strategy[*restClient]{
		{Name: "header-key", Build: func(_ context.Context, req Request) (*restClient, error) {
			if err := headerSafe(req.Credential); err != nil {
				return nil, err
			}
			key := req.Credential
			return &restClient{
				endpoint: a.endpoint(req.Model),
				auth:     func(r *http.Request) { r.Header.Set("x-goog-api-key", key) },
			}, nil
		}},
		{Name: "query-key", Build: func(_ context.Context, req Request) (*restClient, error) {
			if req.Credential == "" {
				return nil, errors.New("no credential")
			}
			return &restClient{
				endpoint: a.endpoint(req.Model) + "?key=" + url.QueryEscape(req.Credential),
				auth:     func(*http.Request) {},
			}, nil
		}},
	}
}

func (a *RESTAdapter) endpoint(model string) string {
	return fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, url.PathEscape(model))
}

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restRequest struct {
	Contents         []restContent `json:"contents"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (a *RESTAdapter) Invoke(ctx context.Context, req Request) Attempt {
	client, err := construct(ctx, req, a.strategies())
	if err != nil {
		return Unavailable(err.Error())
	}

	body := restRequest{Contents: []restContent{{Role: "user", Parts: []restPart{{Text: req.Question}}}}}
	body.GenerationConfig.Temperature = req.Temperature
	data, err := json.Marshal(body)
	if err != nil {
		return Failure(fmt.Sprintf("marshal request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoint, bytes.NewReader(data))
	if err != nil {
		return Failure(fmt.Sprintf("create request: %v", redact(err, req.Credential)))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	client.auth(httpReq)

	raw, status, err := doJSON(a.httpClient, httpReq)
	if err != nil {
		return Failure(redact(err, req.Credential).Error())
	}
	if status >= http.StatusBadRequest {
		return Failure(statusError(status, raw))
	}
	return Success(Extract(raw))
}

// doJSON performs the request and returns the raw body. Transport errors may
// contain the request URL, so callers redact them.
func doJSON(c *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return raw, resp.StatusCode, nil
}

func statusError(status int, raw []byte) string {
	var e apiError
	if json.Unmarshal(raw, &e) == nil && e.Error != nil && e.Error.Message != "" {
		return fmt.Sprintf("API status %d: %s", status, e.Error.Message)
	}
	// Some OpenAI-compatible gateways wrap the error in a list.
	var list []apiError
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 && list[0].Error != nil && list[0].Error.Message != "" {
		return fmt.Sprintf("API status %d: %s", status, list[0].Error.Message)
	}
	snippet := strings.TrimSpace(string(raw))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	if snippet == "" {
		return fmt.Sprintf("API status %d %s", status, http.StatusText(status))
	}
	return fmt.Sprintf("API status %d: %s", status, snippet)
}

func checkEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: want an absolute http(s) URL", raw)
	}
	return nil
}

func headerSafe(credential string) error {
	if credential == "" {
		return errors.New("no credential")
	}
	for _, r := range credential {
		if r < 0x20 || r > 0x7e {
			return errors.New("credential is not a valid header value")
		}
	}
	return nil
}

func redact(err error, credential string) error {
	if credential == "" {
		return err
	}
	msg := err.Error()
	msg = strings.ReplaceAll(msg, url.QueryEscape(credential), "[redacted]")
	msg = strings.ReplaceAll(msg, credential, "[redacted]")
	return errors.New(msg)
}
