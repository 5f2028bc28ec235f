package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DefaultAdapters is the try order when none is configured: SDK first, then the
// raw REST endpoint, then the OpenAI-compatible surface.
var DefaultAdapters = []string{"genai", "rest", "openai"}

type Settings struct {
	GenAIBaseURL  string
	RESTBaseURL   string
	OpenAIBaseURL string
	HTTPClient    *http.Client
}

// Build assembles a chain from adapter names. Unknown names stay in the chain
// and report themselves unavailable, so a typo shows up in the failure details.
func Build(names []string, s Settings, logger *zap.Logger, recorder Recorder) *Chain {
	if len(names) == 0 {
		names = DefaultAdapters
	}
	adapters := make([]Adapter, 0, len(names))
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "genai":
			adapters = append(adapters, NewGenAIAdapter(s.GenAIBaseURL, s.HTTPClient))
		case "rest":
			adapters = append(adapters, NewRESTAdapter(s.RESTBaseURL, s.HTTPClient))
		case "openai":
			adapters = append(adapters, NewOpenAIAdapter(s.OpenAIBaseURL, s.HTTPClient))
		default:
			adapters = append(adapters, unknownAdapter(n))
		}
	}
	return NewChain(logger, recorder, adapters...)
}

type unknownAdapter string

func (u unknownAdapter) Name() string { return string(u) }

func (u unknownAdapter) Probe() error {
	return fmt.Errorf("no adapter family named %q (known: %s)", string(u), strings.Join(DefaultAdapters, ", "))
}

func (u unknownAdapter) Invoke(context.Context, Request) Attempt {
	return Unavailable(u.Probe().Error())
}
