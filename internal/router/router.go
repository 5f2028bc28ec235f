// Package router decides how a question is answered: from the knowledge base or
// through the provider chain.
package router

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/unilife/qa-bot/internal"
	"github.com/unilife/qa-bot/internal/credential"
	"github.com/unilife/qa-bot/internal/kb"
	"github.com/unilife/qa-bot/internal/provider"
)

// NotConfigured is returned in provider mode when no credential resolves.
const NotConfigured = "(Gemini not configured) No Gemini API key found. Provide GEMINI_API_KEY or GOOGLE_API_KEY in the secrets file or the environment, or pass an api_key with the question."

// Invoker is satisfied by *provider.Chain.
type Invoker interface {
	Invoke(ctx context.Context, req provider.Request) (string, []provider.Attempt)
}

// Metrics is satisfied by *metrics.Metrics.
type Metrics interface {
	RecordAnswer(mode internal.Mode)
	RecordCredential(label string)
}

type Router struct {
	KB                 *kb.KnowledgeBase
	Resolver           *credential.Resolver
	Chain              Invoker
	DefaultModel       string
	DefaultTemperature float64
	Logger             *zap.Logger
	Metrics            Metrics
}

func New(base *kb.KnowledgeBase, resolver *credential.Resolver, chain Invoker, logger *zap.Logger) *Router {
	return &Router{
		KB:                 base,
		Resolver:           resolver,
		Chain:              chain,
		DefaultModel:       provider.DefaultModel,
		DefaultTemperature: provider.DefaultTemperature,
		Logger:             logger,
	}
}

// Answer produces the answer for q. ok is false for a blank question, in which
// case nothing was produced.
func (r *Router) Answer(ctx context.Context, q internal.Query) (ans internal.Answer, ok bool) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return internal.Answer{}, false
	}
	logger := r.logger()

	if q.Mode != internal.ModeProvider {
		r.recordAnswer(internal.ModeRuleBased)
		return internal.Answer{Text: r.KB.Match(question)}, true
	}
	r.recordAnswer(internal.ModeProvider)

	key, src := r.Resolver.Resolve(q.Credential)
	if r.Metrics != nil {
		r.Metrics.RecordCredential(src.Label())
	}
	logger.Debug("credential resolved", zap.String("source", src.Label()))
	if src == credential.SourceNone {
		return internal.Answer{Text: NotConfigured, CredentialSource: src.Label()}, true
	}

	model := q.Model
	if strings.TrimSpace(model) == "" {
		model = r.DefaultModel
	}
	temperature := r.DefaultTemperature
	if q.Temperature != nil {
		temperature = *q.Temperature
	}
	req := provider.NewRequest(question, key, model, temperature)
	text, attempts := r.Chain.Invoke(ctx, req)
	logger.Debug("provider chain finished", zap.Stringer("request", req), zap.Int("attempts", len(attempts)))
	return internal.Answer{Text: text, CredentialSource: src.Label()}, true
}

func (r *Router) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Router) recordAnswer(mode internal.Mode) {
	if r.Metrics != nil {
		r.Metrics.RecordAnswer(mode)
	}
}
