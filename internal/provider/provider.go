// Package provider calls the external generative-AI provider through an ordered
// chain of adapters, each one a different way of talking to it.
package provider

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.2
)

// Request is built once per provider-mode query and never mutated.
type Request struct {
	Question    string
	Credential  string
	Model       string
	Temperature float64
}

// NewRequest fills the default model and clamps temperature to [0, 1].
func NewRequest(question, credential, model string, temperature float64) Request {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return Request{
		Question:    question,
		Credential:  credential,
		Model:       strings.TrimSpace(model),
		Temperature: ClampTemperature(temperature),
	}
}

func ClampTemperature(t float64) float64 {
	switch {
	case math.IsNaN(t):
		return DefaultTemperature
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}

// String keeps the credential out of logs and error text.
func (r Request) String() string {
	return fmt.Sprintf("Request{model=%s temperature=%.2f question_len=%d credential=[redacted]}", r.Model, r.Temperature, len(r.Question))
}

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeUnavailable
	OutcomeRuntimeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "runtime failure"
	}
}

// Attempt is the result of trying one adapter.
type Attempt struct {
	Adapter string
	Outcome Outcome
	Answer  string
	Reason  string
}

func Success(answer string) Attempt { return Attempt{Outcome: OutcomeSuccess, Answer: answer} }

func Unavailable(reason string) Attempt { return Attempt{Outcome: OutcomeUnavailable, Reason: reason} }

func Failure(reason string) Attempt { return Attempt{Outcome: OutcomeRuntimeFailure, Reason: reason} }

// Adapter is one integration pattern for the provider. Probe reports whether the
// adapter can be used at all; Invoke builds a client and makes a single call.
type Adapter interface {
	Name() string
	Probe() error
	Invoke(ctx context.Context, req Request) Attempt
}

// Recorder observes every attempt.
type Recorder interface {
	RecordAttempt(adapter string, outcome Outcome)
}

type Chain struct {
	adapters []Adapter
	logger   *zap.Logger
	recorder Recorder
}

func NewChain(logger *zap.Logger, recorder Recorder, adapters ...Adapter) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{adapters: adapters, logger: logger, recorder: recorder}
}

func (c *Chain) Names() []string {
	names := make([]string, len(c.adapters))
	for i, a := range c.adapters {
		names[i] = a.Name()
	}
	return names
}

// Invoke tries adapters in order and stops at the first success. When none
// succeeds the returned text is FailureMessage(attempts).
func (c *Chain) Invoke(ctx context.Context, req Request) (string, []Attempt) {
	attempts := make([]Attempt, 0, len(c.adapters))
	for _, a := range c.adapters {
		start := time.Now()
		at := c.try(ctx, a, req)
		at.Adapter = a.Name()
		attempts = append(attempts, at)
		if c.recorder != nil {
			c.recorder.RecordAttempt(at.Adapter, at.Outcome)
		}

		if at.Outcome == OutcomeSuccess {
			c.logger.Info("provider answered",
				zap.String("adapter", at.Adapter),
				zap.String("model", req.Model),
				zap.Duration("elapsed", time.Since(start)),
				zap.Int("answer_len", len(at.Answer)))
			return at.Answer, attempts
		}
		c.logger.Debug("adapter skipped",
			zap.String("adapter", at.Adapter),
			zap.Stringer("outcome", at.Outcome),
			zap.String("reason", at.Reason))
	}

	c.logger.Warn("no provider adapter succeeded", zap.Int("attempts", len(attempts)))
	return FailureMessage(attempts), attempts
}

func (c *Chain) try(ctx context.Context, a Adapter, req Request) (at Attempt) {
	defer func() {
		if p := recover(); p != nil {
			at = Failure(fmt.Sprintf("panic: %v", p))
		}
	}()
	if err := a.Probe(); err != nil {
		return Unavailable(err.Error())
	}
	return a.Invoke(ctx, req)
}

const failurePreamble = "(Gemini client not available) No provider integration succeeded. " +
	"To enable AI answers, set GEMINI_API_KEY or GOOGLE_API_KEY (secrets file, environment, or the api_key field) " +
	"and make sure at least one adapter in provider.adapters (genai, rest, openai) is configured and can reach the API. " +
	"Details: "

// FailureMessage lists every attempt's reason in attempt order.
func FailureMessage(attempts []Attempt) string {
	if len(attempts) == 0 {
		return failurePreamble + "no details available"
	}
	parts := make([]string, len(attempts))
	for i, at := range attempts {
		parts[i] = fmt.Sprintf("%s %s: %s", at.Adapter, at.Outcome, at.Reason)
	}
	return failurePreamble + strings.Join(parts, "; ")
}

// Strategy is one way of constructing a client of type C.
type Strategy[C any] struct {
	Name  string
	Build func(ctx context.Context, req Request) (C, error)
}

// construct returns the first client that builds, or an error naming every
// strategy that failed.
func construct[C any](ctx context.Context, req Request, strategies []Strategy[C]) (C, error) {
	var zero C
	failed := make([]string, 0, len(strategies))
	for _, s := range strategies {
		c, err := s.Build(ctx, req)
		if err == nil {
			return c, nil
		}
		failed = append(failed, fmt.Sprintf("%s: %v", s.Name, err))
	}
	if len(failed) == 0 {
		return zero, fmt.Errorf("no client construction strategy")
	}
	return zero, fmt.Errorf("client construction failed (%s)", strings.Join(failed, ", "))
}
