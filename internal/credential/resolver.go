// Package credential decides which API credential, if any, authorizes a call to
// the generative-AI provider, and reports where it came from.
package credential

import (
	"os"
	"strings"
)

const (
	PrimaryKeyName   = "GEMINI_API_KEY"
	AlternateKeyName = "GOOGLE_API_KEY"
)

// Source is the provenance of a resolved credential.
type Source int

const (
	SourceNone Source = iota
	SourceSecret
	SourceAlternateSecret
	SourceUserSupplied
	SourceEnvironment
)

func (s Source) String() string {
	switch s {
	case SourceSecret:
		return "explicit-secret"
	case SourceAlternateSecret:
		return "explicit-alternate-secret"
	case SourceUserSupplied:
		return "user-supplied"
	case SourceEnvironment:
		return "environment"
	default:
		return "none"
	}
}

// Label is the caller-facing tag. It never contains the credential.
func (s Source) Label() string {
	switch s {
	case SourceSecret, SourceAlternateSecret:
		return "secret-store"
	case SourceUserSupplied:
		return "user-supplied"
	case SourceEnvironment:
		return "environment"
	default:
		return "none"
	}
}

// Resolver walks secret store, caller value and environment, in that order.
type Resolver struct {
	Secrets   SecretStore
	LookupEnv func(string) (string, bool)
}

// NewResolver uses the process environment. secrets may be nil.
func NewResolver(secrets SecretStore) *Resolver {
	return &Resolver{Secrets: secrets, LookupEnv: os.LookupEnv}
}

// Resolve returns the effective credential and its source. An empty credential
// always comes with SourceNone.
func (r *Resolver) Resolve(explicit string) (string, Source) {
	if v, ok := r.secret(PrimaryKeyName); ok {
		return v, SourceSecret
	}
	if v, ok := r.secret(AlternateKeyName); ok {
		return v, SourceAlternateSecret
	}
	if v, ok := Normalize(explicit); ok {
		return v, SourceUserSupplied
	}
	if r.LookupEnv != nil {
		for _, name := range []string{PrimaryKeyName, AlternateKeyName} {
			raw, _ := r.LookupEnv(name)
			if v, ok := Normalize(raw); ok {
				return v, SourceEnvironment
			}
		}
	}
	return "", SourceNone
}

func (r *Resolver) secret(name string) (v string, ok bool) {
	if r.Secrets == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			v, ok = "", false
		}
	}()
	raw, found := r.Secrets.Lookup(name)
	if !found {
		return "", false
	}
	return Normalize(raw)
}

// Normalize trims whitespace and strips one layer of matching quotes.
// ok is false when nothing is left.
func Normalize(raw string) (string, bool) {
	k := strings.TrimSpace(raw)
	if len(k) >= 2 {
		if (k[0] == '"' && k[len(k)-1] == '"') || (k[0] == '\'' && k[len(k)-1] == '\'') {
			k = k[1 : len(k)-1]
		}
	}
	if k == "" {
		return "", false
	}
	return k, true
}
