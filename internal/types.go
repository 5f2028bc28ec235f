package internal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeProvider  Mode = "provider"
	ModeRuleBased Mode = "rule-based"
)

// ParseMode accepts the two caller-facing mode names.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeProvider, ModeRuleBased:
		return Mode(s), nil
	case "":
		return ModeRuleBased, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeProvider, ModeRuleBased)
}

// Query is one question as handed over by a caller. Zero values mean "not supplied".
type Query struct {
	Mode        Mode
	Question    string
	Credential  string
	Model       string
	Temperature *float64
}

// Answer carries the produced text and, in provider mode, the credential source label.
// CredentialSource is empty when no label applies.
type Answer struct {
	Text             string
	CredentialSource string
}

// Turn is one question/answer exchange kept by the session store.
type Turn struct {
	ID        uuid.UUID `json:"id"`
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatHistory struct {
	Turns []Turn `json:"turns"`
}

type AskRequest struct {
	Mode        string   `json:"mode"`
	Question    string   `json:"question"`
	APIKey      string   `json:"api_key,omitempty"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type AskResponse struct {
	Answer           string `json:"answer"`
	CredentialSource string `json:"credential_source,omitempty"`
	Turn             Turn   `json:"turn"`
}

type KnowledgeList struct {
	Questions []string `json:"questions"`
}

type Settings struct {
	Modes              []Mode   `json:"modes"`
	DefaultModel       string   `json:"default_model"`
	DefaultTemperature float64  `json:"default_temperature"`
	Adapters           []string `json:"adapters"`
}
