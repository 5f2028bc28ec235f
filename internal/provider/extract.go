package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

type extractor struct {
	name string
	fn   func(v any) (string, bool)
}

// Evaluated in order; the first that finds text wins.
var extractors = []extractor{
	{"string", fromString},
	{"text", fromTextField},
	{"candidates", fromCandidates},
	{"output", fromOutput},
	{"choices", fromChoices},
	{"content", fromContentField},
}

// Extract turns any provider response into text. It never fails: when no known
// field is present the whole response is stringified.
func Extract(resp any) string {
	v := normalize(resp)
	for _, e := range extractors {
		if s, ok := e.fn(v); ok {
			return s
		}
	}
	return stringify(v)
}

// normalize maps structs and raw JSON onto plain maps, slices and strings.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, string, map[string]any, []any:
		return t
	case []byte:
		var out any
		if err := json.Unmarshal(t, &out); err == nil {
			return out
		}
		return string(t)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprint(v)
}

func fromString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

func stringField(v any, key string) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok && s != ""
}

func fromTextField(v any) (string, bool) { return stringField(v, "text") }

func fromContentField(v any) (string, bool) { return stringField(v, "content") }

func fromCandidates(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	list, ok := m["candidates"].([]any)
	if !ok {
		return "", false
	}
	var texts []string
	for _, c := range list {
		if t := candidateText(c); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n"), len(texts) > 0
}

func candidateText(c any) string {
	if s, ok := stringField(c, "text"); ok {
		return s
	}
	m, ok := c.(map[string]any)
	if !ok {
		return ""
	}
	content, ok := m["content"].(map[string]any)
	if !ok {
		return ""
	}
	return joinParts(content["parts"])
}

// joinParts concatenates the text of every part; thought parts are skipped.
func joinParts(v any) string {
	parts, ok := v.([]any)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		pm, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if thought, _ := pm["thought"].(bool); thought {
			continue
		}
		if s, ok := pm["text"].(string); ok {
			b.WriteString(s)
		}
	}
	return b.String()
}

func fromOutput(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	switch out := m["output"].(type) {
	case string:
		return out, out != ""
	case map[string]any:
		return fromCandidates(out)
	case []any:
		// Responses-API shape: output[].content[].text
		var texts []string
		for _, item := range out {
			im, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if t := joinParts(im["content"]); t != "" {
				texts = append(texts, t)
			}
		}
		return strings.Join(texts, "\n"), len(texts) > 0
	}
	return "", false
}

func fromChoices(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	choices, ok := m["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	if msg, ok := first["message"].(map[string]any); ok {
		if s, ok := msg["content"].(string); ok && s != "" {
			return s, true
		}
	}
	return stringField(first, "text")
}
