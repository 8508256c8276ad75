package profile

import (
	"fmt"
	"strings"
)

// Defaults applied when the setup payload omits or malforms a field.
const (
	defaultCommunicationStyle = "warm and encouraging"
	defaultSupportStyle       = "empathetic listener"
	defaultName               = "Your Reflection"
)

var (
	defaultTraits    = []string{"thoughtful", "growth-oriented"}
	defaultInterests = []string{"personal growth", "wellbeing"}
	defaultGoals     = []string{"continuous improvement"}
)

// ResolveName returns the profile name from userData: the top-level
// "name" field, else the nested "responses.name" field. ok is false
// when neither yields a non-empty string.
func ResolveName(userData map[string]any) (string, bool) {
	if name := stringField(userData, "name", "name"); name != "" {
		return name, true
	}
	return "", false
}

// FromUserData applies the field-extraction and defaulting rules to a
// raw setup payload. Every field is total: malformed or missing input
// falls back to a fixed default.
func FromUserData(userData map[string]any) Profile {
	name, ok := ResolveName(userData)
	if !ok {
		name = defaultName
	}

	return Profile{
		Name:               name,
		PersonalityTraits:  listField(userData, "personalityTraits", "personality_traits", defaultTraits),
		CommunicationStyle: stringFieldOr(userData, "communicationStyle", "communication_style", defaultCommunicationStyle),
		Interests:          csvOrListField(userData, "interests", "interests", defaultInterests),
		SupportStyle:       stringFieldOr(userData, "supportStyle", "support_style", defaultSupportStyle),
		Goals:              csvOrListField(userData, "goals", "goals", defaultGoals),
		WritingSample:      stringField(userData, "writingSample", "writing_sample"),
	}
}

// responses returns the nested "responses" object, if present.
func responses(userData map[string]any) map[string]any {
	nested, _ := userData["responses"].(map[string]any)
	return nested
}

// stringField reads a string from userData[key], falling back to the
// nested responses object under nestedKey. Returns "" when absent.
func stringField(userData map[string]any, key, nestedKey string) string {
	if s, ok := userData[key].(string); ok && s != "" {
		return s
	}
	if s, ok := responses(userData)[nestedKey].(string); ok && s != "" {
		return s
	}
	return ""
}

func stringFieldOr(userData map[string]any, key, nestedKey, fallback string) string {
	if s := stringField(userData, key, nestedKey); s != "" {
		return s
	}
	return fallback
}

// listField accepts a sequence value and returns its string elements;
// anything else yields the fallback list.
func listField(userData map[string]any, key, nestedKey string, fallback []string) []string {
	v, ok := userData[key]
	if !ok || v == nil || v == "" {
		v, ok = responses(userData)[nestedKey]
	}
	if !ok || v == nil {
		return cloneStrings(fallback)
	}
	if items := asStrings(v); items != nil {
		return items
	}
	return cloneStrings(fallback)
}

// csvOrListField accepts either a comma-separated string (split,
// trimmed, empty segments dropped) or a sequence; anything else yields
// the fallback list. An explicit empty string counts as absent, so it
// still falls through to the nested field and then the fallback.
func csvOrListField(userData map[string]any, key, nestedKey string, fallback []string) []string {
	v, ok := userData[key]
	if !ok || v == nil || v == "" {
		v, ok = responses(userData)[nestedKey]
	}
	if !ok || v == nil || v == "" {
		return cloneStrings(fallback)
	}

	if s, isStr := v.(string); isStr {
		out := []string{}
		for _, part := range strings.Split(s, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}

	if items := asStrings(v); items != nil {
		return items
	}
	return cloneStrings(fallback)
}

// asStrings converts a decoded JSON array ([]any or []string) to a
// string slice. Returns nil when v is not a sequence.
func asStrings(v any) []string {
	switch items := v.(type) {
	case []string:
		return cloneStrings(items)
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", item))
			}
		}
		return out
	default:
		return nil
	}
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
