// Package composer assembles the upstream instruction prompt from a
// profile, the current message, the detected mood, and recent history.
package composer

import (
	"fmt"
	"strings"

	"github.com/kalambet/innervoice/internal/mood"
	"github.com/kalambet/innervoice/internal/profile"
)

const (
	// historyWindow is the number of recent exchanges rendered into the prompt.
	historyWindow = 6

	// sampleExcerptLen caps the writing-sample excerpt.
	sampleExcerptLen = 200
)

// BuildPrompt renders the fixed instruction template. Pure function:
// empty lists and strings render as empty joins, never fail.
func BuildPrompt(p profile.Profile, message string, m mood.Mood, history []profile.ConversationEntry) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are \"%s\" - an AI reflection and inner wisdom guide for this person.\n\n", p.Name)

	sb.WriteString("PERSONALITY PROFILE:\n")
	fmt.Fprintf(&sb, "- Traits: %s\n", strings.Join(p.PersonalityTraits, ", "))
	fmt.Fprintf(&sb, "- Communication Style: %s\n", p.CommunicationStyle)
	fmt.Fprintf(&sb, "- Interests: %s\n", strings.Join(p.Interests, ", "))
	fmt.Fprintf(&sb, "- Support Style: %s\n", p.SupportStyle)
	fmt.Fprintf(&sb, "- Goals: %s\n\n", strings.Join(p.Goals, ", "))

	sb.WriteString("CONTEXT:\n")
	fmt.Fprintf(&sb, "- Current mood detected: %s\n", m)
	fmt.Fprintf(&sb, "- Writing sample: \"%s...\"\n\n", excerpt(p.WritingSample, sampleExcerptLen))

	sb.WriteString("RECENT CONVERSATION:\n")
	sb.WriteString(renderHistory(history))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "CURRENT MESSAGE: \"%s\"\n\n", message)

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("Respond as their wise inner voice with 2-4 sentences. Be supportive, insightful, and personalized to their profile. Match their communication style while offering gentle guidance and reflection. Focus on their growth and wellbeing.\n\n")
	sb.WriteString("Response:")

	return sb.String()
}

// renderHistory formats the most recent historyWindow entries as
// alternating labeled lines.
func renderHistory(history []profile.ConversationEntry) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	lines := make([]string, 0, len(history))
	for _, e := range history {
		lines = append(lines, fmt.Sprintf("User: %s\nReflection: %s", e.User, e.AI))
	}
	return strings.Join(lines, "\n\n")
}

// excerpt truncates s to at most n bytes without splitting a multi-byte
// rune. The template appends the trailing ellipsis regardless of length.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
