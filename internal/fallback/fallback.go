// Package fallback holds the canned-response tables used when the
// upstream model is unavailable, plus per-mood suggestion prompts and
// the safety support escalation. Every lookup is total over the mood
// domain: unknown labels hit a default entry, never an error.
package fallback

import (
	"fmt"
	"math/rand/v2"

	"github.com/kalambet/innervoice/internal/mood"
	"github.com/kalambet/innervoice/internal/profile"
)

// personalized fallback templates, keyed by mood; %s interpolates the
// profile (reflection) name.
var personalized = map[mood.Mood]string{
	mood.Sad:        "I can sense the heaviness in your words. Remember, %s believes in your strength, even when it's hard to see.",
	mood.Frustrated: "That frustration sounds intense. Your %s knows you have the wisdom to work through this challenge.",
	mood.Happy:      "I can feel the joy in your message! Your %s celebrates these bright moments with you.",
	mood.Anxious:    "Those worries feel big right now. Let your %s remind you that you've overcome difficulties before.",
	mood.Neutral:    "I hear you, and your %s is here to listen and reflect with you on whatever you're experiencing.",
}

// generic fallbacks carry no profile context.
var generic = map[mood.Mood]string{
	mood.Sad:        "I'm here with you in this difficult moment. Your feelings are valid, and you don't have to face this alone.",
	mood.Frustrated: "That frustration is real and understandable. Sometimes taking a breath can help us see new possibilities.",
	mood.Happy:      "I love seeing this joy in you! These positive moments are treasures to hold onto.",
	mood.Anxious:    "Those anxious feelings are tough to carry. Remember that you have inner strength, even when it doesn't feel that way.",
	mood.Neutral:    "I'm here with you, ready to listen and reflect together on whatever is on your mind.",
}

var suggestions = map[mood.Mood][3]string{
	mood.Sad:        {"Tell me more about that feeling", "What would bring you comfort?", "What's one small thing that might help?"},
	mood.Frustrated: {"What's the core of this frustration?", "How can we channel this energy?", "What would resolution look like?"},
	mood.Happy:      {"What made this moment special?", "How can you create more joy?", "What are you most grateful for?"},
	mood.Anxious:    {"What feels manageable right now?", "Let's break this down together", "What would help you feel grounded?"},
	mood.Uncertain:  {"What do you know for sure?", "What's your intuition telling you?", "What's one small next step?"},
	mood.Grateful:   {"What else brings you joy?", "How can you share this feeling?", "What are you looking forward to?"},
	mood.Motivated:  {"What's driving this energy?", "How will you maintain this momentum?", "What's your next goal?"},
}

var defaultSuggestions = [3]string{
	"What's your inner wisdom telling you?",
	"Tell me more about that",
	"How are you feeling about this?",
}

// supportMessages are the crisis-resource replies for safety escalations.
var supportMessages = []string{
	"I'm really concerned about what you've shared. Your feelings matter, and you don't have to go through this alone. Please consider reaching out to a mental health professional or a crisis helpline.",
	"What you're going through sounds incredibly difficult. Please know that help is available, and things can get better. Consider calling the 988 Suicide & Crisis Lifeline (dial 988) or text 'HELLO' to 741741.",
	"I hear your pain, and I want you to know that you matter. This feeling doesn't have to be permanent. Please reach out to someone who can help - a counselor, trusted friend, or crisis support line.",
}

var supportSuggestions = [3]string{
	"Tell me about your support system",
	"What helps you feel safe?",
	"Can you reach out to someone today?",
}

// Respond returns the mood-keyed canned reply interpolating the profile
// name. Unknown moods fall back to the neutral entry.
func Respond(p profile.Profile, m mood.Mood) string {
	tmpl, ok := personalized[m]
	if !ok {
		tmpl = personalized[mood.Neutral]
	}
	return fmt.Sprintf(tmpl, p.Name)
}

// Generic returns the profile-independent canned reply for a mood.
func Generic(m mood.Mood) string {
	if reply, ok := generic[m]; ok {
		return reply
	}
	return generic[mood.Neutral]
}

// Suggestions returns the three follow-up prompts for a mood, or the
// default triple for unrecognized labels (including Neutral and Concerning).
func Suggestions(m mood.Mood) []string {
	if s, ok := suggestions[m]; ok {
		return s[:]
	}
	return defaultSuggestions[:]
}

// SupportResponse is the safety-escalation substitute reply.
type SupportResponse struct {
	Reply        string
	Suggestions  []string
	Mood         mood.Mood // always Concerning
	NeedsSupport bool
}

// Support picks one crisis-resource message uniformly at random. The
// random source is injected so tests can assert deterministically.
func Support(rng *rand.Rand) SupportResponse {
	return SupportResponse{
		Reply:        supportMessages[rng.IntN(len(supportMessages))],
		Suggestions:  supportSuggestions[:],
		Mood:         mood.Concerning,
		NeedsSupport: true,
	}
}
