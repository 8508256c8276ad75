// Package mood classifies free-text messages into coarse emotional-tone
// labels and scans for high-risk safety phrases. Classification is pure
// first-match-wins substring containment over fixed keyword lists.
package mood

import "strings"

// Mood is a coarse emotional-tone label for a single message.
type Mood string

const (
	Sad        Mood = "sad"
	Frustrated Mood = "frustrated"
	Happy      Mood = "happy"
	Anxious    Mood = "anxious"
	Uncertain  Mood = "uncertain"
	Grateful   Mood = "grateful"
	Motivated  Mood = "motivated"
	Neutral    Mood = "neutral"

	// Concerning is reserved for safety short-circuits; Detect never
	// returns it.
	Concerning Mood = "concerning"
)

type moodCategory struct {
	mood     Mood
	keywords []string
}

// Category order is fixed: the first category containing a matching
// keyword wins, so "anxious and overwhelmed" classifies as anxious even
// though "overwhelmed" could read as uncertain.
var moodCategories = []moodCategory{
	{Sad, []string{"sad", "down", "depressed", "lonely", "empty", "blue"}},
	{Frustrated, []string{"angry", "frustrated", "mad", "annoyed", "irritated", "upset"}},
	{Happy, []string{"happy", "excited", "great", "amazing", "wonderful", "fantastic", "joy"}},
	{Anxious, []string{"worried", "anxious", "stress", "nervous", "scared", "overwhelmed"}},
	{Uncertain, []string{"confused", "lost", "unsure", "don't know", "unclear", "stuck"}},
	{Grateful, []string{"grateful", "thankful", "blessed", "appreciate", "lucky"}},
	{Motivated, []string{"motivated", "inspired", "determined", "focused", "driven"}},
}

// Detect returns the mood label for message: the first category (in
// fixed priority order) with a keyword contained in the lowercased
// message, or Neutral when nothing matches.
func Detect(message string) Mood {
	msg := strings.ToLower(message)
	for _, cat := range moodCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(msg, kw) {
				return cat.mood
			}
		}
	}
	return Neutral
}
