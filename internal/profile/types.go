package profile

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested profile does not exist.
var ErrNotFound = errors.New("profile not found")

// Profile is a stored personality configuration driving prompt
// personalization for one end user. Created once by the setup flow;
// the identifier is generated at creation and never changes.
type Profile struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	PersonalityTraits  []string    `json:"personalityTraits"`
	CommunicationStyle string      `json:"communicationStyle"`
	Interests          []string    `json:"interests"`
	SupportStyle       string      `json:"supportStyle"`
	Goals              []string    `json:"goals"`
	WritingSample      string      `json:"writingSample"`
	CreatedAt          time.Time   `json:"createdAt"`
	ConversationCount  int         `json:"conversationCount"`
	SafetyFlags        SafetyFlags `json:"safetyFlags"`
}

// SafetyFlags track concerning-message observations. Both fields are
// monotonically non-decreasing.
type SafetyFlags struct {
	ConcerningMessages int  `json:"concerningMessages"`
	NeedsSupport       bool `json:"needsSupport"`
}

// ConversationEntry is one user-message/reply exchange. Entries are
// append-only and ordered by insertion.
type ConversationEntry struct {
	User      string    `json:"user"`
	AI        string    `json:"ai"`
	Mood      string    `json:"mood"`
	Timestamp time.Time `json:"timestamp"`

	// Escalation marks a safety-escalation turn. Escalation entries are
	// kept for auditability but excluded from the conversation count.
	Escalation bool `json:"escalation,omitempty"`
}

// Summary is the reduced profile view returned by List. It carries no
// history, no writing sample, and no safety internals.
type Summary struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	CreatedAt         time.Time `json:"createdAt"`
	ConversationCount int       `json:"conversationCount"`
	Traits            []string  `json:"traits"`
}

// Store is the profile storage contract. Implementations must serialize
// mutation per profile so concurrent Append/FlagConcern calls against
// the same identifier cannot lose updates.
type Store interface {
	// Create generates an identifier, applies the field-extraction and
	// defaulting rules to userData, and stores the profile with empty history.
	Create(userData map[string]any) (Profile, error)

	// Get returns the profile for id, or ErrNotFound.
	Get(id string) (Profile, error)

	// Append records a conversation entry for id, or ErrNotFound.
	// Non-escalation entries increment the conversation count.
	Append(id string, entry ConversationEntry) error

	// History returns the most recent limit entries for id in insertion
	// order (all retained entries when limit <= 0), or ErrNotFound.
	History(id string, limit int) ([]ConversationEntry, error)

	// FlagConcern increments the profile's concerning-message counter and
	// sets its needs-support flag, or ErrNotFound.
	FlagConcern(id string) error

	// SetWritingSample replaces the profile's writing sample, or ErrNotFound.
	SetWritingSample(id, sample string) error

	// List returns summaries for all profiles.
	List() ([]Summary, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
