package storage

import (
	"errors"
	"testing"

	"github.com/kalambet/innervoice/internal/profile"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Migrates(t *testing.T) {
	s := openTestStore(t)

	// Schema is usable immediately.
	if _, err := s.Create(map[string]any{"name": "Alex"}); err != nil {
		t.Fatalf("Create after migrate: %v", err)
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	created, err := s.Create(map[string]any{
		"name":      "Alex",
		"interests": "reading, hiking",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Alex" {
		t.Errorf("Name = %q", got.Name)
	}
	if len(got.Interests) != 2 || got.Interests[0] != "reading" {
		t.Errorf("Interests = %v", got.Interests)
	}
	if len(got.PersonalityTraits) != 2 {
		t.Errorf("PersonalityTraits = %v, want defaults", got.PersonalityTraits)
	}
	if got.ConversationCount != 0 {
		t.Errorf("ConversationCount = %d", got.ConversationCount)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get("missing"); !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("Get = %v, want profile.ErrNotFound", err)
	}
}

func TestAppendAndHistory(t *testing.T) {
	s := openTestStore(t)
	p, _ := s.Create(map[string]any{"name": "Alex"})

	for _, u := range []string{"first", "second"} {
		if err := s.Append(p.ID, profile.ConversationEntry{User: u, AI: "re-" + u, Mood: "neutral"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, _ := s.Get(p.ID)
	if got.ConversationCount != 2 {
		t.Errorf("ConversationCount = %d, want 2", got.ConversationCount)
	}

	h, err := s.History(p.ID, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(h) != 2 || h[0].User != "first" || h[1].User != "second" {
		t.Errorf("History = %+v, want call order", h)
	}
}

func TestAppend_EscalationNotCounted(t *testing.T) {
	s := openTestStore(t)
	p, _ := s.Create(map[string]any{"name": "Alex"})

	if err := s.Append(p.ID, profile.ConversationEntry{User: "m", AI: "r", Mood: "concerning", Escalation: true}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, _ := s.Get(p.ID)
	if got.ConversationCount != 0 {
		t.Errorf("ConversationCount = %d, want 0", got.ConversationCount)
	}
	h, _ := s.History(p.ID, 0)
	if len(h) != 1 || !h[0].Escalation {
		t.Errorf("History = %+v, want retained escalation entry", h)
	}
}

func TestAppend_NotFound(t *testing.T) {
	s := openTestStore(t)
	if err := s.Append("missing", profile.ConversationEntry{}); !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("Append = %v, want profile.ErrNotFound", err)
	}
}

func TestHistory_WindowAndCap(t *testing.T) {
	s, err := Open(":memory:", 5)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	p, _ := s.Create(map[string]any{"name": "Alex"})
	for _, u := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		s.Append(p.ID, profile.ConversationEntry{User: u, AI: "r"})
	}

	h, _ := s.History(p.ID, 0)
	if len(h) != 5 {
		t.Fatalf("retained = %d, want 5", len(h))
	}
	if h[0].User != "d" || h[4].User != "h" {
		t.Errorf("retained window = [%s..%s], want d..h", h[0].User, h[4].User)
	}

	got, _ := s.Get(p.ID)
	if got.ConversationCount != 8 {
		t.Errorf("ConversationCount = %d, want 8 (trimming does not reduce it)", got.ConversationCount)
	}

	win, _ := s.History(p.ID, 2)
	if len(win) != 2 || win[0].User != "g" || win[1].User != "h" {
		t.Errorf("History(2) = %+v", win)
	}
}

func TestFlagConcern(t *testing.T) {
	s := openTestStore(t)
	p, _ := s.Create(map[string]any{"name": "Alex"})

	s.FlagConcern(p.ID)
	s.FlagConcern(p.ID)

	got, _ := s.Get(p.ID)
	if got.SafetyFlags.ConcerningMessages != 2 || !got.SafetyFlags.NeedsSupport {
		t.Errorf("SafetyFlags = %+v", got.SafetyFlags)
	}

	if err := s.FlagConcern("missing"); !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("FlagConcern = %v, want profile.ErrNotFound", err)
	}
}

func TestSetWritingSample(t *testing.T) {
	s := openTestStore(t)
	p, _ := s.Create(map[string]any{"name": "Alex"})

	if err := s.SetWritingSample(p.ID, "new sample"); err != nil {
		t.Fatalf("SetWritingSample: %v", err)
	}
	got, _ := s.Get(p.ID)
	if got.WritingSample != "new sample" {
		t.Errorf("WritingSample = %q", got.WritingSample)
	}
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	s.Create(map[string]any{"name": "A"})
	s.Create(map[string]any{"name": "B"})

	list, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List = %d entries", len(list))
	}
	if list[0].Traits == nil {
		t.Error("Traits not populated")
	}
}
