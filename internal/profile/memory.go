package profile

import (
	"sync"

	"github.com/google/uuid"
)

// defaultMaxHistory caps per-profile retained history. The exchange
// counter is unaffected by trimming.
const defaultMaxHistory = 500

// MemoryStore is the default, process-lifetime Store. All state is lost
// on restart; callers must not assume durability.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[string]*record
	order      []string // insertion order for stable List output
	maxHistory int
	clock      Clock
}

type record struct {
	profile Profile
	history []ConversationEntry
}

// NewMemoryStore creates a MemoryStore. maxHistory caps retained
// history per profile; values <= 0 select the default (500).
func NewMemoryStore(maxHistory int) *MemoryStore {
	return NewMemoryStoreWithClock(maxHistory, realClock{})
}

// NewMemoryStoreWithClock creates a MemoryStore with a custom clock (for testing).
func NewMemoryStoreWithClock(maxHistory int, clock Clock) *MemoryStore {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &MemoryStore{
		records:    make(map[string]*record),
		maxHistory: maxHistory,
		clock:      clock,
	}
}

func (s *MemoryStore) Create(userData map[string]any) (Profile, error) {
	p := FromUserData(userData)
	p.ID = uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	p.CreatedAt = s.clock.Now()
	s.records[p.ID] = &record{profile: p}
	s.order = append(s.order, p.ID)
	return copyProfile(p), nil
}

func (s *MemoryStore) Get(id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return copyProfile(rec.profile), nil
}

func (s *MemoryStore) Append(id string, entry ConversationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.clock.Now()
	}

	rec.history = append(rec.history, entry)
	if len(rec.history) > s.maxHistory {
		rec.history = rec.history[len(rec.history)-s.maxHistory:]
	}
	if !entry.Escalation {
		rec.profile.ConversationCount++
	}
	return nil
}

func (s *MemoryStore) History(id string, limit int) ([]ConversationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	h := rec.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	out := make([]ConversationEntry, len(h))
	copy(out, h)
	return out, nil
}

func (s *MemoryStore) FlagConcern(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.profile.SafetyFlags.ConcerningMessages++
	rec.profile.SafetyFlags.NeedsSupport = true
	return nil
}

func (s *MemoryStore) SetWritingSample(id, sample string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.profile.WritingSample = sample
	return nil
}

func (s *MemoryStore) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		rec := s.records[id]
		out = append(out, Summary{
			ID:                rec.profile.ID,
			Name:              rec.profile.Name,
			CreatedAt:         rec.profile.CreatedAt,
			ConversationCount: rec.profile.ConversationCount,
			Traits:            cloneStrings(rec.profile.PersonalityTraits),
		})
	}
	return out, nil
}

// copyProfile returns a Profile whose slices do not alias store state.
func copyProfile(p Profile) Profile {
	cp := p
	cp.PersonalityTraits = cloneStrings(p.PersonalityTraits)
	cp.Interests = cloneStrings(p.Interests)
	cp.Goals = cloneStrings(p.Goals)
	return cp
}
