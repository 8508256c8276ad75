// Package reflection orchestrates the chat flow: profile creation,
// mood and safety classification, prompt construction, the upstream
// attempt, and fallback substitution.
package reflection

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/kalambet/innervoice/internal/composer"
	"github.com/kalambet/innervoice/internal/fallback"
	"github.com/kalambet/innervoice/internal/mood"
	"github.com/kalambet/innervoice/internal/profile"
)

// ValidationError reports unusable caller input (a 4xx-equivalent).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Completer abstracts the upstream LLM call. Implemented by proxy.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Source identifies where a reply came from.
type Source string

const (
	SourceUpstream Source = "upstream"
	SourceFallback Source = "fallback"
	SourceSupport  Source = "support"
)

// Result is the outcome of one Respond call. Reply is always non-empty:
// every failure path substitutes a canned response.
type Result struct {
	Reply             string
	ProfileName       string
	Mood              mood.Mood
	ConversationCount int
	Suggestions       []string
	NeedsSupport      bool

	// Meta carries diagnostics; the API layer does not expose it.
	Meta ResponseMeta
}

// ResponseMeta captures diagnostic information about response generation.
type ResponseMeta struct {
	Source     Source
	DurationMs int64
}

// Reflector composes the classifier, prompt builder, upstream client,
// fallback generator, and profile store into the two boundary
// operations: create profile and generate response.
type Reflector struct {
	store    profile.Store
	upstream Completer // nil when the upstream credential is absent or malformed
	rng      *rand.Rand
	logger   *slog.Logger
}

// New creates a Reflector. Passing a nil upstream selects fallback-only
// mode: Respond never attempts a network call.
func New(store profile.Store, upstream Completer) *Reflector {
	return &Reflector{
		store:    store,
		upstream: upstream,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:   slog.Default(),
	}
}

// NewWithRand creates a Reflector with a custom random source (for testing).
func NewWithRand(store profile.Store, upstream Completer, rng *rand.Rand) *Reflector {
	r := New(store, upstream)
	r.rng = rng
	return r
}

// UpstreamConfigured reports whether real upstream calls are attempted.
func (r *Reflector) UpstreamConfigured() bool {
	return r.upstream != nil
}

// CreateProfile validates that a usable name is present, then delegates
// to the store's extraction and defaulting rules.
func (r *Reflector) CreateProfile(userData map[string]any) (profile.Profile, error) {
	if _, ok := profile.ResolveName(userData); !ok {
		return profile.Profile{}, &ValidationError{Message: "Name is required"}
	}

	p, err := r.store.Create(userData)
	if err != nil {
		return profile.Profile{}, err
	}

	r.logger.Info("profile created", "profile_id", p.ID, "name", p.Name)
	return p, nil
}

// Respond generates one reflection reply for a stored profile. The
// error is profile.ErrNotFound for unknown identifiers; upstream
// failures are absorbed into fallback replies and never returned.
func (r *Reflector) Respond(ctx context.Context, profileID, message string) (Result, error) {
	start := time.Now()

	p, err := r.store.Get(profileID)
	if err != nil {
		return Result{}, err
	}

	detected := mood.Detect(message)

	if report := mood.SafetyCheck(message); report.NeedsIntervention {
		return r.respondSupport(p, message, start)
	}

	history, err := r.store.History(profileID, 6)
	if err != nil {
		return Result{}, err
	}

	prompt := composer.BuildPrompt(p, message, detected, history)

	reply, source := r.generate(ctx, p, detected, prompt)

	entry := profile.ConversationEntry{
		User: message,
		AI:   reply,
		Mood: string(detected),
	}
	if err := r.store.Append(profileID, entry); err != nil {
		return Result{}, err
	}

	count := p.ConversationCount + 1
	if updated, err := r.store.Get(profileID); err == nil {
		count = updated.ConversationCount
	}

	return Result{
		Reply:             reply,
		ProfileName:       p.Name,
		Mood:              detected,
		ConversationCount: count,
		Suggestions:       fallback.Suggestions(detected),
		Meta: ResponseMeta{
			Source:     source,
			DurationMs: time.Since(start).Milliseconds(),
		},
	}, nil
}

// generate attempts the upstream call and substitutes the mood-keyed
// fallback on any failure or when no upstream is configured.
func (r *Reflector) generate(ctx context.Context, p profile.Profile, m mood.Mood, prompt string) (string, Source) {
	if r.upstream == nil {
		return fallback.Respond(p, m), SourceFallback
	}

	reply, err := r.upstream.Complete(ctx, prompt)
	if err != nil {
		r.logger.Warn("upstream generation failed, using fallback", "profile_id", p.ID, "error", err)
		return fallback.Respond(p, m), SourceFallback
	}
	return reply, SourceUpstream
}

// respondSupport short-circuits to the crisis-resource reply: the
// prompt builder and upstream client are never touched. The turn is
// recorded as an escalation entry, which does not advance the
// conversation count.
func (r *Reflector) respondSupport(p profile.Profile, message string, start time.Time) (Result, error) {
	if err := r.store.FlagConcern(p.ID); err != nil {
		return Result{}, err
	}

	sup := fallback.Support(r.rng)

	entry := profile.ConversationEntry{
		User:       message,
		AI:         sup.Reply,
		Mood:       string(sup.Mood),
		Escalation: true,
	}
	if err := r.store.Append(p.ID, entry); err != nil {
		return Result{}, err
	}

	r.logger.Warn("safety escalation", "profile_id", p.ID)

	return Result{
		Reply:             sup.Reply,
		ProfileName:       p.Name,
		Mood:              sup.Mood,
		ConversationCount: p.ConversationCount,
		Suggestions:       sup.Suggestions,
		NeedsSupport:      true,
		Meta: ResponseMeta{
			Source:     SourceSupport,
			DurationMs: time.Since(start).Milliseconds(),
		},
	}, nil
}
