// Package storage provides the SQLite-backed profile store. It is the
// optional durable swap-in for the default in-memory store and is
// selected by setting storage.data_dir in the config.
package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kalambet/innervoice/internal/profile"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements profile.Store on top of a SQLite database.
type Store struct {
	db         *sql.DB
	maxHistory int
	clock      profile.Clock
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database
// (used by tests). maxHistory caps retained history per profile;
// values <= 0 select 500.
func Open(dataDir string, maxHistory int) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "innervoice.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if maxHistory <= 0 {
		maxHistory = 500
	}

	s := &Store{db: db, maxHistory: maxHistory, clock: realClock{}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

// --- profile.Store implementation ---

func (s *Store) Create(userData map[string]any) (profile.Profile, error) {
	p := profile.FromUserData(userData)
	p.ID = uuid.New().String()
	p.CreatedAt = s.clock.Now()

	_, err := s.db.Exec(`
		INSERT INTO profiles (id, name, personality_traits, communication_style, interests, support_style, goals, writing_sample, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, marshalList(p.PersonalityTraits), p.CommunicationStyle,
		marshalList(p.Interests), p.SupportStyle, marshalList(p.Goals),
		p.WritingSample, p.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("inserting profile: %w", err)
	}
	return p, nil
}

func (s *Store) Get(id string) (profile.Profile, error) {
	var p profile.Profile
	var traits, interests, goals, createdAt string
	var needsSupport int
	err := s.db.QueryRow(`
		SELECT id, name, personality_traits, communication_style, interests, support_style, goals, writing_sample, created_at, conversation_count, concerning_messages, needs_support
		FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &traits, &p.CommunicationStyle, &interests, &p.SupportStyle,
		&goals, &p.WritingSample, &createdAt, &p.ConversationCount,
		&p.SafetyFlags.ConcerningMessages, &needsSupport)
	if err == sql.ErrNoRows {
		return profile.Profile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, err
	}

	p.PersonalityTraits = unmarshalList(traits)
	p.Interests = unmarshalList(interests)
	p.Goals = unmarshalList(goals)
	p.SafetyFlags.NeedsSupport = needsSupport != 0

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("parsing created_at: %w", err)
	}
	p.CreatedAt = t
	return p, nil
}

func (s *Store) Append(id string, entry profile.ConversationEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.clock.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM profiles WHERE id = ?", id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return profile.ErrNotFound
	}

	escalation := 0
	if entry.Escalation {
		escalation = 1
	}
	if _, err := tx.Exec(`
		INSERT INTO conversation_entries (profile_id, user_message, ai_message, mood, escalation, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, entry.User, entry.AI, entry.Mood, escalation, entry.Timestamp.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}

	if !entry.Escalation {
		if _, err := tx.Exec("UPDATE profiles SET conversation_count = conversation_count + 1 WHERE id = ?", id); err != nil {
			return fmt.Errorf("updating count: %w", err)
		}
	}

	// Retention: drop the oldest entries beyond the cap.
	if _, err := tx.Exec(`
		DELETE FROM conversation_entries
		WHERE profile_id = ? AND seq NOT IN (
			SELECT seq FROM conversation_entries WHERE profile_id = ? ORDER BY seq DESC LIMIT ?
		)`, id, id, s.maxHistory,
	); err != nil {
		return fmt.Errorf("trimming history: %w", err)
	}

	return tx.Commit()
}

func (s *Store) History(id string, limit int) ([]profile.ConversationEntry, error) {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM profiles WHERE id = ?", id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, profile.ErrNotFound
	}

	if limit <= 0 {
		limit = s.maxHistory
	}

	// Most recent limit entries, returned in insertion order.
	rows, err := s.db.Query(`
		SELECT user_message, ai_message, mood, escalation, created_at FROM (
			SELECT seq, user_message, ai_message, mood, escalation, created_at
			FROM conversation_entries WHERE profile_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, id, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []profile.ConversationEntry{}
	for rows.Next() {
		var e profile.ConversationEntry
		var escalation int
		var createdAt string
		if err := rows.Scan(&e.User, &e.AI, &e.Mood, &escalation, &createdAt); err != nil {
			return nil, err
		}
		e.Escalation = escalation != 0
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		e.Timestamp = t
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) FlagConcern(id string) error {
	res, err := s.db.Exec(`
		UPDATE profiles SET concerning_messages = concerning_messages + 1, needs_support = 1
		WHERE id = ?`, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return profile.ErrNotFound
	}
	return nil
}

func (s *Store) SetWritingSample(id, sample string) error {
	res, err := s.db.Exec("UPDATE profiles SET writing_sample = ? WHERE id = ?", sample, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return profile.ErrNotFound
	}
	return nil
}

func (s *Store) List() ([]profile.Summary, error) {
	rows, err := s.db.Query(`
		SELECT id, name, created_at, conversation_count, personality_traits
		FROM profiles ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []profile.Summary{}
	for rows.Next() {
		var sum profile.Summary
		var createdAt, traits string
		if err := rows.Scan(&sum.ID, &sum.Name, &createdAt, &sum.ConversationCount, &traits); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		sum.CreatedAt = t
		sum.Traits = unmarshalList(traits)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func marshalList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func unmarshalList(raw string) []string {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return []string{}
	}
	return items
}
