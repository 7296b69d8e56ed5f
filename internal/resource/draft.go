package resource

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Draft is an unsaved create-in-progress payload for one resource type.
// Each resource has a single outstanding draft (the create-new slot);
// every save supersedes the previous one.
type Draft struct {
	ResourceKey string         `json:"resource_key"`
	Data        map[string]any `json:"data"`
	SavedAt     time.Time      `json:"saved_at"`
}

// DraftStore persists drafts across sessions, keyed by resource name. The
// expiry policy is a construction parameter, not a buried constant: drafts
// older than the TTL are treated as absent, checked lazily on Load — there
// is no background sweeper.
type DraftStore interface {
	// Load returns the live draft for a resource, or nil when none exists
	// or the stored one has expired.
	Load(ctx context.Context, resourceKey string) (*Draft, error)

	// Save stores (or supersedes) the draft for a resource.
	Save(ctx context.Context, resourceKey string, data map[string]any) error

	// Discard removes the draft for a resource. Discarding an absent
	// draft is not an error.
	Discard(ctx context.Context, resourceKey string) error
}

// DefaultDraftTTL is the draft age beyond which a draft reads as absent.
const DefaultDraftTTL = 24 * time.Hour

// MemoryDraftStore implements DraftStore in process memory.
type MemoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string]*Draft
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryDraftStore creates a MemoryDraftStore with the given TTL;
// a zero ttl means DefaultDraftTTL.
func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &MemoryDraftStore{
		drafts: make(map[string]*Draft),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MemoryDraftStore) Load(_ context.Context, resourceKey string) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[resourceKey]
	if !ok {
		return nil, nil
	}
	if s.now().Sub(d.SavedAt) > s.ttl {
		delete(s.drafts, resourceKey)
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryDraftStore) Save(_ context.Context, resourceKey string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[resourceKey] = &Draft{
		ResourceKey: resourceKey,
		Data:        data,
		SavedAt:     s.now(),
	}
	return nil
}

func (s *MemoryDraftStore) Discard(_ context.Context, resourceKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, resourceKey)
	return nil
}

// SQLiteDraftStore implements DraftStore on a SQLite database, surviving
// process restarts.
type SQLiteDraftStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteDraftStore creates a SQLiteDraftStore with the given TTL; a
// zero ttl means DefaultDraftTTL.
func NewSQLiteDraftStore(db *sql.DB, ttl time.Duration) *SQLiteDraftStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &SQLiteDraftStore{db: db, ttl: ttl, now: time.Now}
}

// CreateTable creates the drafts table. Run during startup migration.
func (s *SQLiteDraftStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS drafts (
			resource_key TEXT PRIMARY KEY,
			data         TEXT NOT NULL,
			saved_at_ms  INTEGER NOT NULL
		);
	`)
	return err
}

func (s *SQLiteDraftStore) Load(ctx context.Context, resourceKey string) (*Draft, error) {
	var (
		data    string
		savedMs int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT data, saved_at_ms FROM drafts WHERE resource_key = ?", resourceKey,
	).Scan(&data, &savedMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}

	savedAt := time.UnixMilli(savedMs)
	if s.now().Sub(savedAt) > s.ttl {
		// Expired drafts read as absent; the row is reaped on this read.
		_, _ = s.db.ExecContext(ctx, "DELETE FROM drafts WHERE resource_key = ?", resourceKey)
		return nil, nil
	}

	d := &Draft{ResourceKey: resourceKey, SavedAt: savedAt}
	if err := json.Unmarshal([]byte(data), &d.Data); err != nil {
		return nil, fmt.Errorf("decoding draft data: %w", err)
	}
	return d, nil
}

func (s *SQLiteDraftStore) Save(ctx context.Context, resourceKey string, data map[string]any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding draft data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (resource_key, data, saved_at_ms) VALUES (?, ?, ?)
		ON CONFLICT(resource_key) DO UPDATE SET data = excluded.data, saved_at_ms = excluded.saved_at_ms
	`, resourceKey, string(encoded), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

func (s *SQLiteDraftStore) Discard(ctx context.Context, resourceKey string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE resource_key = ?", resourceKey); err != nil {
		return fmt.Errorf("discarding draft: %w", err)
	}
	return nil
}
