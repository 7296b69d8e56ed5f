package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SourceRef links an entry to one entity an event touched.
type SourceRef struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Role       string `json:"role"` // "subject", "context", "related"
}

// Entry is one audit record. An event touching several entities fans out
// into one entry per entity so every entity's trail is self-contained.
type Entry struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	EntityRole string          `json:"entity_role"`
	SourceRefs []SourceRef     `json:"source_refs,omitempty"`
	Actor      string          `json:"actor,omitempty"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Store is the interface for reading and writing audit entries.
type Store interface {
	// WriteEntries writes one or more entries (one event → many entries).
	WriteEntries(ctx context.Context, entries []Entry) error

	// QueryByEntity returns audit entries for a specific entity, newest
	// first.
	QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) (entries []Entry, nextCursor string, totalCount int, err error)

	// Search performs substring search across entry summaries.
	Search(ctx context.Context, query string, opts SearchOptions) (entries []Entry, totalCount int, err error)
}

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// CreateTable creates the audit_entries table. Run during startup
// migration.
func (s *SQLiteStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_entries (
			event_id       TEXT NOT NULL,
			event_type     TEXT NOT NULL,
			occurred_at_ms INTEGER NOT NULL,
			entity_type    TEXT NOT NULL,
			entity_id      TEXT NOT NULL,
			entity_role    TEXT NOT NULL,
			source_refs    TEXT NOT NULL DEFAULT '[]',
			actor          TEXT NOT NULL DEFAULT '',
			summary        TEXT NOT NULL,
			payload        TEXT,
			PRIMARY KEY (entity_type, entity_id, occurred_at_ms, event_id)
		);

		CREATE INDEX IF NOT EXISTS idx_audit_entity_time
			ON audit_entries (entity_type, entity_id, occurred_at_ms DESC);
	`)
	return err
}

// WriteEntries inserts audit entries.
func (s *SQLiteStore) WriteEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO audit_entries (
		event_id, event_type, occurred_at_ms, entity_type, entity_id,
		entity_role, source_refs, actor, summary, payload
	) VALUES `)

	args := make([]any, 0, len(entries)*10)
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")

		refsJSON, _ := json.Marshal(e.SourceRefs)
		args = append(args,
			e.EventID, e.EventType, e.OccurredAt.UnixMilli(), e.EntityType, e.EntityID,
			e.EntityRole, string(refsJSON), e.Actor, e.Summary, string(e.Payload),
		)
	}

	b.WriteString(" ON CONFLICT DO NOTHING")
	_, err := s.db.ExecContext(ctx, b.String(), args...)
	return err
}

// QueryByEntity returns audit entries for a specific entity with filtering
// and pagination.
func (s *SQLiteStore) QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) ([]Entry, string, int, error) {
	if opts.Limit <= 0 || opts.Limit > 500 {
		opts.Limit = 100
	}

	conditions := []string{"entity_type = ?", "entity_id = ?"}
	args := []any{entityType, entityID}

	if opts.Since != nil {
		conditions = append(conditions, "occurred_at_ms >= ?")
		args = append(args, opts.Since.UnixMilli())
	}
	if opts.Until != nil {
		conditions = append(conditions, "occurred_at_ms <= ?")
		args = append(args, opts.Until.UnixMilli())
	}
	if len(opts.EventTypes) > 0 {
		placeholders := make([]string, len(opts.EventTypes))
		for i, et := range opts.EventTypes {
			placeholders[i] = "?"
			args = append(args, et)
		}
		conditions = append(conditions, fmt.Sprintf("event_type IN (%s)", strings.Join(placeholders, ", ")))
	}
	if opts.Cursor != "" {
		// Cursor is the occurred_at timestamp of the last result.
		if cursorTime, err := time.Parse(time.RFC3339Nano, opts.Cursor); err == nil {
			conditions = append(conditions, "occurred_at_ms < ?")
			args = append(args, cursorTime.UnixMilli())
		}
	}

	where := strings.Join(conditions, " AND ")
	query := fmt.Sprintf(
		`SELECT event_id, event_type, occurred_at_ms, entity_type, entity_id,
			entity_role, source_refs, actor, summary, payload
		FROM audit_entries
		WHERE %s
		ORDER BY occurred_at_ms DESC
		LIMIT ?`, where)
	limitArgs := append(append([]any{}, args...), opts.Limit+1) // fetch one extra for cursor

	rows, err := s.db.QueryContext(ctx, query, limitArgs...)
	if err != nil {
		return nil, "", 0, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, "", 0, err
	}

	var nextCursor string
	if len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
		nextCursor = entries[len(entries)-1].OccurredAt.Format(time.RFC3339Nano)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_entries WHERE %s", where)
	var totalCount int
	_ = s.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount)

	return entries, nextCursor, totalCount, nil
}

// Search performs substring search across audit summaries.
func (s *SQLiteStore) Search(ctx context.Context, query string, opts SearchOptions) ([]Entry, int, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	conditions := []string{"summary LIKE '%' || ? || '%'"}
	args := []any{query}

	if opts.EntityType != "" {
		conditions = append(conditions, "entity_type = ?")
		args = append(args, opts.EntityType)
	}
	if opts.Since != nil {
		conditions = append(conditions, "occurred_at_ms >= ?")
		args = append(args, opts.Since.UnixMilli())
	}

	where := strings.Join(conditions, " AND ")
	sqlQuery := fmt.Sprintf(
		`SELECT event_id, event_type, occurred_at_ms, entity_type, entity_id,
			entity_role, source_refs, actor, summary, payload
		FROM audit_entries
		WHERE %s
		ORDER BY occurred_at_ms DESC
		LIMIT ?`, where)
	limitArgs := append(append([]any{}, args...), opts.Limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, limitArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("searching audit entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_entries WHERE %s", where)
	var totalCount int
	_ = s.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount)

	return entries, totalCount, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			occurredMs int64
			refsJSON   string
			payload    sql.NullString
		)
		err := rows.Scan(
			&e.EventID, &e.EventType, &occurredMs, &e.EntityType, &e.EntityID,
			&e.EntityRole, &refsJSON, &e.Actor, &e.Summary, &payload,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.OccurredAt = time.UnixMilli(occurredMs)
		if refsJSON != "" {
			_ = json.Unmarshal([]byte(refsJSON), &e.SourceRefs)
		}
		if payload.Valid && payload.String != "" {
			e.Payload = json.RawMessage(payload.String)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
