package metaspec

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore implements Store over a SQLite database. The property tree
// is stored as a JSON column: the tree is always written wholesale, so a
// document column fits the mutation model exactly.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLiteStore on db.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// CreateTable creates the metadata_specs table. Run during startup
// migration.
func (s *SQLiteStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS metadata_specs (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			properties TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_metadata_specs_name ON metadata_specs (name);
	`)
	return err
}

func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]*Spec, int, error) {
	where := ""
	var args []any
	if opts.Search != "" {
		where = "WHERE name LIKE ? ESCAPE '\\'"
		args = append(args, "%"+escapeLike(opts.Search)+"%")
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM metadata_specs "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting specs: %w", err)
	}

	count := opts.Count
	if count <= 0 {
		count = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, properties, created_at, updated_at FROM metadata_specs "+
			where+" ORDER BY created_at, id LIMIT ? OFFSET ?",
		append(args, count, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing specs: %w", err)
	}
	defer rows.Close()

	var specs []*Spec
	for rows.Next() {
		spec, err := scanSpec(rows)
		if err != nil {
			return nil, 0, err
		}
		specs = append(specs, spec)
	}
	return specs, total, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Spec, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, properties, created_at, updated_at FROM metadata_specs WHERE id = ?", id)
	spec, err := scanSpec(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return spec, err
}

func (s *SQLiteStore) Create(ctx context.Context, spec *Spec) (*Spec, error) {
	stored := spec.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.Type == "" {
		stored.Type = TypeObject
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	props, err := json.Marshal(stored.Properties)
	if err != nil {
		return nil, fmt.Errorf("encoding properties: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO metadata_specs (id, name, properties, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		stored.ID, stored.Name, string(props), stored.CreatedAt, stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting spec: %w", err)
	}
	return stored, nil
}

func (s *SQLiteStore) Update(ctx context.Context, spec *Spec) (*Spec, error) {
	stored := spec.Clone()
	if stored.Type == "" {
		stored.Type = TypeObject
	}
	stored.UpdatedAt = time.Now().UTC()

	props, err := json.Marshal(stored.Properties)
	if err != nil {
		return nil, fmt.Errorf("encoding properties: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE metadata_specs SET name = ?, properties = ?, updated_at = ? WHERE id = ?",
		stored.Name, string(props), stored.UpdatedAt, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("updating spec: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, stored.ID)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM metadata_specs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting spec: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSpec(row scanner) (*Spec, error) {
	var (
		spec  Spec
		props string
	)
	if err := row.Scan(&spec.ID, &spec.Name, &props, &spec.CreatedAt, &spec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(props), &spec.Properties); err != nil {
		return nil, fmt.Errorf("decoding properties for %s: %w", spec.ID, err)
	}
	spec.Type = TypeObject
	return &spec, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
