package metaspec

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for lookups of specs that do not exist.
var ErrNotFound = errors.New("metadata spec not found")

// ListOptions controls paginated listing.
type ListOptions struct {
	Offset int
	Count  int
	Search string // case-insensitive substring match on the spec name
}

// Store is the persistence interface for metadata specs. Deleting a spec
// performs no cascading integrity check against resources that reference
// it; that responsibility lives outside this engine.
type Store interface {
	// List returns one page of specs plus the total match count.
	List(ctx context.Context, opts ListOptions) ([]*Spec, int, error)

	// Get returns the spec with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Spec, error)

	// Create persists a new spec, assigning an id when absent.
	Create(ctx context.Context, spec *Spec) (*Spec, error)

	// Update replaces the stored spec wholesale: the entire property tree
	// is overwritten, never patched.
	Update(ctx context.Context, spec *Spec) (*Spec, error)

	// Delete removes the spec with the given id, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// MemoryStore implements Store with in-memory state. Intended for tests
// and single-process use — no database required.
type MemoryStore struct {
	mu    sync.RWMutex
	specs map[string]*Spec
	order []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{specs: make(map[string]*Spec)}
}

func (s *MemoryStore) List(_ context.Context, opts ListOptions) ([]*Spec, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(opts.Search)
	var matched []*Spec
	for _, id := range s.order {
		spec := s.specs[id]
		if q != "" && !strings.Contains(strings.ToLower(spec.Name), q) {
			continue
		}
		matched = append(matched, spec.Clone())
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	count := opts.Count
	if count <= 0 {
		count = 20
	}
	if opts.Offset >= total {
		return nil, total, nil
	}
	end := opts.Offset + count
	if end > total {
		end = total
	}
	return matched[opts.Offset:end], total, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Spec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spec, ok := s.specs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return spec.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, spec *Spec) (*Spec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := spec.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Type == "" {
		stored.Type = TypeObject
	}

	s.specs[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	return stored.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, spec *Spec) (*Spec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.specs[spec.ID]
	if !ok {
		return nil, ErrNotFound
	}
	stored := spec.Clone()
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now().UTC()
	if stored.Type == "" {
		stored.Type = TypeObject
	}
	s.specs[spec.ID] = stored
	return stored.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.specs[id]; !ok {
		return ErrNotFound
	}
	delete(s.specs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
