package activity

import (
	"context"
	"testing"
	"time"
)

func testEntry(entityType, entityID, eventType, actor, summary string, daysAgo int) Entry {
	return Entry{
		EventID:    "test-" + summary,
		EventType:  eventType,
		OccurredAt: time.Now().AddDate(0, 0, -daysAgo),
		EntityType: entityType,
		EntityID:   entityID,
		EntityRole: "subject",
		Actor:      actor,
		Summary:    summary,
	}
}

func TestMemoryStore_WriteAndQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entries := []Entry{
		testEntry("metadata_spec", "spec-1", "spec_created", "ada", "Created spec server-profile", 10),
		testEntry("metadata_spec", "spec-1", "spec_updated", "ada", "Updated spec server-profile", 5),
		testEntry("metadata_spec", "spec-2", "spec_created", "bob", "Created spec network-policy", 10),
	}

	if err := store.WriteEntries(ctx, entries); err != nil {
		t.Fatalf("WriteEntries: %v", err)
	}

	results, _, total, err := store.QueryByEntity(ctx, "metadata_spec", "spec-1", DefaultQueryOptions())
	if err != nil {
		t.Fatalf("QueryByEntity: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}
	if results[0].EventType != "spec_updated" {
		t.Errorf("expected newest entry first, got %q", results[0].EventType)
	}
}

func TestMemoryStore_QueryByEntity_FilterEventType(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entries := []Entry{
		testEntry("metadata_spec", "spec-1", "spec_created", "ada", "Created", 10),
		testEntry("metadata_spec", "spec-1", "spec_deleted", "ada", "Deleted", 5),
	}
	store.WriteEntries(ctx, entries)

	opts := DefaultQueryOptions()
	opts.EventTypes = []string{"spec_deleted"}
	results, _, total, err := store.QueryByEntity(ctx, "metadata_spec", "spec-1", opts)
	if err != nil {
		t.Fatalf("QueryByEntity: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(results) != 1 || results[0].EventType != "spec_deleted" {
		t.Errorf("expected only the delete entry")
	}
}

func TestMemoryStore_QueryByEntity_TimeWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entries := []Entry{
		testEntry("metadata_spec", "spec-1", "spec_updated", "ada", "Recent", 5),
		testEntry("metadata_spec", "spec-1", "spec_updated", "ada", "Old", 200),
	}
	store.WriteEntries(ctx, entries)

	since := time.Now().AddDate(0, 0, -30)
	opts := DefaultQueryOptions()
	opts.Since = &since
	results, _, total, err := store.QueryByEntity(ctx, "metadata_spec", "spec-1", opts)
	if err != nil {
		t.Fatalf("QueryByEntity: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(results) != 1 || results[0].Summary != "Recent" {
		t.Errorf("expected only 'Recent' entry")
	}
}

func TestMemoryStore_Search(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entries := []Entry{
		testEntry("metadata_spec", "spec-1", "spec_created", "ada", "Created spec server-profile", 5),
		testEntry("metadata_spec", "spec-2", "spec_created", "ada", "Created spec network-policy", 10),
		testEntry("user", "u-1", "user_updated", "bob", "Updated user server-admin", 3),
	}
	store.WriteEntries(ctx, entries)

	results, total, err := store.Search(ctx, "server", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}
}

func TestMemoryStore_Search_EntityTypeFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entries := []Entry{
		testEntry("metadata_spec", "spec-1", "spec_created", "ada", "Created widget", 5),
		testEntry("user", "u-1", "user_created", "ada", "Created widget owner", 5),
	}
	store.WriteEntries(ctx, entries)

	opts := DefaultSearchOptions()
	opts.EntityType = "metadata_spec"
	results, total, err := store.Search(ctx, "widget", opts)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(results) != 1 || results[0].EntityType != "metadata_spec" {
		t.Errorf("expected only metadata_spec entity")
	}
}

func TestMemoryStore_Search_NoMatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entries := []Entry{
		testEntry("metadata_spec", "spec-1", "spec_created", "ada", "Created spec", 5),
	}
	store.WriteEntries(ctx, entries)

	results, total, err := store.Search(ctx, "zzzznotfound", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 0 || len(results) != 0 {
		t.Errorf("expected no results, got %d", total)
	}
}

func TestMemoryStore_EmptyStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	results, _, total, err := store.QueryByEntity(ctx, "metadata_spec", "nobody", DefaultQueryOptions())
	if err != nil {
		t.Fatalf("QueryByEntity: %v", err)
	}
	if total != 0 || len(results) != 0 {
		t.Errorf("expected empty results from empty store")
	}
}
