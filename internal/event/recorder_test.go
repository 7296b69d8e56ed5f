package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminforge/adminforge/internal/activity"
	"github.com/adminforge/adminforge/internal/metaspec"
)

type capturePublisher struct {
	events []DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, evt DomainEvent) {
	p.events = append(p.events, evt)
}

func TestRecordFansOutPerEntity(t *testing.T) {
	store := activity.NewMemoryStore()
	rec := NewActivityRecorder(store)

	evt := NewResourceMutated("widget", "w-1", "update", "alice")
	evt.AffectedEntities = append(evt.AffectedEntities, activity.SourceRef{
		EntityType: "metadata_spec", EntityID: "spec-9", Role: "context",
	})
	require.NoError(t, rec.Record(context.Background(), evt))

	entries, _, total, err := store.QueryByEntity(context.Background(), "widget", "w-1", activity.DefaultQueryOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "resource_update", entries[0].EventType)
	assert.Equal(t, "alice", entries[0].Actor)
	assert.Equal(t, "subject", entries[0].EntityRole)
	assert.Len(t, entries[0].SourceRefs, 2)

	entries, _, _, err = store.QueryByEntity(context.Background(), "metadata_spec", "spec-9", activity.DefaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "context", entries[0].EntityRole)
}

func TestRecordPublishesAfterWrite(t *testing.T) {
	store := activity.NewMemoryStore()
	pub := &capturePublisher{}
	rec := NewActivityRecorder(store)
	rec.SetPublisher(pub)

	spec := &metaspec.Spec{ID: "spec-1", Name: "Warehouse"}
	require.NoError(t, rec.Record(context.Background(), NewSpecCreated(spec, "bob")))

	require.Len(t, pub.events, 1)
	assert.Equal(t, "spec_created", pub.events[0].EventType)
}

func TestSpecEventShapes(t *testing.T) {
	spec := &metaspec.Spec{
		ID:   "spec-1",
		Name: "Warehouse",
		Properties: []metaspec.Property{
			{Name: "aisle", Type: metaspec.TypeString},
		},
	}

	created := NewSpecCreated(spec, "alice")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "spec_created", created.EventType)
	require.Len(t, created.AffectedEntities, 1)
	assert.Equal(t, "metadata_spec", created.AffectedEntities[0].EntityType)
	assert.Contains(t, created.Summary, "Warehouse")
	assert.Contains(t, string(created.Payload), `"property_count":1`)

	deleted := NewSpecDeleted("spec-1", "alice")
	assert.Equal(t, "spec_deleted", deleted.EventType)
	assert.Equal(t, "spec-1", deleted.AffectedEntities[0].EntityID)
}
