package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adminforge/adminforge/internal/activity"
	"github.com/adminforge/adminforge/internal/metaspec"
)

// DomainEvent carries the canonical shape of every domain event.
type DomainEvent struct {
	ID               string
	EventType        string
	OccurredAt       time.Time
	AffectedEntities []activity.SourceRef
	Actor            string
	Summary          string
	Payload          json.RawMessage
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// ── Metadata spec events ─────────────────────────────────────────────────────

// SpecPayload carries event-specific data for spec lifecycle events.
type SpecPayload struct {
	SpecID        string `json:"spec_id"`
	Name          string `json:"name"`
	PropertyCount int    `json:"property_count"`
}

func specPayload(s *metaspec.Spec) SpecPayload {
	return SpecPayload{
		SpecID:        s.ID,
		Name:          s.Name,
		PropertyCount: len(s.Properties),
	}
}

// NewSpecCreated records the creation of a metadata spec.
func NewSpecCreated(s *metaspec.Spec, actor string) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "spec_created",
		OccurredAt: time.Now(),
		AffectedEntities: []activity.SourceRef{
			{EntityType: "metadata_spec", EntityID: s.ID, Role: "subject"},
		},
		Actor:   actor,
		Summary: fmt.Sprintf("Created metadata spec %q", s.Name),
		Payload: mustJSON(specPayload(s)),
	}
}

// NewSpecUpdated records a wholesale replacement of a metadata spec.
func NewSpecUpdated(s *metaspec.Spec, actor string) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "spec_updated",
		OccurredAt: time.Now(),
		AffectedEntities: []activity.SourceRef{
			{EntityType: "metadata_spec", EntityID: s.ID, Role: "subject"},
		},
		Actor:   actor,
		Summary: fmt.Sprintf("Updated metadata spec %q", s.Name),
		Payload: mustJSON(specPayload(s)),
	}
}

// NewSpecDeleted records the deletion of a metadata spec.
func NewSpecDeleted(specID, actor string) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "spec_deleted",
		OccurredAt: time.Now(),
		AffectedEntities: []activity.SourceRef{
			{EntityType: "metadata_spec", EntityID: specID, Role: "subject"},
		},
		Actor:   actor,
		Summary: fmt.Sprintf("Deleted metadata spec %s", specID),
		Payload: mustJSON(SpecPayload{SpecID: specID}),
	}
}

// ── Resource events ──────────────────────────────────────────────────────────

// ResourcePayload carries event-specific data for generic resource events.
type ResourcePayload struct {
	ResourceName string `json:"resource_name"`
	EntityID     string `json:"entity_id,omitempty"`
	Operation    string `json:"operation"` // "create", "update", "delete"
}

// NewResourceMutated records a successful mutating call against a managed
// resource endpoint.
func NewResourceMutated(resourceName, entityID, operation, actor string) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "resource_" + operation,
		OccurredAt: time.Now(),
		AffectedEntities: []activity.SourceRef{
			{EntityType: resourceName, EntityID: entityID, Role: "subject"},
		},
		Actor:   actor,
		Summary: fmt.Sprintf("%s on %s %s", operation, resourceName, entityID),
		Payload: mustJSON(ResourcePayload{
			ResourceName: resourceName,
			EntityID:     entityID,
			Operation:    operation,
		}),
	}
}
