package eventbus

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/adminforge/adminforge/internal/event"
)

// LogConsumer logs all domain events for observability.
type LogConsumer struct{}

func NewLogConsumer() *LogConsumer { return &LogConsumer{} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	entities := make([]string, len(evt.AffectedEntities))
	for i, ref := range evt.AffectedEntities {
		entities[i] = ref.EntityType + ":" + ref.EntityID
	}
	log.Info().
		Str("event_type", evt.EventType).
		Str("actor", evt.Actor).
		Strs("entities", entities).
		Msg(evt.Summary)
	return nil
}
