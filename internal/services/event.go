package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/watchdesk/console/internal/mq"
	"github.com/watchdesk/console/types"
)

// ErrInvalidEvent is returned when an ingested event fails validation.
var ErrInvalidEvent = errors.New("invalid event")

// EventRepository defines persistence operations for system events.
type EventRepository interface {
	List(ctx context.Context, organizationID *int) ([]types.Event, error)
	Get(ctx context.Context, id int) (types.Event, error)
	Create(ctx context.Context, event types.Event) (types.Event, error)
}

// EventService encapsulates event use-cases, including ingestion from the
// message bus.
type EventService struct {
	repo EventRepository
}

func NewEventService(repo EventRepository) *EventService {
	return &EventService{repo: repo}
}

// List returns events, restricted to one organization when scope is non-nil.
func (s *EventService) List(ctx context.Context, scope *int) ([]types.Event, error) {
	return s.repo.List(ctx, scope)
}

func (s *EventService) Get(ctx context.Context, id int) (types.Event, error) {
	return s.repo.Get(ctx, id)
}

// Ingest validates and persists an event.
func (s *EventService) Ingest(ctx context.Context, event types.Event) (types.Event, error) {
	if strings.TrimSpace(event.EventType) == "" || strings.TrimSpace(event.Source) == "" {
		return types.Event{}, ErrInvalidEvent
	}
	return s.repo.Create(ctx, event)
}

// ConsumeBus subscribes to the events channel and persists every message
// that decodes as an event. It blocks until the context is canceled.
// Malformed payloads are acked and dropped; persistence failures are nacked
// so the broker redelivers.
func (s *EventService) ConsumeBus(ctx context.Context, bus *mq.Bus) error {
	return bus.Subscribe(ctx, mq.ChannelEvents, func(ctx context.Context, msg mq.Message) error {
		var event types.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("dropping malformed event message", "id", msg.ID, "error", err)
			return nil
		}
		if _, err := s.Ingest(ctx, event); err != nil {
			if errors.Is(err, ErrInvalidEvent) {
				slog.Warn("dropping invalid event message", "id", msg.ID)
				return nil
			}
			return err
		}
		return nil
	})
}
