package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
)

// Domain event types.
const (
	TypeTaskCreated    = "task.created"
	TypeTaskUpdated    = "task.updated"
	TypeTaskDeleted    = "task.deleted"
	TypeUserRegistered = "user.registered"
	TypeAnnouncement   = "announcement"
)

// DomainEvent is something that happened in another service which users may
// need to be told about.
type DomainEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// TaskPayload is the payload of the task.* events.
type TaskPayload struct {
	Task domain.Task `json:"task"`
	// ActorID is the user who performed the change, if known.
	ActorID uuid.UUID `json:"actorId"`
}

// UserPayload is the payload of user.registered.
type UserPayload struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

// AnnouncementPayload is the payload of announcement.
type AnnouncementPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *DomainEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewDomainEvent creates a new DomainEvent with the specified type and payload.
func NewDomainEvent(eventType string, payload interface{}) (*DomainEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &DomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *DomainEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *DomainEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *DomainEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event.
	EmitEvent(ctx context.Context, event *DomainEvent) error
}
