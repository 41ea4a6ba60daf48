package route

import (
	"context"
	"time"
)

// Store is the route document store. Writes are whole-document and
// single-shot; Insert and Replace assign the timestamps.
type Store interface {
	Insert(ctx context.Context, r Route) (Route, error)
	Get(ctx context.Context, id string) (Route, error)
	// Replace overwrites the stored document. When ifUpdatedAt is set and no
	// longer matches the stored document, it fails with ErrConflict.
	Replace(ctx context.Context, r Route, ifUpdatedAt *time.Time) (Route, error)
	Delete(ctx context.Context, id string) error
	ListByCreator(ctx context.Context, creatorID string) ([]Route, error)
	ListAll(ctx context.Context, limit int) ([]Route, error)
}

type EventType string

const (
	EventCreated EventType = "route.created"
	EventUpdated EventType = "route.updated"
	EventDeleted EventType = "route.deleted"
)

type Event struct {
	Type    EventType `json:"type"`
	RouteID string    `json:"routeId"`
}

// Observer is notified after a successful write.
type Observer interface {
	RouteChanged(ctx context.Context, ev Event)
}
