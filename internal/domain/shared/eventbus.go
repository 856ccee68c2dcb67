package shared

import "context"

// EventHandler consumes domain events dispatched through the bus.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types the handler wants.
	// An empty slice subscribes to everything.
	EventTypes() []string
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers and removes handlers.
type EventSubscriber interface {
	// Subscribe registers a handler for the given event types.
	// With no types the handler receives every event.
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus combines publishing and subscription with lifecycle control.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// OutboxEventSaver writes domain events to the outbox table inside the
// transaction that persists the aggregate, so a booking or claim write and
// its events commit atomically.
type OutboxEventSaver interface {
	// SaveEvents stores events in the outbox. txProvider is the open
	// *gorm.DB transaction the repository is writing through.
	SaveEvents(ctx context.Context, txProvider interface{}, events ...DomainEvent) error
}
