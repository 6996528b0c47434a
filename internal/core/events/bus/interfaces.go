package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus scoped by topic.
//
// Delivery is synchronous: Publish invokes handlers in the caller goroutine,
// so events published from one goroutine reach each handler in publish order.
// Handler errors are joined and returned from Publish. Handlers must be quick
// and must not publish to the topic they are being called for.
type EventBus interface {
	// Publish delivers event to the subscribers of event.Type() and of AnyType
	// within topic.
	Publish(topic string, event Event) error
	// Subscribe registers handler for eventType within topic. Use AnyType to
	// receive every event of the topic.
	Subscribe(topic, eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. Nil is ignored.
	Unsubscribe(sub Subscription) error
	// CloseTopic cancels every subscription of topic and forgets it.
	CloseTopic(topic string) int

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	Metrics() Metrics
	Topics() []TopicInfo
}

// AnyType subscribes a handler to every event type of a topic.
const AnyType = "*"

// Event is an immutable message transported by the bus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type EventHandler func(event Event) error

// Subscription is a registered handler. Cancel is safe to call repeatedly.
type Subscription interface {
	ID() string
	Topic() string
	EventType() string
	IsActive() bool
	Cancel() error
}

// Observer is notified about every publish. Observers must return quickly.
type Observer interface {
	OnPublish(topic, eventType string, event Event)
	OnDelivered(topic, eventType string, handlers int, err error, duration time.Duration)
}

// Metrics are cumulative counters since the bus was created.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
	Topics            uint64
}

type TopicInfo struct {
	Name       string
	EventTypes int
	Subs       int
}
