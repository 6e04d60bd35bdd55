package raikou

import (
	"reflect"
	"sync"
)

// MaxEventTypes defines the maximum number of unique event types that can be
// registered in the EventBus. This value is fixed at 256.
const MaxEventTypes = 256

// EventBus is a typed publish/subscribe hub. The frame driver uses it to
// announce frame outcomes (completed, dropped) so that consumers such as
// mirrors or profilers can react without depending on the driver.
//
// Handlers run synchronously on the publishing goroutine, in subscription
// order. Subscribing and publishing are safe for concurrent use.
type EventBus struct {
	mu              sync.RWMutex
	eventTypeMap    map[reflect.Type]uint8
	handlers        [MaxEventTypes][]any
	nextEventTypeID uint16
}

// Subscribe registers a handler function to be called when an event of type `T`
// is published.
//
// Parameters:
//   - bus: The EventBus instance to subscribe to.
//   - handler: A function that takes a single argument of type `T`.
func Subscribe[T any](bus *EventBus, handler func(T)) {
	t := reflect.TypeFor[T]()
	bus.mu.Lock()
	defer bus.mu.Unlock()
	id := bus.getEventTypeID(t)
	if cap(bus.handlers[id]) == 0 {
		bus.handlers[id] = make([]any, 0, 4)
	}
	bus.handlers[id] = append(bus.handlers[id], handler)
}

// Publish broadcasts an event of type `T` to all registered handlers for that
// type. Publishing an event nobody subscribed to does nothing.
//
// Parameters:
//   - bus: The EventBus instance to publish to.
//   - event: The event data of type `T` to be sent to handlers.
func Publish[T any](bus *EventBus, event T) {
	t := reflect.TypeFor[T]()
	bus.mu.RLock()
	id, ok := bus.eventTypeMap[t]
	var hs []any
	if ok {
		hs = bus.handlers[id]
	}
	bus.mu.RUnlock()
	for _, h := range hs {
		h.(func(T))(event)
	}
}

// getEventTypeID retrieves or assigns an ID for the event type. The caller holds the write lock.
func (bus *EventBus) getEventTypeID(t reflect.Type) uint8 {
	if bus.eventTypeMap == nil {
		bus.eventTypeMap = make(map[reflect.Type]uint8)
	}
	if id, ok := bus.eventTypeMap[t]; ok {
		return id
	}
	if bus.nextEventTypeID >= MaxEventTypes {
		panic("ecs: too many event types")
	}
	id := uint8(bus.nextEventTypeID)
	bus.nextEventTypeID++
	bus.eventTypeMap[t] = id
	return id
}
