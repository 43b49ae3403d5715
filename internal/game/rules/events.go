package rules

import (
	"sync"
	"time"
)

// EventType identifies something that happened in a game.
type EventType string

const (
	EventGameStarted   EventType = "GAME_STARTED"
	EventMoveCommitted EventType = "MOVE_COMMITTED"
	EventMoveRejected  EventType = "MOVE_REJECTED"
	EventMoveFailed    EventType = "MOVE_FAILED"
	EventGameEnded     EventType = "GAME_ENDED"
)

// Event is published by a game after each lifecycle step.
type Event struct {
	Type     EventType
	GameID   string
	Turn     int
	Player   int    // mover, 0 for events not tied to a move
	Action   string // requested action
	Reason   string // rejection reason or error text
	Checksum string // state fingerprint after a commit
	Winners  []int
	At       time.Time
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType EventType, gameID string, turn, player int) Event {
	return Event{
		Type:   eventType,
		GameID: gameID,
		Turn:   turn,
		Player: player,
		At:     time.Now(),
	}
}

// Listener receives events.
type Listener func(Event)

type typedListener struct {
	handle    int
	eventType EventType
	callback  Listener
}

// EventBus delivers events to subscribers synchronously, in publish order.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]typedListener
	nextHandle     int
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]typedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if bus == nil || listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for one event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	if bus == nil || listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], typedListener{
		handle:    handle,
		eventType: eventType,
		callback:  listener,
	})
	return handle
}

// Unsubscribe removes the listener identified by handle, whichever kind it is.
func (bus *EventBus) Unsubscribe(handle int) {
	if bus == nil {
		return
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := range listeners {
			if listeners[i].handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers event to every matching listener. Listeners must not
// subscribe or unsubscribe from inside the callback. A nil bus drops events.
func (bus *EventBus) Publish(event Event) {
	if bus == nil {
		return
	}
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.callback(event)
	}
}
