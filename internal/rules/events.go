package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of an engine event.
type EventType string

const (
	// Move events
	EventCardPlayed      EventType = "CARD_PLAYED"
	EventAbilityResolved EventType = "ABILITY_RESOLVED"
	EventTurnHeld        EventType = "TURN_HELD"
	EventTurnSwitched    EventType = "TURN_SWITCHED"
	EventPass            EventType = "PASS"
	EventAbilityDeclined EventType = "ABILITY_DECLINED"
	EventLeaderUsed      EventType = "LEADER_USED"
	EventMoveRejected    EventType = "MOVE_REJECTED"

	// Board events
	EventWeatherChanged EventType = "WEATHER_CHANGED"
	EventComboCollected EventType = "COMBO_COLLECTED"
	EventCardDestroyed  EventType = "CARD_DESTROYED"
	EventCardWeakened   EventType = "CARD_WEAKENED"

	// Round/match lifecycle events
	EventRoundStarted   EventType = "ROUND_STARTED"
	EventStandoffBattle EventType = "STANDOFF_BATTLE"
	EventRoundEnded     EventType = "ROUND_ENDED"
	EventMatchEnded     EventType = "MATCH_ENDED"
	EventTimeoutPass    EventType = "TIMEOUT_PASS"
	EventTimeoutForfeit EventType = "TIMEOUT_FORFEIT"

	// Defensive-recovery notices surfaced to collaborators
	EventInvariantWarning EventType = "INVARIANT_WARNING"
)

// Event represents a state change that collaborators may react to.
type Event struct {
	Type        EventType
	MatchID     string
	Participant string            // participant the event concerns, if any
	CardID      string            // catalog card ID, if any
	InstanceID  string            // card instance ID, if any
	Lane        string            // lane name, if any
	Amount      int               // numeric value (power, score, damage)
	Description string            // human-readable description
	Metadata    map[string]string // additional event-specific data
	Timestamp   time.Time
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with
// type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
// The caller must not hold engine locks while publishing; the engine
// collects events during a move and publishes after releasing its lock.
func (bus *EventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Snapshot the listener set and invoke outside the lock, so a
	// callback can subscribe or unsubscribe on the same bus.
	bus.mu.RLock()
	all := make([]Listener, 0, len(bus.listeners))
	for _, listener := range bus.listeners {
		all = append(all, listener)
	}
	typed := append([]TypedListener(nil), bus.typedListeners[event.Type]...)
	bus.mu.RUnlock()

	for _, listener := range all {
		listener(event)
	}
	for _, listener := range typed {
		listener.Callback(event)
	}
}

// PublishBatch publishes multiple events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, matchID, participant string) Event {
	return Event{
		Type:        eventType,
		MatchID:     matchID,
		Participant: participant,
		Timestamp:   time.Now(),
		Metadata:    make(map[string]string),
	}
}
