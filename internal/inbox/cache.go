package inbox

import (
	"sync"

	"github.com/rishi-singh26/tempbox/internal/model"
)

// EventKind identifies what part of the observable state changed.
type EventKind int

const (
	// EventAddressList fires when the active/archived address lists
	// are replaced.
	EventAddressList EventKind = iota

	// EventInbox fires when a single address's message store changes.
	EventInbox

	// EventSelection fires when the selected address or message changes.
	EventSelection
)

// Event is a change notification delivered to UI subscribers.
type Event struct {
	Kind EventKind

	// AddressID is set for EventInbox events.
	AddressID string
}

// Cache holds the transient per-address inbox state, keyed by address ID.
// It is safe for concurrent use; writes are last-writer-wins per key.
// Entries live only as long as their owning address: the controller drops
// them on hard delete.
type Cache struct {
	mu     sync.Mutex
	stores map[string]model.MessageStore
	events chan Event
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		stores: make(map[string]model.MessageStore),
		events: make(chan Event, 32),
	}
}

// Events returns the change-notification channel. The cache never blocks
// on a slow subscriber; events are dropped when the buffer is full.
func (c *Cache) Events() <-chan Event {
	return c.events
}

// Publish sends a change notification without blocking.
func (c *Cache) Publish(ev Event) {
	select {
	case c.events <- ev:
	default:
		// Drop if the subscriber is behind; state is re-readable.
	}
}

// Set replaces the whole message store for an address.
func (c *Cache) Set(addressID string, store model.MessageStore) {
	c.mu.Lock()
	c.stores[addressID] = store
	c.mu.Unlock()

	c.Publish(Event{Kind: EventInbox, AddressID: addressID})
}

// Get returns the message store for an address, if one exists.
func (c *Cache) Get(addressID string) (model.MessageStore, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	store, ok := c.stores[addressID]
	return store, ok
}

// MarkFetching flags an address's store as refreshing while preserving
// previously cached messages, so stale content stays visible instead of
// a blank list.
func (c *Cache) MarkFetching(addressID string) {
	c.mu.Lock()
	store := c.stores[addressID]
	store.Fetching = true
	c.stores[addressID] = store
	c.mu.Unlock()

	c.Publish(Event{Kind: EventInbox, AddressID: addressID})
}

// Remove drops the store for an address entirely. Called when the owning
// address is hard-deleted.
func (c *Cache) Remove(addressID string) {
	c.mu.Lock()
	delete(c.stores, addressID)
	c.mu.Unlock()

	c.Publish(Event{Kind: EventInbox, AddressID: addressID})
}

// Message returns the cached message with the given id, if present.
func (c *Cache) Message(addressID, messageID string) (model.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	store, ok := c.stores[addressID]
	if !ok {
		return model.Message{}, false
	}
	for _, m := range store.Messages {
		if m.ID == messageID {
			return m, true
		}
	}
	return model.Message{}, false
}

// RemoveMessage deletes a message from an address's store, locating it by
// id at call time so a concurrently mutated list cannot cause index drift.
// Returns false if the address or message is unknown.
func (c *Cache) RemoveMessage(addressID, messageID string) bool {
	c.mu.Lock()
	store, ok := c.stores[addressID]
	if !ok {
		c.mu.Unlock()
		return false
	}

	idx := indexOf(store.Messages, messageID)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}

	msgs := make([]model.Message, 0, len(store.Messages)-1)
	msgs = append(msgs, store.Messages[:idx]...)
	msgs = append(msgs, store.Messages[idx+1:]...)
	store.Messages = msgs
	c.stores[addressID] = store
	c.mu.Unlock()

	c.Publish(Event{Kind: EventInbox, AddressID: addressID})
	return true
}

// UpdateMessage replaces a message in place, matched by id. Returns false
// if the address or message is unknown.
func (c *Cache) UpdateMessage(addressID, messageID string, msg model.Message) bool {
	c.mu.Lock()
	store, ok := c.stores[addressID]
	if !ok {
		c.mu.Unlock()
		return false
	}

	idx := indexOf(store.Messages, messageID)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}

	msgs := make([]model.Message, len(store.Messages))
	copy(msgs, store.Messages)
	msgs[idx] = msg
	store.Messages = msgs
	c.stores[addressID] = store
	c.mu.Unlock()

	c.Publish(Event{Kind: EventInbox, AddressID: addressID})
	return true
}

// UnreadCount returns the number of unseen cached messages for an address.
func (c *Cache) UnreadCount(addressID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stores[addressID].UnreadCount()
}

func indexOf(msgs []model.Message, id string) int {
	for i, m := range msgs {
		if m.ID == id {
			return i
		}
	}
	return -1
}
