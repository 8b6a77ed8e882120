// Package notify fans store change notifications out to live result sets.
package notify

import (
	"sort"
	"sync"

	"github.com/teranos/gallery/logger"
	"github.com/teranos/gallery/schema"
)

// Listener receives the update ids of a change. It runs on the notifying
// goroutine and must not block.
type Listener func(updateIDs []int)

// Notifier accepts change notifications.
type Notifier interface {
	ItemsChanged(updateIDs ...int)
}

// Hub broadcasts change notifications to its listeners.
type Hub struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]Listener
}

var _ Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{listeners: make(map[int]Listener)}
}

// Subscribe registers l and returns a function removing it again.
func (h *Hub) Subscribe(l Listener) (unsubscribe func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.listeners[id] = l
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Listeners returns the number of subscribed listeners.
func (h *Hub) Listeners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// ItemsChanged notifies every listener that items of updateIDs changed.
func (h *Hub) ItemsChanged(updateIDs ...int) {
	if len(updateIDs) == 0 {
		return
	}

	h.mu.RLock()
	keys := make([]int, 0, len(h.listeners))
	for k := range h.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	listeners := make([]Listener, len(keys))
	for i, k := range keys {
		listeners[i] = h.listeners[k]
	}
	h.mu.RUnlock()

	logger.Debugw("items changed",
		logger.FieldComponent, "notify",
		logger.FieldUpdateIDs, updateIDs,
		logger.FieldCount, len(listeners))

	for _, l := range listeners {
		l(updateIDs)
	}
}

// ItemsEdited notifies listeners that an item of the rdf class service was
// written through the gallery.
func (h *Hub) ItemsEdited(service string) {
	h.ItemsChanged(schema.ServiceUpdateID(service))
}
