package observable

import (
	"strings"
	"sync"
)

// Handler receives notifications.
type Handler func(Notification)

// Filter selects notifications by store name and path. Empty fields match
// anything. PathPrefix matches whole segments: "data.modal" matches
// "data.modal" and "data.modal.inner" but not "data.modalX".
type Filter struct {
	Store      string
	PathPrefix string
}

// Match reports whether n passes the filter.
func (f Filter) Match(n Notification) bool {
	if f.Store != "" && f.Store != n.Store {
		return false
	}
	if f.PathPrefix == "" {
		return true
	}
	full := n.FullPath()
	return full == f.PathPrefix || strings.HasPrefix(full, f.PathPrefix+".")
}

type subscription struct {
	id      uint64
	filter  Filter
	handler Handler
}

// Dispatcher is an Emitter that fans notifications out to subscribers,
// synchronously and in subscription order.
type Dispatcher struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers handler for notifications matching filter and returns
// a function removing the subscription.
func (d *Dispatcher) Subscribe(filter Filter, handler Handler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscription{id: id, filter: filter, handler: handler})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range d.subs {
			if s.id == id {
				d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers n to every matching subscriber.
func (d *Dispatcher) Emit(n Notification) {
	d.mu.RLock()
	subs := make([]subscription, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	for _, s := range subs {
		if s.filter.Match(n) {
			s.handler(n)
		}
	}
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(Notification)

// Emit calls f(n).
func (f EmitterFunc) Emit(n Notification) {
	f(n)
}
