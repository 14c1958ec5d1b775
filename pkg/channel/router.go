package channel

import (
	"sync"

	"avaneesh/anpp-go/pkg/link"
)

// Observer receives frames nobody requested, such as periodic state packets
type Observer interface {
	// OnFrame is called from the channel's read goroutine and must not block
	OnFrame(frame *link.Frame)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(frame *link.Frame)

// OnFrame implements Observer
func (f ObserverFunc) OnFrame(frame *link.Frame) { f(frame) }

// Subscription identifies a registered observer
type Subscription uint64

// allPackets is the routing key of observers that see every packet
const allPackets = -1

// Router routes unsolicited frames to observers registered by packet ID
type Router struct {
	observers map[int]map[Subscription]Observer // Key: packet ID or allPackets
	owner     map[Subscription]int
	next      Subscription
	mu        sync.RWMutex
}

// NewRouter creates a new router
func NewRouter() *Router {
	return &Router{
		observers: make(map[int]map[Subscription]Observer),
		owner:     make(map[Subscription]int),
	}
}

// Subscribe registers o for frames carrying packet id
func (r *Router) Subscribe(id uint8, o Observer) Subscription {
	return r.add(int(id), o)
}

// SubscribeAll registers o for every routed frame
func (r *Router) SubscribeAll(o Observer) Subscription {
	return r.add(allPackets, o)
}

func (r *Router) add(key int, o Observer) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	sub := r.next
	if r.observers[key] == nil {
		r.observers[key] = make(map[Subscription]Observer)
	}
	r.observers[key][sub] = o
	r.owner[sub] = key
	return sub
}

// Unsubscribe removes an observer
func (r *Router) Unsubscribe(sub Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.owner[sub]
	if !ok {
		return
	}
	delete(r.owner, sub)
	delete(r.observers[key], sub)
	if len(r.observers[key]) == 0 {
		delete(r.observers, key)
	}
}

// Route delivers frame to matching observers.
// Returns false if nobody was interested.
func (r *Router) Route(frame *link.Frame) bool {
	r.mu.RLock()
	targets := make([]Observer, 0, len(r.observers[int(frame.ID)])+len(r.observers[allPackets]))
	for _, o := range r.observers[int(frame.ID)] {
		targets = append(targets, o)
	}
	for _, o := range r.observers[allPackets] {
		targets = append(targets, o)
	}
	r.mu.RUnlock()

	for _, o := range targets {
		o.OnFrame(frame)
	}
	return len(targets) > 0
}

// Count returns the number of registered observers
func (r *Router) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.owner)
}

// Clear removes all observers
func (r *Router) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.observers = make(map[int]map[Subscription]Observer)
	r.owner = make(map[Subscription]int)
}
