package ringqueue

import "sync"

// Registry tracks the set of producer queues a single consumer goroutine
// round-robins over. Each logging goroutine gets its own Queue (avoiding
// any cross-producer contention); Registry is how the consumer discovers
// new producers and forgets ones that have shut down, mirroring the
// thread-local producer registration bookkeeping the consumer loop in the
// source this was distilled from performed at startup.
//
// Register/Unregister may be called from any goroutine. The consumer
// goroutine calls Snapshot each round; it returns a copy, so ranging over
// the round-robin slice needs no lock.
type Registry struct {
	mu      sync.Mutex
	entries map[uint32]*Queue
	order   []uint32
	nextID  uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uint32]*Queue)}
}

// Register adds q and returns the ordinal ID assigned to it.
func (r *Registry) Register(q *Queue) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.entries[id] = q
	r.order = append(r.order, id)
	return id
}

// Unregister removes the queue registered under id, if present.
func (r *Registry) Unregister(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return
	}
	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Entry pairs a registered queue with the stable ordinal ID Register
// handed out for it.
type Entry struct {
	ID    uint32
	Queue *Queue
}

// Snapshot returns the currently registered queues in round-robin order.
// The consumer calls this once per drain pass; the returned slice is a
// fresh copy safe to range over without holding any lock. The consumer
// keys its own per-queue Consumer cursors off Entry.ID, so a producer that
// unregisters and a new one that registers never get confused for the
// same logical stream even if the old producer's ID briefly matches what
// a naive index-based scheme would assume.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.order))
	for i, id := range r.order {
		out[i] = Entry{ID: id, Queue: r.entries[id]}
	}
	return out
}

// Len reports how many producers are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
