package notes

import (
	"sort"
	"sync"

	"github.com/danmuck/notectl/internal/clock"
)

const eventBuffer = 128

// Registry is the shared concurrent store of live notes. Identifiers
// come from an owned strictly monotonic counter, never from current
// table contents, so an evicted note's id is never reissued.
type Registry struct {
	mu     sync.Mutex
	nextID uint64
	notes  map[uint64]Note

	clk    clock.Clock
	events chan uint64
}

func NewRegistry(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Registry{
		notes:  make(map[uint64]Note),
		clk:    clk,
		events: make(chan uint64, eventBuffer),
	}
}

// Events is the creation-order feed of new note ids consumed by the
// evictor.
func (r *Registry) Events() <-chan uint64 {
	return r.events
}

// CloseEvents signals the evictor to exit. Callers invoke it exactly
// once, after every creator has stopped.
func (r *Registry) CloseEvents() {
	close(r.events)
}

// Create assigns the next id, inserts the note, and publishes the id
// to the eviction feed.
func (r *Registry) Create(body string) Note {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	note := Note{ID: id, Body: body, CreatedAt: r.clk.Now()}
	r.notes[id] = note
	r.mu.Unlock()

	r.events <- id
	return note
}

// Get returns a copy of the note, if present.
func (r *Registry) Get(id uint64) (Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[id]
	return note, ok
}

// GetAll returns all live notes ordered by ascending id.
func (r *Registry) GetAll() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Note, 0, len(r.notes))
	for _, note := range r.notes {
		out = append(out, note)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Remove deletes and returns the note, if present.
func (r *Registry) Remove(id uint64) (Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[id]
	if ok {
		delete(r.notes, id)
	}
	return note, ok
}

// Len reports the number of live notes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}
