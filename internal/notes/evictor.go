package notes

import (
	"container/heap"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/notectl/internal/clock"
	"github.com/danmuck/notectl/internal/observability"
)

// Evictor removes notes from the registry once their TTL elapses. A
// single goroutine owns a min-heap keyed by expiry, so one note's
// eviction latency is bounded only by its own TTL and never by notes
// queued ahead of it.
type Evictor struct {
	registry *Registry
	clk      clock.Clock
	ttl      time.Duration
	done     chan struct{}
}

func NewEvictor(registry *Registry, clk clock.Clock, ttl time.Duration) *Evictor {
	if clk == nil {
		clk = clock.Real{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Evictor{
		registry: registry,
		clk:      clk,
		ttl:      ttl,
		done:     make(chan struct{}),
	}
}

// TTL reports the configured time-to-live.
func (e *Evictor) TTL() time.Duration {
	return e.ttl
}

// Start launches the eviction goroutine. It exits once the registry's
// event feed closes; Done reports that exit.
func (e *Evictor) Start() {
	go e.run()
}

func (e *Evictor) Done() <-chan struct{} {
	return e.done
}

func (e *Evictor) run() {
	defer close(e.done)
	pending := &expiryHeap{}
	heap.Init(pending)
	incoming := e.registry.Events()

	for {
		// Re-armed every pass so wakeups after spurious or early fires
		// re-check against the clock.
		var wake <-chan time.Time
		if pending.Len() > 0 {
			wake = e.clk.After((*pending)[0].expiresAt.Sub(e.clk.Now()))
		}

		select {
		case id, ok := <-incoming:
			if !ok {
				return
			}
			note, ok := e.registry.Get(id)
			if !ok {
				// Only the evictor removes notes, so a published id
				// must resolve. Stop rather than guess.
				log.Error().Uint64("note_id", id).Msg("evictor: published note missing from registry")
				return
			}
			heap.Push(pending, expiryEntry{id: id, expiresAt: note.CreatedAt.Add(e.ttl)})
		case <-wake:
			now := e.clk.Now()
			for pending.Len() > 0 && !(*pending)[0].expiresAt.After(now) {
				entry := heap.Pop(pending).(expiryEntry)
				if _, ok := e.registry.Remove(entry.id); ok {
					observability.RecordNoteEvicted()
					log.Debug().Uint64("note_id", entry.id).Msg("note evicted")
				}
			}
		}
	}
}

type expiryEntry struct {
	id        uint64
	expiresAt time.Time
}

type expiryHeap []expiryEntry

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *expiryHeap) Push(x any) {
	*h = append(*h, x.(expiryEntry))
}

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}
