package server

import (
	"net"
	"sync"

	"github.com/rs/zerolog/log"
)

const disconnectBuffer = 32

// sessionTable tracks one entry per live session. Client ids come from
// an owned monotonic counter, never from table size. Entries are
// removed only by the reaper goroutine, which drains the disconnect
// channel; handlers never delete entries directly.
type sessionTable struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[uint64]net.Conn

	disconnects chan uint64
	reaperDone  chan struct{}
}

func newSessionTable() *sessionTable {
	return &sessionTable{
		entries:     make(map[uint64]net.Conn),
		disconnects: make(chan uint64, disconnectBuffer),
		reaperDone:  make(chan struct{}),
	}
}

func (t *sessionTable) register(conn net.Conn) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.entries[id] = conn
	return id
}

func (t *sessionTable) has(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[id]
	return ok
}

func (t *sessionTable) live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// notifyDisconnect hands the id to the reaper. Decouples "session has
// logically ended" from "handler goroutine has exited".
func (t *sessionTable) notifyDisconnect(id uint64) {
	t.disconnects <- id
}

func (t *sessionTable) startReaper() {
	go func() {
		defer close(t.reaperDone)
		for id := range t.disconnects {
			t.mu.Lock()
			_, ok := t.entries[id]
			delete(t.entries, id)
			t.mu.Unlock()
			if ok {
				log.Debug().Uint64("client_id", id).Msg("session reaped")
			}
		}
	}()
}

// closeAndWait stops the reaper once every handler has exited.
func (t *sessionTable) closeAndWait() {
	close(t.disconnects)
	<-t.reaperDone
}
