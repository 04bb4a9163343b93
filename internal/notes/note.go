// Package notes implements the shared ephemeral-note registry and its
// TTL-based eviction scheduler.
package notes

import "time"

// DefaultTTL is how long a note stays live before eviction.
const DefaultTTL = 60 * time.Second

// Note is one user-submitted piece of ephemeral text. Immutable after
// creation; removed only by the evictor or process shutdown.
type Note struct {
	ID        uint64
	Body      string
	CreatedAt time.Time
}
