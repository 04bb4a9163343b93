// Package protocol owns the wire contract for the note service.
//
// Ownership boundary:
// - command variant and tag bytes
// - frame check/parse/encode primitives (frame subpackage)
// - buffered frame transport and timing defaults (session subpackage)
package protocol
