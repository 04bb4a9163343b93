// Package session owns the buffered frame transport shared by client
// and server, plus the transport timing defaults.
package session
