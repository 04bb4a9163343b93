package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrIncomplete   = errors.New("protocol: incomplete frame")
	ErrBadLength    = errors.New("protocol: malformed list entry length")
	ErrShortEntry   = errors.New("protocol: truncated list entry")
	ErrBadInteger   = errors.New("protocol: malformed integer body")
	ErrEmbeddedCRLF = errors.New("protocol: body contains embedded CRLF")
)

// InvalidTagError reports an unrecognized frame tag byte. Fatal to the
// connection that produced it.
type InvalidTagError struct {
	Tag byte
}

func (e InvalidTagError) Error() string {
	return fmt.Sprintf("protocol: invalid frame tag 0x%02x", e.Tag)
}
