package session

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/danmuck/notectl/internal/protocol"
	"github.com/danmuck/notectl/internal/protocol/frame"
)

// ErrConnReset marks a transport that closed with a partial frame
// still buffered, as opposed to a clean end-of-stream.
var ErrConnReset = errors.New("session: connection reset by peer")

const readChunkSize = 1024

// Conn wraps a byte-stream transport with an accumulation buffer and
// assembles complete frames across multiple reads.
type Conn struct {
	rw           io.ReadWriter
	buf          []byte
	scratch      []byte
	writeTimeout time.Duration
}

type writeDeadliner interface {
	SetWriteDeadline(time.Time) error
}

func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{
		rw:      rw,
		buf:     make([]byte, 0, readChunkSize),
		scratch: make([]byte, readChunkSize),
	}
}

// ReadFrame returns the next complete frame. A clean end-of-stream
// with nothing buffered returns (nil, nil); end-of-stream mid-frame
// returns ErrConnReset. Frame errors (invalid tag, malformed body) are
// fatal to the connection and surface unchanged.
func (c *Conn) ReadFrame() (*frame.Frame, error) {
	for {
		fr, ok, err := c.parseBuffered()
		if err != nil {
			return nil, err
		}
		if ok {
			return &fr, nil
		}

		n, err := c.rw.Read(c.scratch)
		if n > 0 {
			c.buf = append(c.buf, c.scratch[:n]...)
			continue
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(c.buf) == 0 {
				return nil, nil
			}
			return nil, ErrConnReset
		}
		return nil, fmt.Errorf("session: read: %w", err)
	}
}

// SetWriteTimeout bounds every subsequent WriteFrame when the
// transport supports write deadlines. Zero or negative disables the
// bound.
func (c *Conn) SetWriteTimeout(d time.Duration) {
	c.writeTimeout = d
}

// WriteFrame encodes cmd and issues one write to the transport.
// Backpressure and partial-write handling stay with the transport,
// subject to the configured write timeout.
func (c *Conn) WriteFrame(cmd protocol.Command) error {
	if c.writeTimeout > 0 {
		if wd, ok := c.rw.(writeDeadliner); ok {
			_ = wd.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		}
	}
	if _, err := c.rw.Write(frame.Encode(cmd)); err != nil {
		return fmt.Errorf("session: write %s frame: %w", cmd.Kind, err)
	}
	return nil
}

// parseBuffered attempts one Check+Parse pass over the buffer. The
// checked span is dropped from the buffer only after a full parse.
func (c *Conn) parseBuffered() (frame.Frame, bool, error) {
	_, err := frame.Check(c.buf)
	if errors.Is(err, protocol.ErrIncomplete) {
		return frame.Frame{}, false, nil
	}
	if err != nil {
		return frame.Frame{}, false, err
	}
	fr, err := frame.Parse(c.buf)
	if err != nil {
		return frame.Frame{}, false, err
	}
	c.buf = append(c.buf[:0], c.buf[fr.Len:]...)
	return fr, true, nil
}
