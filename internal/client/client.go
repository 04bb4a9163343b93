// Package client implements the connecting side of the note protocol:
// a bounded connect-plus-handshake sequence and the note operations.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/notectl/internal/protocol"
	"github.com/danmuck/notectl/internal/protocol/session"
)

var (
	ErrAddressRequired  = errors.New("client: server address required")
	ErrHandshakeTimeout = errors.New("client: handshake timed out")
	ErrUnexpectedReply  = errors.New("client: unexpected reply")
	ErrServerClosed     = errors.New("client: server closed the connection")
)

type Config struct {
	Address string
	Session session.Config
}

// Client is one connected session against the note service, holding
// the server-assigned client id from the handshake.
type Client struct {
	conn net.Conn
	sess *session.Conn
	id   uint64
}

// Connect dials the service and waits for the server-initiated Id
// frame. The whole connect-plus-handshake sequence is bounded; any
// reply other than Id is fatal.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	cfg.Session = cfg.Session.WithDefaults()

	dialer := net.Dialer{Timeout: cfg.Session.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", cfg.Address, err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(cfg.Session.HandshakeTimeout))
	sess := session.NewConn(conn)
	sess.SetWriteTimeout(cfg.Session.WriteTimeout)
	fr, err := sess.ReadFrame()
	if err != nil {
		_ = conn.Close()
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrHandshakeTimeout
		}
		return nil, fmt.Errorf("client: handshake: %w", err)
	}
	if fr == nil {
		_ = conn.Close()
		return nil, ErrServerClosed
	}
	if fr.Cmd.Kind != protocol.KindID {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedReply, fr.Cmd.Kind, protocol.KindID)
	}
	_ = conn.SetReadDeadline(time.Time{})

	log.Debug().Uint64("client_id", fr.Cmd.ID).Str("addr", cfg.Address).Msg("connected")
	return &Client{conn: conn, sess: sess, id: fr.Cmd.ID}, nil
}

// ID returns the server-assigned client id.
func (c *Client) ID() uint64 {
	return c.id
}

// CreateNote submits one note. The server acknowledges nothing back.
func (c *Client) CreateNote(text string) error {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "\r\n") {
		return fmt.Errorf("%w: note body", protocol.ErrEmbeddedCRLF)
	}
	return c.sess.WriteFrame(protocol.Create(text))
}

// ListNotes issues Read and returns the bodies of every live note in
// registry order.
func (c *Client) ListNotes() ([]string, error) {
	if err := c.sess.WriteFrame(protocol.Read()); err != nil {
		return nil, err
	}
	fr, err := c.sess.ReadFrame()
	if err != nil {
		return nil, err
	}
	if fr == nil {
		return nil, ErrServerClosed
	}
	if fr.Cmd.Kind != protocol.KindList {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedReply, fr.Cmd.Kind, protocol.KindList)
	}
	return fr.Cmd.Entries, nil
}

// Disconnect tells the server this session is done. Callers still
// Close afterwards.
func (c *Client) Disconnect() error {
	return c.sess.WriteFrame(protocol.Disconnect(c.id))
}

func (c *Client) Close() error {
	return c.conn.Close()
}
