package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/notectl/internal/protocol"
	"github.com/danmuck/notectl/internal/protocol/frame"
	"github.com/danmuck/notectl/internal/protocol/session"
	"github.com/danmuck/notectl/internal/testutil/testlog"
)

// fakeServer accepts one connection and hands it to serve.
func fakeServer(t *testing.T, serve func(conn net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		serve(conn)
	}()
	return ln.Addr().String()
}

func TestConnectHandshake(t *testing.T) {
	testlog.Start(t)
	addr := fakeServer(t, func(conn net.Conn) {
		_, _ = conn.Write(frame.Encode(protocol.ID(7)))
	})

	c, err := Connect(context.Background(), Config{Address: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()
	if c.ID() != 7 {
		t.Fatalf("client id = %d, want 7", c.ID())
	}
}

func TestConnectRejectsUnexpectedFirstFrame(t *testing.T) {
	testlog.Start(t)
	addr := fakeServer(t, func(conn net.Conn) {
		_, _ = conn.Write(frame.Encode(protocol.List([]string{"nope"})))
	})

	_, err := Connect(context.Background(), Config{Address: addr})
	if !errors.Is(err, ErrUnexpectedReply) {
		t.Fatalf("want ErrUnexpectedReply, got %v", err)
	}
}

func TestConnectHandshakeTimeout(t *testing.T) {
	testlog.Start(t)
	addr := fakeServer(t, func(conn net.Conn) {
		// Silent server: never sends the Id frame.
		time.Sleep(2 * time.Second)
		_ = conn.Close()
	})

	cfg := Config{
		Address: addr,
		Session: session.Config{HandshakeTimeout: 50 * time.Millisecond},
	}
	_, err := Connect(context.Background(), cfg)
	if !errors.Is(err, ErrHandshakeTimeout) {
		t.Fatalf("want ErrHandshakeTimeout, got %v", err)
	}
}

func TestConnectServerClosedBeforeHandshake(t *testing.T) {
	testlog.Start(t)
	addr := fakeServer(t, func(conn net.Conn) {
		_ = conn.Close()
	})

	_, err := Connect(context.Background(), Config{Address: addr})
	if !errors.Is(err, ErrServerClosed) {
		t.Fatalf("want ErrServerClosed, got %v", err)
	}
}

func TestCreateNoteRejectsEmbeddedCRLF(t *testing.T) {
	testlog.Start(t)
	addr := fakeServer(t, func(conn net.Conn) {
		_, _ = conn.Write(frame.Encode(protocol.ID(0)))
		// Keep the connection open for the write attempt.
		buf := make([]byte, 64)
		_, _ = conn.Read(buf)
	})

	c, err := Connect(context.Background(), Config{Address: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	err = c.CreateNote("line one\r\nline two")
	if !errors.Is(err, protocol.ErrEmbeddedCRLF) {
		t.Fatalf("want ErrEmbeddedCRLF, got %v", err)
	}
}

func TestConnectRequiresAddress(t *testing.T) {
	testlog.Start(t)
	_, err := Connect(context.Background(), Config{})
	if !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("want ErrAddressRequired, got %v", err)
	}
}
