package main

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/danmuck/notectl/internal/testutil/testlog"
)

// startWireRecorder serves one connection: it issues the Id handshake,
// then captures everything the client writes until the stream closes.
func startWireRecorder(t *testing.T) (string, <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		if _, err := conn.Write([]byte("#0\r\n")); err != nil {
			return
		}
		data, _ := io.ReadAll(conn)
		got <- data
	}()
	return ln.Addr().String(), got
}

func recordedWire(t *testing.T, got <-chan []byte) string {
	t.Helper()
	select {
	case wire := <-got:
		return string(wire)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for captured wire bytes")
		return ""
	}
}

func TestRunSendsDisconnectAfterCommand(t *testing.T) {
	testlog.Start(t)
	addr, got := startWireRecorder(t)

	if err := run(addr, []string{"new", "hello"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if wire := recordedWire(t, got); wire != "+hello\r\n!0\r\n" {
		t.Fatalf("unexpected wire bytes %q", wire)
	}
}

func TestRunSendsDisconnectOnCommandError(t *testing.T) {
	testlog.Start(t)
	addr, got := startWireRecorder(t)

	if err := run(addr, []string{"bogus"}); err == nil {
		t.Fatal("want error for unknown command")
	}
	// Even a failed invocation tells the server the session is done.
	if wire := recordedWire(t, got); wire != "!0\r\n" {
		t.Fatalf("unexpected wire bytes %q", wire)
	}
}
