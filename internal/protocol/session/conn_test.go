package session

import (
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/danmuck/notectl/internal/protocol"
	"github.com/danmuck/notectl/internal/protocol/frame"
	"github.com/danmuck/notectl/internal/testutil/testlog"
)

// writeChunked trickles wire bytes to the peer in n-byte slices so the
// reader has to assemble the frame across multiple reads.
func writeChunked(t *testing.T, w net.Conn, wire []byte, chunk int) {
	t.Helper()
	go func() {
		for i := 0; i < len(wire); i += chunk {
			end := i + chunk
			if end > len(wire) {
				end = len(wire)
			}
			if _, err := w.Write(wire[i:end]); err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
}

func TestReadFrameAcrossPartialReads(t *testing.T) {
	testlog.Start(t)
	server, peer := net.Pipe()
	defer server.Close()
	defer peer.Close()

	wire := frame.Encode(protocol.Create("assembled from pieces"))
	writeChunked(t, peer, wire, 3)

	c := NewConn(server)
	fr, err := c.ReadFrame()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if fr == nil || fr.Cmd.Kind != protocol.KindCreate || fr.Cmd.Text != "assembled from pieces" {
		t.Fatalf("unexpected frame: %+v", fr)
	}
}

func TestReadFramePipelined(t *testing.T) {
	testlog.Start(t)
	server, peer := net.Pipe()
	defer server.Close()
	defer peer.Close()

	wire := append(frame.Encode(protocol.Create("one")), frame.Encode(protocol.Read())...)
	go func() {
		_, _ = peer.Write(wire)
	}()

	c := NewConn(server)
	first, err := c.ReadFrame()
	if err != nil || first == nil || first.Cmd.Kind != protocol.KindCreate {
		t.Fatalf("first frame: %+v err=%v", first, err)
	}
	// Second frame is already buffered; no further transport read.
	second, err := c.ReadFrame()
	if err != nil || second == nil || second.Cmd.Kind != protocol.KindRead {
		t.Fatalf("second frame: %+v err=%v", second, err)
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	testlog.Start(t)
	server, peer := net.Pipe()
	defer server.Close()

	go peer.Close()

	c := NewConn(server)
	fr, err := c.ReadFrame()
	if err != nil {
		t.Fatalf("clean eof should not error: %v", err)
	}
	if fr != nil {
		t.Fatalf("clean eof should yield no frame, got %+v", fr)
	}
}

func TestReadFrameResetMidFrame(t *testing.T) {
	testlog.Start(t)
	server, peer := net.Pipe()
	defer server.Close()

	go func() {
		_, _ = peer.Write([]byte("+half a fra"))
		_ = peer.Close()
	}()

	c := NewConn(server)
	_, err := c.ReadFrame()
	if !errors.Is(err, ErrConnReset) {
		t.Fatalf("want ErrConnReset, got %v", err)
	}
}

func TestReadFrameInvalidTagFatal(t *testing.T) {
	testlog.Start(t)
	server, peer := net.Pipe()
	defer server.Close()
	defer peer.Close()

	go func() {
		_, _ = peer.Write([]byte{0xFF})
	}()

	c := NewConn(server)
	_, err := c.ReadFrame()
	var tagErr protocol.InvalidTagError
	if !errors.As(err, &tagErr) || tagErr.Tag != 0xFF {
		t.Fatalf("want InvalidTagError{0xFF}, got %v", err)
	}
}

func TestWriteFrameSingleWrite(t *testing.T) {
	testlog.Start(t)
	server, peer := net.Pipe()
	defer server.Close()
	defer peer.Close()

	done := make(chan error, 1)
	go func() {
		done <- NewConn(server).WriteFrame(protocol.ID(7))
	}()

	buf := make([]byte, 64)
	n, err := peer.Read(buf)
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if string(buf[:n]) != "#7\r\n" {
		t.Fatalf("unexpected wire bytes %q", buf[:n])
	}
	if err := <-done; err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func TestWriteFrameTimesOutOnStalledPeer(t *testing.T) {
	testlog.Start(t)
	server, peer := net.Pipe()
	defer server.Close()
	defer peer.Close()

	// The peer never reads, so the write blocks until the deadline.
	c := NewConn(server)
	c.SetWriteTimeout(30 * time.Millisecond)

	err := c.WriteFrame(protocol.Create("stalled"))
	if err == nil {
		t.Fatal("want write timeout, got nil")
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}
