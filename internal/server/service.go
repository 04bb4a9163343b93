// Package server hosts the note service: the TCP accept loop, the
// per-connection session handlers, the session table with its reaper,
// and the optional admin HTTP surface.
package server

import (
	"context"
	"errors"
	"net"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/notectl/internal/clock"
	"github.com/danmuck/notectl/internal/notes"
	"github.com/danmuck/notectl/internal/protocol/session"
)

// Config configures the note service endpoints.
type Config struct {
	ListenAddr      string
	AdminListenAddr string
	NoteTTL         time.Duration
	Session         session.Config
}

func DefaultConfig() Config {
	return Config{
		ListenAddr: ":7536",
		NoteTTL:    notes.DefaultTTL,
		Session:    session.DefaultConfig(),
	}
}

// Service owns the listener, the shared note registry, the evictor,
// and the session table.
type Service struct {
	cfg Config

	registry *notes.Registry
	evictor  *notes.Evictor
	sessions *sessionTable

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	handlerWG sync.WaitGroup
	startedAt time.Time
}

func NewService(cfg Config) *Service {
	return NewServiceWithClock(cfg, clock.Real{})
}

// NewServiceWithClock wires an explicit clock; tests pass clock.Manual
// to drive eviction deterministically.
func NewServiceWithClock(cfg Config, clk clock.Clock) *Service {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = DefaultConfig().ListenAddr
	}
	cfg.Session = cfg.Session.WithDefaults()
	registry := notes.NewRegistry(clk)
	return &Service{
		cfg:       cfg,
		registry:  registry,
		evictor:   notes.NewEvictor(registry, clk, cfg.NoteTTL),
		sessions:  newSessionTable(),
		conns:     make(map[net.Conn]struct{}),
		startedAt: time.Now(),
	}
}

// Registry exposes the shared note store.
func (s *Service) Registry() *notes.Registry {
	return s.registry
}

// Run listens on the configured address and blocks until signal
// shutdown.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("noted listening")

	adminErr := make(chan error, 1)
	if addr := strings.TrimSpace(s.cfg.AdminListenAddr); addr != "" {
		go func() {
			adminErr <- s.serveAdmin(ctx, addr)
		}()
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve(ctx, ln)
	}()
	select {
	case err := <-serveErr:
		return err
	case err := <-adminErr:
		if err != nil {
			return err
		}
		return <-serveErr
	}
}

// Serve accepts connections on an existing listener until ctx is
// cancelled, then drains handlers, the reaper, and the evictor in
// order. A single connection's accept or handler error is logged and
// never aborts the loop.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	s.evictor.Start()
	s.sessions.startReaper()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeAllConns()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			log.Error().Err(err).Msg("accept failed")
			continue
		}
		s.trackConn(conn)
		id := s.sessions.register(conn)
		s.handlerWG.Add(1)
		go func() {
			defer s.handlerWG.Done()
			defer s.untrackConn(conn)
			defer conn.Close()
			s.handleSession(id, conn)
		}()
	}

	// Shutdown order keeps every channel send ahead of its close:
	// handlers first, then the reaper, then the eviction feed.
	s.handlerWG.Wait()
	s.sessions.closeAndWait()
	s.registry.CloseEvents()
	<-s.evictor.Done()
	return nil
}

func (s *Service) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Service) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Service) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
