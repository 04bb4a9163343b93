package server

import (
	"net"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/notectl/internal/observability"
	"github.com/danmuck/notectl/internal/protocol"
	"github.com/danmuck/notectl/internal/protocol/session"
)

// handleSession runs one connection's command loop. The handshake is
// server-initiated: the handler sends Id(clientID) before reading
// anything. Every exit path reports an id to the reaper so no table
// entry outlives its session, including clean end-of-stream.
func (s *Service) handleSession(id uint64, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	observability.RecordSessionOpened()
	log.Info().Uint64("client_id", id).Str("remote", remote).Msg("session started")

	c := session.NewConn(conn)
	c.SetWriteTimeout(s.cfg.Session.WriteTimeout)
	if err := c.WriteFrame(protocol.ID(id)); err != nil {
		log.Warn().Err(err).Uint64("client_id", id).Msg("handshake write failed")
		s.endSession(id, "handshake_error")
		return
	}

	for {
		fr, err := c.ReadFrame()
		if err != nil {
			log.Warn().Err(err).Uint64("client_id", id).Str("remote", remote).Msg("session terminated")
			s.endSession(id, "protocol_error")
			return
		}
		if fr == nil {
			log.Info().Uint64("client_id", id).Msg("stream closed by client")
			s.endSession(id, "eof")
			return
		}

		cmd := fr.Cmd
		log.Debug().Uint64("client_id", id).Stringer("command", cmd.Kind).Msg("command received")
		switch cmd.Kind {
		case protocol.KindCreate:
			note := s.registry.Create(cmd.Text)
			observability.RecordNoteCreated()
			log.Debug().Uint64("client_id", id).Uint64("note_id", note.ID).Msg("note created")
		case protocol.KindRead:
			all := s.registry.GetAll()
			bodies := make([]string, 0, len(all))
			for _, n := range all {
				bodies = append(bodies, n.Body)
			}
			if err := c.WriteFrame(protocol.List(bodies)); err != nil {
				log.Warn().Err(err).Uint64("client_id", id).Msg("list reply failed")
				s.endSession(id, "write_error")
				return
			}
		case protocol.KindDisconnect:
			s.endSession(cmd.ID, "disconnect")
			if cmd.ID != id {
				// The client named some other session, but this one is
				// still going away; its own entry must be reaped too.
				s.sessions.notifyDisconnect(id)
			}
			return
		case protocol.KindQuit:
			// Graceful close without a client id on the wire; treated
			// as a disconnect of this session.
			s.endSession(id, "quit")
			return
		default:
			// Decodable but serverside-inert commands (Id, List from a
			// client) are ignored.
		}
	}
}

func (s *Service) endSession(id uint64, cause string) {
	s.sessions.notifyDisconnect(id)
	observability.RecordSessionClosed(cause)
}
