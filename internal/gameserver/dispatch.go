package gameserver

import (
	"errors"
	"log/slog"
	"net"

	"github.com/FardinIqbal/concurrent-network-game-server/internal/maze"
	"github.com/FardinIqbal/concurrent-network-game-server/internal/player"
	"github.com/FardinIqbal/concurrent-network-game-server/internal/protocol"
)

// halfCloser matches registry.halfCloser's shape; *net.TCPConn
// satisfies it, giving registry.ShutdownAll a real half-close to call.
type halfCloser interface {
	CloseRead() error
}

var _ halfCloser = (*net.TCPConn)(nil)

// handleConnection is the client service routine: one goroutine per
// accepted connection, from registration through dispatch to final
// cleanup.
func (s *Server) handleConnection(conn net.Conn) {
	addr := conn.RemoteAddr().String()
	slog.Info("new connection", "remote", addr)

	s.reg.Register(conn)
	ob := newOutbox(conn, s.cfg.SendQueueSize)
	go ob.writePump()

	var p *player.Player

	poll := func() {
		if p != nil {
			p.CheckForHit()
		}
	}

	defer func() {
		ob.CloseAsync()
		if p != nil {
			s.tbl.Logout(p)
		}
		s.reg.Unregister(conn)
		conn.Close()
		slog.Info("connection closed", "remote", addr)
	}()

	for {
		if p != nil {
			p.CheckForHit()
		}

		h, payload, err := protocol.Recv(conn, poll)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				slog.Debug("connection read ended", "remote", addr, "error", err)
			}
			return
		}

		if p != nil {
			p.CheckForHit()
		}

		s.dispatch(&p, ob, h, payload)
	}
}

// dispatch handles one received frame. p is a pointer to the service
// routine's "bound player" slot: LOGIN is the only frame type that
// ever assigns through it.
func (s *Server) dispatch(p **player.Player, ob *outbox, h protocol.Header, payload []byte) {
	switch h.Type {
	case protocol.TypeLogin:
		if *p != nil {
			return // duplicate LOGIN after logged in: ignore
		}
		avatar := maze.Object(h.Param1)
		name := string(payload)
		logged, err := s.tbl.Login(ob, avatar, name)
		if err != nil {
			_ = ob.Send(protocol.Header{Type: protocol.TypeInuse}, nil)
			return
		}
		*p = logged
		_ = ob.Send(protocol.Header{Type: protocol.TypeReady}, nil)
		logged.Reset()

	case protocol.TypeMove:
		if *p == nil {
			return
		}
		_ = (*p).Move(protocol.DecodeSigned8(h.Param1))

	case protocol.TypeTurn:
		if *p == nil {
			return
		}
		(*p).Rotate(protocol.DecodeSigned8(h.Param1))

	case protocol.TypeFire:
		if *p == nil {
			return
		}
		(*p).FireLaser()

	case protocol.TypeRefresh:
		if *p == nil {
			return
		}
		(*p).InvalidateView()
		(*p).UpdateView()

	case protocol.TypeSend:
		if *p == nil {
			return
		}
		(*p).SendChat(string(payload))

	default:
		// malformed/unknown frame type: ignore (defensive)
	}
}
