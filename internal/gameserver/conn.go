package gameserver

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/FardinIqbal/concurrent-network-game-server/internal/protocol"
)

// defaultSendQueueSize bounds a connection's outbound frame queue when
// the caller does not specify one.
const defaultSendQueueSize = 256

// writeTimeout bounds a single frame write; a client too slow to drain
// its TCP receive buffer within this window is treated as dead.
const writeTimeout = 5 * time.Second

// frame is one queued outbound header+payload pair.
type frame struct {
	header  protocol.Header
	payload []byte
}

// outbox is the per-connection async write queue implementing
// player.Outbox. Grounded on the teacher's GameClient: a buffered
// sendCh drained by a dedicated writePump goroutine, and a CloseAsync
// that is safe to call multiple times and from any goroutine.
//
// Unlike the teacher, there is no encryption or buffer pool: frames
// here are small, fixed-shape, and not on the teacher's steady-state
// zero-allocation hot path.
type outbox struct {
	conn net.Conn
	ip   string

	sendCh    chan frame
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newOutbox(conn net.Conn, queueSize int) *outbox {
	if queueSize <= 0 {
		queueSize = defaultSendQueueSize
	}
	ip := conn.RemoteAddr().String()
	return &outbox{
		conn:    conn,
		ip:      ip,
		sendCh:  make(chan frame, queueSize),
		closeCh: make(chan struct{}),
	}
}

// Send queues a frame for async delivery. Non-blocking: a full queue
// means a slow consumer, and the connection is closed rather than
// blocking the caller (the per-player lock would otherwise stall every
// other player's broadcast).
func (o *outbox) Send(h protocol.Header, payload []byte) error {
	select {
	case o.sendCh <- frame{header: h, payload: payload}:
		return nil
	default:
		slog.Warn("send queue full, disconnecting slow client", "client", o.ip)
		o.CloseAsync()
		_ = o.conn.Close()
		return nil
	}
}

// writePump drains sendCh and writes each frame to the connection. It
// returns when sendCh is closed or a write fails.
func (o *outbox) writePump() {
	for {
		select {
		case f, ok := <-o.sendCh:
			if !ok {
				return
			}
			if err := o.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				slog.Warn("set write deadline failed", "client", o.ip, "error", err)
				return
			}
			if err := protocol.Send(o.conn, f.header, f.payload); err != nil {
				slog.Warn("write failed", "client", o.ip, "error", err)
				return
			}
		case <-o.closeCh:
			return
		}
	}
}

// CloseAsync signals writePump to stop without blocking the caller.
// Safe to call multiple times and concurrently.
func (o *outbox) CloseAsync() {
	o.closeOnce.Do(func() {
		close(o.closeCh)
	})
}
