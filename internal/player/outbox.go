package player

import "github.com/FardinIqbal/concurrent-network-game-server/internal/protocol"

// Outbox is the per-connection frame sink a Player sends outbound
// frames through. It is implemented by the client service routine's
// connection wrapper (internal/gameserver); kept as an interface here
// so this package has no dependency on net.Conn or the wire framing
// transport.
type Outbox interface {
	Send(h protocol.Header, payload []byte) error
}
