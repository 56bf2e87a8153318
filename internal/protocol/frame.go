// Package protocol implements the mazewar wire format: a fixed 16-byte
// header followed by an optional payload, framed over a plain TCP byte
// stream.
package protocol

// Type identifies the kind of a frame.
type Type uint8

// Frame types. Values are fixed by compatibility with existing clients.
const (
	TypeLogin   Type = iota + 1 // C->S: request login. param1=avatar, payload=username
	TypeMove                    // C->S: step forward/back. param1=sign (+1/-1)
	TypeTurn                    // C->S: rotate. param1=sign (+1=CCW, -1=CW)
	TypeFire                    // C->S: fire laser
	TypeRefresh                 // C->S: force full view redraw
	TypeSend                    // C->S: chat. payload=message bytes

	TypeReady // S->C: login accepted
	TypeInuse // S->C: avatar taken
	TypeClear // S->C: clear client view
	TypeShow  // S->C: paint one view cell. param1=byte, param2=x (0..2), param3=d
	TypeAlert // S->C: you were hit
	TypeScore // S->C: scoreboard update. param1=avatar, param2=score (or -1 = remove)
	TypeChat  // S->C: broadcast chat line. payload=text
)

// HeaderSize is the fixed on-wire size of a Header, in bytes.
const HeaderSize = 16

// Header is the fixed 16-byte frame header. Multi-byte integer fields
// (Size, TimestampSec, TimestampNsec) are carried in network byte
// order on the wire; single-byte fields are not reordered.
type Header struct {
	Type          Type
	Size          uint16
	Param1        uint8
	Param2        uint8
	Param3        uint8
	TimestampSec  uint32
	TimestampNsec uint32
}
