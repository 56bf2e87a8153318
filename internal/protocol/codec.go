package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"
)

// conn is the subset of net.Conn that Send/Recv require. Deadlines are
// what let Recv poll between read attempts without real signals.
type conn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	SetReadDeadline(t time.Time) error
}

// encode writes h onto the wire representation buf[:HeaderSize].
func encode(h Header, buf []byte) {
	buf[0] = byte(h.Type)
	binary.BigEndian.PutUint16(buf[1:3], h.Size)
	buf[3] = h.Param1
	buf[4] = h.Param2
	buf[5] = h.Param3
	buf[6] = 0
	buf[7] = 0
	binary.BigEndian.PutUint32(buf[8:12], h.TimestampSec)
	binary.BigEndian.PutUint32(buf[12:16], h.TimestampNsec)
}

// decode parses the wire representation buf[:HeaderSize] into a Header.
func decode(buf []byte) Header {
	return Header{
		Type:          Type(buf[0]),
		Size:          binary.BigEndian.Uint16(buf[1:3]),
		Param1:        buf[3],
		Param2:        buf[4],
		Param3:        buf[5],
		TimestampSec:  binary.BigEndian.Uint32(buf[8:12]),
		TimestampNsec: binary.BigEndian.Uint32(buf[12:16]),
	}
}

// Send stamps h's timestamp fields with the current wall-clock time,
// then writes the header followed by payload (if h.Size > 0) to c.
// Writes loop on short writes; any write returning an error is
// propagated to the caller.
func Send(c conn, h Header, payload []byte) error {
	now := time.Now()
	h.TimestampSec = uint32(now.Unix())
	h.TimestampNsec = uint32(now.Nanosecond())
	h.Size = uint16(len(payload))

	var hdr [HeaderSize]byte
	encode(h, hdr[:])

	if err := writeFull(c, hdr[:]); err != nil {
		return fmt.Errorf("protocol: writing header: %w", err)
	}

	if h.Size > 0 {
		if err := writeFull(c, payload[:h.Size]); err != nil {
			return fmt.Errorf("protocol: writing payload: %w", err)
		}
	}
	return nil
}

func writeFull(c conn, buf []byte) error {
	for written := 0; written < len(buf); {
		n, err := c.Write(buf[written:])
		written += n
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("protocol: write returned %d bytes", n)
		}
	}
	return nil
}

// pollTimeout is the read-deadline slice used by Recv to simulate a
// signal-interruptible blocking read: short enough that a laser hit
// raised while a goroutine is blocked in Recv is observed within one
// slice, long enough that it isn't a busy loop.
const pollTimeout = 200 * time.Millisecond

// Recv reads exactly one frame from c. poll, if non-nil, is invoked
// every time the internal read deadline lapses with no data having
// arrived. This is the cooperative stand-in for the source's
// signal-interrupted read: the caller uses poll to check its
// asynchronous hit flag. A deadline lapse is never surfaced to the
// caller as an error; it is retried transparently, exactly like the
// source's EINTR handling.
//
// On success, returns the decoded header and payload (nil if
// h.Size == 0). EOF or any non-timeout read error is returned as-is.
func Recv(c conn, poll func()) (Header, []byte, error) {
	var hdrBuf [HeaderSize]byte
	if err := readFull(c, hdrBuf[:], poll); err != nil {
		return Header{}, nil, err
	}

	h := decode(hdrBuf[:])

	if h.Size == 0 {
		return h, nil, nil
	}

	payload := make([]byte, h.Size)
	if err := readFull(c, payload, poll); err != nil {
		return Header{}, nil, err
	}
	return h, payload, nil
}

// readFull fills buf completely, looping on short reads and on
// deadline lapses (which invoke poll and retry transparently, never
// surfacing to the caller). A real I/O error or EOF is returned as-is.
func readFull(c conn, buf []byte, poll func()) error {
	for read := 0; read < len(buf); {
		if err := c.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
			return fmt.Errorf("protocol: setting read deadline: %w", err)
		}

		n, err := c.Read(buf[read:])
		read += n
		if err != nil {
			if isTimeout(err) {
				if poll != nil {
					poll()
				}
				continue
			}
			return err
		}
	}
	return nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
