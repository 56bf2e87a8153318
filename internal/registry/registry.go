// Package registry implements the client registry: a set of live
// connection handles, with no capacity limit, plus a "drain to empty" wait primitive and a
// broadcast "shut down the read side" operation used during graceful
// server shutdown.
//
// Grounded on the teacher's gameserver.ClientManager
// (internal/gameserver/clients.go): a mutex-guarded map plus counters,
// generalized here with a sync.Cond so a lifecycle goroutine can block
// until the last connection drains.
package registry

import (
	"net"
	"sync"
)

// halfCloser is implemented by connections (e.g. *net.TCPConn) that can
// shut down their read side while leaving the write side open so any
// final outbound frames can still drain.
type halfCloser interface {
	CloseRead() error
}

// Registry is the set of live connection handles. Safe for concurrent
// use; every method may be called from any goroutine.
type Registry struct {
	mu    sync.Mutex
	cond  *sync.Cond
	conns map[net.Conn]struct{}
}

// New creates an empty Registry.
func New() *Registry {
	r := &Registry{conns: make(map[net.Conn]struct{})}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Register adds conn to the set of live connections.
func (r *Registry) Register(conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn] = struct{}{}
}

// Unregister removes conn from the set. If the set becomes empty, any
// goroutine blocked in WaitForEmpty is woken.
func (r *Registry) Unregister(conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, conn)
	if len(r.conns) == 0 {
		r.cond.Broadcast()
	}
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// WaitForEmpty blocks until Count() == 0. If the registry is already
// empty when called, it returns immediately. Only one waiter at a time
// is guaranteed to be woken correctly for the server's single
// lifecycle goroutine; concurrent waiters are not a supported use case.
func (r *Registry) WaitForEmpty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.conns) > 0 {
		r.cond.Wait()
	}
}

// ShutdownAll shuts down the read side of every live connection's
// underlying stream, leaving the write side open so any final frames
// queued for delivery can still be written. This unblocks every
// service goroutine currently blocked in protocol.Recv on one of these
// connections: the next read attempt observes a broken read side and
// returns an error, which causes that service loop to exit. A
// connection that cannot half-close is closed outright instead.
func (r *Registry) ShutdownAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for conn := range r.conns {
		if hc, ok := conn.(halfCloser); ok {
			_ = hc.CloseRead()
		} else {
			_ = conn.Close()
		}
	}
}
