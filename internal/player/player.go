// Package player implements the per-player game state and operations:
// login/logout, movement, rotation, firing, chat, the per-player view
// cache, and the asynchronous hit flag.
//
// Grounded on the teacher's internal/model/player.go (a per-record
// lock guarding most fields) and internal/gameserver/clients.go's
// mutex-guarded registry shape, generalized into the avatar-keyed
// Table below.
//
// Every Player method takes its lock once: state is read or written
// under a single Lock/Unlock pair per step, and any outbound frame is
// sent from inside that same critical section rather than by calling a
// second method that re-acquires the lock. Go's sync.Mutex is
// non-reentrant, so this single-acquisition shape is what preserves
// per-client frame ordering across a method's reads, writes, and sends.
package player

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FardinIqbal/concurrent-network-game-server/internal/maze"
	"github.com/FardinIqbal/concurrent-network-game-server/internal/protocol"
)

// ErrAvatarInUse is returned by Table.Login when the requested avatar
// is already bound to a live player.
var ErrAvatarInUse = errors.New("player: avatar already in use")

// Player is one connected, logged-in player's game state.
type Player struct {
	avatar maze.Object
	name   string
	outbox Outbox
	mz     *maze.Maze
	table  *Table

	mu             sync.Mutex // guards every field below
	row, col       int
	dir            maze.Direction
	score          int
	lastView       []maze.ViewCell
	viewValidDepth int // -1 == invalid
	refCount       int

	laserHit atomic.Bool
}

// Avatar returns the player's identity byte. Immutable after creation.
func (p *Player) Avatar() maze.Object { return p.avatar }

// Name returns the player's display name. Immutable after creation.
func (p *Player) Name() string { return p.name }

// Location snapshots the player's current coordinates and gaze under
// the player's lock.
func (p *Player) Location() (row, col int, dir maze.Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.row, p.col, p.dir
}

// Score returns the player's current score.
func (p *Player) Score() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

// RefCount returns the player's current reference count. Diagnostic
// only: Go's garbage collector owns the record's real lifetime, so the
// count does not gate deallocation; it is maintained purely so callers
// and tests can check that every ref is paired with an unref.
func (p *Player) RefCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refCount
}

// ref increments the player's diagnostic reference count.
func (p *Player) ref() {
	p.mu.Lock()
	p.refCount++
	p.mu.Unlock()
}

// unref decrements the player's diagnostic reference count.
func (p *Player) unref() {
	p.mu.Lock()
	p.refCount--
	p.mu.Unlock()
}

// InvalidateView marks the player's view cache invalid, forcing the
// next UpdateView to send a full CLEAR + redraw.
func (p *Player) InvalidateView() {
	p.mu.Lock()
	p.viewValidDepth = -1
	p.mu.Unlock()
}

// Move steps the player forward (sign >= 0) or backward (sign < 0)
// one cell, then tells every live player (including itself) to
// refresh its view.
func (p *Player) Move(sign int) error {
	p.mu.Lock()
	dir := p.dir
	if sign < 0 {
		dir = dir.Reverse()
	}
	nr, nc, err := p.mz.Move(p.row, p.col, dir)
	if err == nil {
		p.row, p.col = nr, nc
	}
	p.mu.Unlock()

	if err != nil {
		return err
	}

	p.table.UpdateAllViews()
	return nil
}

// Rotate turns the player one step counter-clockwise (sign >= 0) or
// clockwise (sign < 0), invalidates its view cache, and sends a fresh
// view to just this player.
func (p *Player) Rotate(sign int) {
	p.mu.Lock()
	if sign < 0 {
		p.dir = p.dir.TurnRight()
	} else {
		p.dir = p.dir.TurnLeft()
	}
	p.viewValidDepth = -1
	p.mu.Unlock()

	p.UpdateView()
}

// cellAt returns column x (0=left wall, 1=corridor, 2=right wall) of v.
func cellAt(v maze.ViewCell, x int) maze.Object {
	switch x {
	case 0:
		return v.Left
	case 2:
		return v.Right
	default:
		return v.Corridor
	}
}

// UpdateView recomputes the player's first-person view from the maze
// and sends the client whatever frames are needed to bring its screen
// up to date: a full CLEAR + redraw if the cache was invalid, otherwise
// one SHOW per cell that differs from the cached last_view (cells past
// the shorter of the old and new depths compare as Empty).
func (p *Player) UpdateView() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fresh := make([]maze.ViewCell, len(p.lastView))
	depth := p.mz.GetView(fresh, p.row, p.col, p.dir, len(fresh))

	prevDepth := p.viewValidDepth

	if prevDepth < 0 {
		_ = p.outbox.Send(protocol.Header{Type: protocol.TypeClear}, nil)
		for d := 0; d < depth; d++ {
			for x := 0; x < 3; x++ {
				p.sendShow(d, x, cellAt(fresh[d], x))
			}
		}
	} else {
		maxDepth := depth
		if prevDepth > maxDepth {
			maxDepth = prevDepth
		}
		for d := 0; d < maxDepth; d++ {
			for x := 0; x < 3; x++ {
				var newVal, oldVal maze.Object
				if d < depth {
					newVal = cellAt(fresh[d], x)
				} else {
					newVal = maze.Empty
				}
				if d < prevDepth {
					oldVal = cellAt(p.lastView[d], x)
				} else {
					oldVal = maze.Empty
				}
				if newVal != oldVal {
					p.sendShow(d, x, newVal)
				}
			}
		}
	}

	copy(p.lastView, fresh[:depth])
	p.viewValidDepth = depth
}

// sendShow sends one SHOW frame. Caller must hold p.mu.
func (p *Player) sendShow(depth, x int, val maze.Object) {
	_ = p.outbox.Send(protocol.Header{
		Type:   protocol.TypeShow,
		Param1: byte(val),
		Param2: byte(x),
		Param3: byte(depth),
	}, nil)
}

// FireLaser fires in the player's current direction. If the shot's
// first obstacle is a live avatar, that player's laser_hit flag is set
// (the only state the shooter touches on the victim), the shooter's
// score is incremented, and the new score is broadcast. A shot that
// hits a wall or nothing does nothing.
func (p *Player) FireLaser() {
	row, col, dir := p.Location()

	target := p.mz.FindTarget(row, col, dir)
	if !target.IsAvatar() {
		return
	}

	victim := p.table.Get(target)
	if victim == nil {
		return
	}
	defer victim.unref()

	victim.laserHit.Store(true)

	p.mu.Lock()
	p.score++
	newScore := p.score
	p.mu.Unlock()

	p.table.BroadcastScore(p.avatar, newScore)
}

// CheckForHit reads and clears the player's laser_hit flag. If it was
// set, the player is removed from the maze, every live player's view
// is refreshed, the player is sent ALERT, the service routine's
// goroutine sleeps out the purgatory duration, and the player is
// respawned via Reset.
//
// Call sites: once before protocol.Recv and once after it returns, so
// the victim's own service loop is responsible for observing the
// flag; protocol.Recv's poll callback also calls this while blocked,
// so a hit raised mid-read is observed without waiting for the read to
// complete.
func (p *Player) CheckForHit() {
	if !p.laserHit.CompareAndSwap(true, false) {
		return
	}

	row, col, _ := p.Location()
	p.mz.Remove(p.avatar, row, col)
	p.table.UpdateAllViews()

	p.mu.Lock()
	_ = p.outbox.Send(protocol.Header{Type: protocol.TypeAlert}, nil)
	p.mu.Unlock()

	time.Sleep(p.table.cfg.Purgatory)

	p.Reset()
}

// Reset removes the player from its current maze cell, zeroes its
// score, and places it at a fresh random location. On success it
// sends every other live player's current score to this player,
// broadcasts this player's own zeroed score, and refreshes every live
// player's view.
//
// If random placement fails because the maze is full, the player is
// logged out rather than left in limbo with stale coordinates, which
// would otherwise let a later view computation read a position that
// no longer matches any maze cell (see DESIGN.md).
func (p *Player) Reset() {
	p.mu.Lock()
	p.mz.Remove(p.avatar, p.row, p.col)
	p.score = 0
	p.mu.Unlock()

	row, col, err := p.mz.SetPlayerRandom(p.avatar)
	if err != nil {
		p.table.Logout(p)
		return
	}

	p.mu.Lock()
	p.row, p.col = row, col
	p.mu.Unlock()

	p.sendOtherScores()
	p.table.BroadcastScore(p.avatar, 0)
	p.table.UpdateAllViews()
}

// sendOtherScores sends this player one SCORE frame per other live
// player, reflecting their current scores.
func (p *Player) sendOtherScores() {
	p.table.ForEach(func(other *Player) {
		if other == p {
			return
		}
		other.mu.Lock()
		avatar, score := other.avatar, other.score
		other.mu.Unlock()

		p.mu.Lock()
		_ = p.outbox.Send(protocol.Header{
			Type:   protocol.TypeScore,
			Param1: byte(avatar),
			Param2: protocol.EncodeSigned8(score),
		}, nil)
		p.mu.Unlock()
	})
}

// maxChatLen bounds a formatted chat line.
const maxChatLen = 1024

// SendChat formats "<name>[<avatar>] <msg>" and broadcasts it as a
// CHAT frame to every live player, including the sender.
func (p *Player) SendChat(msg string) {
	line := fmt.Sprintf("%s[%c] %s", p.name, byte(p.avatar), msg)
	if len(line) > maxChatLen {
		line = line[:maxChatLen]
	}
	buf := []byte(line)

	p.table.ForEach(func(other *Player) {
		other.mu.Lock()
		_ = other.outbox.Send(protocol.Header{Type: protocol.TypeChat}, buf)
		other.mu.Unlock()
	})
}
