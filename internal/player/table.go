package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/FardinIqbal/concurrent-network-game-server/internal/maze"
	"github.com/FardinIqbal/concurrent-network-game-server/internal/protocol"
)

// scoreHeader builds the SCORE frame header for (avatar, score).
func scoreHeader(avatar maze.Object, score int) protocol.Header {
	return protocol.Header{
		Type:   protocol.TypeScore,
		Param1: byte(avatar),
		Param2: protocol.EncodeSigned8(score),
	}
}

// DefaultViewDepth is the number of view rows extracted per player.
const DefaultViewDepth = 8

// DefaultPurgatory is the pause between a laser hit and respawn.
const DefaultPurgatory = 3 * time.Second

// Config tunes per-table-instance behavior that would otherwise be
// fixed constants.
type Config struct {
	ViewDepth int
	Purgatory time.Duration
}

// DefaultConfig returns the table's typical tuning values.
func DefaultConfig() Config {
	return Config{ViewDepth: DefaultViewDepth, Purgatory: DefaultPurgatory}
}

// Table is the player table: the mapping from avatar byte to at most
// one live Player record, plus the broadcast operations that every
// mutator relies on to keep clients' screens consistent with the maze.
type Table struct {
	mu      sync.RWMutex
	players map[maze.Object]*Player
	mz      *maze.Maze
	cfg     Config
}

// NewTable creates an empty player table bound to mz.
func NewTable(mz *maze.Maze, cfg Config) *Table {
	return &Table{
		players: make(map[maze.Object]*Player),
		mz:      mz,
		cfg:     cfg,
	}
}

// Login creates a new Player for avatar, places it at a random free
// maze cell, and installs it into the table. Fails if avatar is
// already bound to a live player, or if the maze has no free cell.
func (t *Table) Login(outbox Outbox, avatar maze.Object, name string) (*Player, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.players[avatar]; exists {
		return nil, ErrAvatarInUse
	}

	p := &Player{
		avatar:         avatar,
		name:           name,
		outbox:         outbox,
		mz:             t.mz,
		table:          t,
		dir:            maze.North,
		viewValidDepth: -1,
		refCount:       1,
		lastView:       make([]maze.ViewCell, t.cfg.ViewDepth),
	}

	row, col, err := t.mz.SetPlayerRandom(avatar)
	if err != nil {
		return nil, fmt.Errorf("player: login placement: %w", err)
	}
	p.row, p.col = row, col

	t.players[avatar] = p
	return p, nil
}

// Logout removes p from the table (iff the table entry still points
// at p), removes it from the maze, broadcasts its removal via SCORE,
// and drops the login-held reference.
func (t *Table) Logout(p *Player) {
	t.mu.Lock()
	if t.players[p.avatar] == p {
		delete(t.players, p.avatar)
	}
	t.mu.Unlock()

	row, col, _ := p.Location()
	p.mz.Remove(p.avatar, row, col)
	t.BroadcastScore(p.avatar, -1)
	p.unref()
}

// Get returns the live player bound to avatar, with an extra
// reference held on behalf of the caller (release it with the
// returned Player's own lifecycle, see FireLaser for the pattern).
// Returns nil if no player is bound to avatar.
func (t *Table) Get(avatar maze.Object) *Player {
	t.mu.RLock()
	p, ok := t.players[avatar]
	t.mu.RUnlock()
	if !ok {
		return nil
	}
	p.ref()
	return p
}

// ForEach calls fn once for every live player, holding the table's
// read lock for the duration of the iteration. Every broadcast in this
// package goes through ForEach, so iteration is always consistent with
// concurrent Login/Logout rather than racing the bare map.
func (t *Table) ForEach(fn func(*Player)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.players {
		fn(p)
	}
}

// Count returns the number of live players.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.players)
}

// UpdateAllViews tells every live player to refresh its view. Called
// after every maze mutation so every live player's screen stays
// consistent with the maze.
func (t *Table) UpdateAllViews() {
	t.ForEach(func(p *Player) {
		p.UpdateView()
	})
}

// BroadcastScore sends a SCORE frame (avatar, score) to every live
// player. score == -1 signals removal of that avatar from scoreboards.
func (t *Table) BroadcastScore(avatar maze.Object, score int) {
	t.ForEach(func(p *Player) {
		p.mu.Lock()
		_ = p.outbox.Send(scoreHeader(avatar, score), nil)
		p.mu.Unlock()
	})
}
