package player

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FardinIqbal/concurrent-network-game-server/internal/maze"
	"github.com/FardinIqbal/concurrent-network-game-server/internal/protocol"
)

// fakeOutbox captures every header/payload sent to it, for assertions.
type fakeOutbox struct {
	mu       sync.Mutex
	sent     []protocol.Header
	payloads [][]byte
}

func (f *fakeOutbox) Send(h protocol.Header, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, h)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeOutbox) count(t protocol.Type) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, h := range f.sent {
		if h.Type == t {
			n++
		}
	}
	return n
}

func (f *fakeOutbox) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.payloads = nil
}

func smallMaze(t *testing.T) *maze.Maze {
	t.Helper()
	m, err := maze.New([]string{
		"#####",
		"#   #",
		"#   #",
		"#   #",
		"#####",
	})
	require.NoError(t, err)
	return m
}

func newTable(t *testing.T) (*Table, *maze.Maze) {
	t.Helper()
	m := smallMaze(t)
	return NewTable(m, Config{ViewDepth: 8, Purgatory: 0}), m
}

func TestLoginPlacesPlayerAndSendsNoFramesYet(t *testing.T) {
	tbl, _ := newTable(t)
	ob := &fakeOutbox{}

	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)
	assert.Equal(t, maze.Object('A'), p.Avatar())
	assert.Equal(t, "alice", p.Name())
	assert.Equal(t, 1, p.RefCount())

	row, col, dir := p.Location()
	assert.True(t, row >= 1 && row <= 3)
	assert.True(t, col >= 1 && col <= 3)
	assert.Equal(t, maze.North, dir)
	assert.Empty(t, ob.sent)
}

func TestLoginRejectsDuplicateAvatar(t *testing.T) {
	tbl, _ := newTable(t)
	_, err := tbl.Login(&fakeOutbox{}, 'A', "alice")
	require.NoError(t, err)

	_, err = tbl.Login(&fakeOutbox{}, 'A', "mallory")
	assert.ErrorIs(t, err, ErrAvatarInUse)
}

func TestUpdateViewFirstCallSendsClearAndFullRedraw(t *testing.T) {
	tbl, _ := newTable(t)
	ob := &fakeOutbox{}
	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)

	p.UpdateView()

	assert.Equal(t, 1, ob.count(protocol.TypeClear))
	assert.Greater(t, ob.count(protocol.TypeShow), 0)
}

func TestUpdateViewSecondCallWithNoChangeSendsNoShow(t *testing.T) {
	tbl, _ := newTable(t)
	ob := &fakeOutbox{}
	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)

	p.UpdateView()
	ob.reset()

	p.UpdateView()
	assert.Equal(t, 0, ob.count(protocol.TypeClear))
	assert.Equal(t, 0, ob.count(protocol.TypeShow))
}

func TestMoveIntoWallLeavesPositionUnchanged(t *testing.T) {
	tbl, m := newTable(t)
	ob := &fakeOutbox{}
	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)

	// Force a known position and facing, then walk into the wall.
	row, col, _ := p.Location()
	m.Remove('A', row, col)
	require.NoError(t, m.SetPlayer('A', 1, 1))
	p.mu.Lock()
	p.row, p.col = 1, 1
	p.dir = maze.North
	p.mu.Unlock()

	err = p.Move(1)
	assert.ErrorIs(t, err, maze.ErrOccupied)

	newRow, newCol, _ := p.Location()
	assert.Equal(t, 1, newRow)
	assert.Equal(t, 1, newCol)
}

func TestMoveForwardUpdatesPositionAndBroadcastsViews(t *testing.T) {
	tbl, m := newTable(t)
	ob := &fakeOutbox{}
	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)

	row, col, _ := p.Location()
	m.Remove('A', row, col)
	require.NoError(t, m.SetPlayer('A', 2, 2))
	p.mu.Lock()
	p.row, p.col = 2, 2
	p.dir = maze.East
	p.mu.Unlock()
	p.UpdateView()
	ob.reset()

	err = p.Move(1)
	require.NoError(t, err)

	newRow, newCol, _ := p.Location()
	assert.Equal(t, 2, newRow)
	assert.Equal(t, 3, newCol)
	assert.Greater(t, ob.count(protocol.TypeShow), 0)
}

func TestRotateChangesDirectionAndRefreshesView(t *testing.T) {
	tbl, _ := newTable(t)
	ob := &fakeOutbox{}
	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)
	p.UpdateView()
	ob.reset()

	_, _, before := p.Location()
	p.Rotate(1)
	_, _, after := p.Location()
	assert.Equal(t, before.TurnLeft(), after)
	assert.Equal(t, 1, ob.count(protocol.TypeClear))
}

func TestFireLaserHitsAvatarAndIncrementsScore(t *testing.T) {
	tbl, m := newTable(t)
	shooterOB := &fakeOutbox{}
	victimOB := &fakeOutbox{}

	shooter, err := tbl.Login(shooterOB, 'A', "alice")
	require.NoError(t, err)
	victim, err := tbl.Login(victimOB, 'B', "bob")
	require.NoError(t, err)

	sr, sc, _ := shooter.Location()
	m.Remove('A', sr, sc)
	vr, vc, _ := victim.Location()
	m.Remove('B', vr, vc)

	require.NoError(t, m.SetPlayer('A', 1, 1))
	require.NoError(t, m.SetPlayer('B', 1, 2))
	shooter.mu.Lock()
	shooter.row, shooter.col, shooter.dir = 1, 1, maze.East
	shooter.mu.Unlock()
	victim.mu.Lock()
	victim.row, victim.col = 1, 2
	victim.mu.Unlock()

	shooter.FireLaser()

	assert.Equal(t, 1, shooter.Score())
	assert.True(t, victim.laserHit.Load())
}

func TestFireLaserMissWallDoesNothing(t *testing.T) {
	tbl, m := newTable(t)
	ob := &fakeOutbox{}
	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)

	row, col, _ := p.Location()
	m.Remove('A', row, col)
	require.NoError(t, m.SetPlayer('A', 1, 1))
	p.mu.Lock()
	p.row, p.col, p.dir = 1, 1, maze.North
	p.mu.Unlock()

	p.FireLaser()
	assert.Equal(t, 0, p.Score())
}

func TestCheckForHitRespawnsPlayer(t *testing.T) {
	tbl, _ := newTable(t)
	ob := &fakeOutbox{}
	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)

	p.mu.Lock()
	p.score = 3
	p.mu.Unlock()
	p.laserHit.Store(true)

	p.CheckForHit()

	assert.Equal(t, 0, p.Score())
	assert.Equal(t, 1, ob.count(protocol.TypeAlert))
}

func TestCheckForHitNoopWhenFlagNotSet(t *testing.T) {
	tbl, _ := newTable(t)
	ob := &fakeOutbox{}
	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)

	p.CheckForHit()
	assert.Equal(t, 0, ob.count(protocol.TypeAlert))
}

func TestSendChatBroadcastsToAllIncludingSender(t *testing.T) {
	tbl, _ := newTable(t)
	aliceOB := &fakeOutbox{}
	bobOB := &fakeOutbox{}
	alice, err := tbl.Login(aliceOB, 'A', "alice")
	require.NoError(t, err)
	_, err = tbl.Login(bobOB, 'B', "bob")
	require.NoError(t, err)

	alice.SendChat("hi")

	assert.Equal(t, 1, aliceOB.count(protocol.TypeChat))
	assert.Equal(t, 1, bobOB.count(protocol.TypeChat))
}

func TestSendChatTruncatesOverlongMessages(t *testing.T) {
	tbl, _ := newTable(t)
	ob := &fakeOutbox{}
	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)

	huge := make([]byte, maxChatLen*2)
	for i := range huge {
		huge[i] = 'x'
	}
	p.SendChat(string(huge))
	assert.Equal(t, 1, ob.count(protocol.TypeChat))
	assert.Len(t, ob.payloads[len(ob.payloads)-1], maxChatLen)
}
