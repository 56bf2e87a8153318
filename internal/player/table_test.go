package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FardinIqbal/concurrent-network-game-server/internal/maze"
	"github.com/FardinIqbal/concurrent-network-game-server/internal/protocol"
)

func TestTableLoginAndGetRoundTrip(t *testing.T) {
	tbl, _ := newTable(t)
	ob := &fakeOutbox{}

	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Count())

	got := tbl.Get('A')
	require.NotNil(t, got)
	assert.Same(t, p, got)
	assert.Equal(t, 2, p.RefCount()) // login's ref + Get's ref
	got.unref()
}

func TestTableGetUnknownAvatarReturnsNil(t *testing.T) {
	tbl, _ := newTable(t)
	assert.Nil(t, tbl.Get('Z'))
}

func TestTableLogoutRemovesFromMazeAndTable(t *testing.T) {
	tbl, m := newTable(t)
	ob := &fakeOutbox{}
	p, err := tbl.Login(ob, 'A', "alice")
	require.NoError(t, err)

	row, col, _ := p.Location()
	tbl.Logout(p)

	assert.Equal(t, 0, tbl.Count())
	assert.Nil(t, tbl.Get('A'))

	// The maze cell should be free again: placing a new avatar there
	// directly must succeed.
	assert.NoError(t, m.SetPlayer('Z', row, col))
}

func TestTableLogoutBroadcastsRemovalScore(t *testing.T) {
	tbl, _ := newTable(t)
	aliceOB := &fakeOutbox{}
	bobOB := &fakeOutbox{}
	alice, err := tbl.Login(aliceOB, 'A', "alice")
	require.NoError(t, err)
	_, err = tbl.Login(bobOB, 'B', "bob")
	require.NoError(t, err)
	bobOB.reset()

	tbl.Logout(alice)

	assert.Equal(t, 1, bobOB.count(protocol.TypeScore))
}

func TestTableForEachVisitsAllLivePlayers(t *testing.T) {
	tbl, _ := newTable(t)
	_, err := tbl.Login(&fakeOutbox{}, 'A', "alice")
	require.NoError(t, err)
	_, err = tbl.Login(&fakeOutbox{}, 'B', "bob")
	require.NoError(t, err)

	seen := make(map[maze.Object]bool)
	tbl.ForEach(func(p *Player) {
		seen[p.Avatar()] = true
	})
	assert.Len(t, seen, 2)
	assert.True(t, seen['A'])
	assert.True(t, seen['B'])
}

func TestTableUpdateAllViewsRefreshesEveryPlayer(t *testing.T) {
	tbl, _ := newTable(t)
	aliceOB := &fakeOutbox{}
	bobOB := &fakeOutbox{}
	_, err := tbl.Login(aliceOB, 'A', "alice")
	require.NoError(t, err)
	_, err = tbl.Login(bobOB, 'B', "bob")
	require.NoError(t, err)

	tbl.UpdateAllViews()

	assert.Equal(t, 1, aliceOB.count(protocol.TypeClear))
	assert.Equal(t, 1, bobOB.count(protocol.TypeClear))
}

func TestTableLoginFailsWhenMazeIsFull(t *testing.T) {
	m, err := maze.New([]string{"###", "# #", "###"})
	require.NoError(t, err)
	tbl := NewTable(m, Config{ViewDepth: 8, Purgatory: 0})

	_, err = tbl.Login(&fakeOutbox{}, 'A', "alice")
	require.NoError(t, err)

	_, err = tbl.Login(&fakeOutbox{}, 'B', "bob")
	assert.Error(t, err)
	assert.Equal(t, 1, tbl.Count())
}
