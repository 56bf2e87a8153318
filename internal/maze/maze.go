// Package maze implements the shared mutable maze grid: a fixed
// rectangular array of Object cells with placement, removal, movement,
// line-of-sight, and first-person view primitives. Every operation
// takes the grid's single mutex for its duration; no nested
// maze-to-player locking is ever performed from within this package.
//
// Grounded on the teacher's single-lock grid (internal/world/grid.go)
// and its stepping line-of-sight iteration idiom
// (internal/game/geo/los.go), simplified to four cardinal directions.
package maze

import (
	"errors"
	"math/rand"
	"sync"
)

// ErrOutOfBounds is returned when a coordinate falls outside the grid.
var ErrOutOfBounds = errors.New("maze: coordinates out of bounds")

// ErrOccupied is returned when a placement or move target cell is not Empty.
var ErrOccupied = errors.New("maze: destination cell is occupied")

// ErrNotAvatar is returned when a move's source cell does not hold an avatar.
var ErrNotAvatar = errors.New("maze: source cell does not hold an avatar")

// ErrNoSpace is returned by SetPlayerRandom when no free cell could be
// found within its attempt budget.
var ErrNoSpace = errors.New("maze: no free cell found for random placement")

// maxRandomAttempts bounds SetPlayerRandom's search, per spec.
const maxRandomAttempts = 1000

// Maze is the shared R x C grid of Object cells. Dimensions are fixed
// at New and immutable thereafter.
type Maze struct {
	mu   sync.Mutex
	rows [][]Object
	r, c int
	rng  *rand.Rand
}

// New establishes a maze from a sequence of equal-length text rows.
// Each byte of each row becomes one Object cell. Rows must be
// non-empty and of identical length.
func New(rows []string) (*Maze, error) {
	if len(rows) == 0 {
		return nil, errors.New("maze: at least one row is required")
	}
	width := len(rows[0])
	if width == 0 {
		return nil, errors.New("maze: rows must not be empty")
	}
	grid := make([][]Object, len(rows))
	for i, row := range rows {
		if len(row) != width {
			return nil, errors.New("maze: all rows must have identical length")
		}
		cells := make([]Object, width)
		for j := 0; j < width; j++ {
			cells[j] = Object(row[j])
		}
		grid[i] = cells
	}

	return &Maze{
		rows: grid,
		r:    len(rows),
		c:    width,
		// #nosec G404 -- placement randomness, not security-sensitive.
		rng: rand.New(rand.NewSource(rand.Int63())),
	}, nil
}

// Dimensions returns the grid's row and column counts.
func (m *Maze) Dimensions() (rows, cols int) {
	// r, c are immutable after New; no lock needed.
	return m.r, m.c
}

func (m *Maze) inBounds(r, c int) bool {
	return r >= 0 && r < m.r && c >= 0 && c < m.c
}

// at reads a cell. Caller must hold m.mu.
func (m *Maze) at(r, c int) Object {
	return m.rows[r][c]
}

// SetPlayer writes avatar a into cell (r, c). It succeeds only if the
// coordinate is in bounds and currently Empty.
func (m *Maze) SetPlayer(a Object, r, c int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setPlayerLocked(a, r, c)
}

func (m *Maze) setPlayerLocked(a Object, r, c int) error {
	if !m.inBounds(r, c) {
		return ErrOutOfBounds
	}
	if m.at(r, c) != Empty {
		return ErrOccupied
	}
	m.rows[r][c] = a
	return nil
}

// SetPlayerRandom makes up to 1000 uniformly random placement attempts,
// stopping at the first success. Returns ErrNoSpace if none succeeded.
func (m *Maze) SetPlayerRandom(a Object) (row, col int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for attempt := 0; attempt < maxRandomAttempts; attempt++ {
		r := m.rng.Intn(m.r)
		c := m.rng.Intn(m.c)
		if setErr := m.setPlayerLocked(a, r, c); setErr == nil {
			return r, c, nil
		}
	}
	return 0, 0, ErrNoSpace
}

// Remove writes Empty into (r, c) iff that cell currently holds a.
// Idempotent: removing an avatar that is no longer there is a no-op.
func (m *Maze) Remove(a Object, r, c int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inBounds(r, c) {
		return
	}
	if m.at(r, c) == a {
		m.rows[r][c] = Empty
	}
}

// Move steps the avatar at (r, c) one cell in direction d. It succeeds
// only if the source cell holds an avatar and the destination is in
// bounds and Empty; on success the avatar moves and the source cell
// becomes Empty. Returns the new coordinates on success.
func (m *Maze) Move(r, c int, d Direction) (newRow, newCol int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.inBounds(r, c) {
		return 0, 0, ErrOutOfBounds
	}
	src := m.at(r, c)
	if !src.IsAvatar() {
		return 0, 0, ErrNotAvatar
	}

	dRow, dCol := Forward(d)
	nr, nc := r+dRow, c+dCol
	if !m.inBounds(nr, nc) {
		return 0, 0, ErrOutOfBounds
	}
	if m.at(nr, nc) != Empty {
		return 0, 0, ErrOccupied
	}

	m.rows[nr][nc] = src
	m.rows[r][c] = Empty
	return nr, nc, nil
}

// FindTarget steps cell by cell from (r, c) in direction d, halting at
// the first non-Empty cell or the grid edge. It returns that cell if
// it is an avatar, Empty otherwise. It never mutates the grid.
func (m *Maze) FindTarget(r, c int, d Direction) Object {
	m.mu.Lock()
	defer m.mu.Unlock()

	dRow, dCol := Forward(d)
	cr, cc := r, c
	for {
		cr += dRow
		cc += dCol
		if !m.inBounds(cr, cc) {
			return Empty
		}
		cell := m.at(cr, cc)
		if cell != Empty {
			if cell.IsAvatar() {
				return cell
			}
			return Empty
		}
	}
}

// ViewCell is one LEFT_WALL/CORRIDOR/RIGHT_WALL triple at a given
// depth of a first-person view.
type ViewCell struct {
	Left, Corridor, Right Object
}

// wallByte is the synthetic byte reported for a wall-position cell
// that falls outside the grid (e.g. the left wall of a corridor step
// flush against the grid edge).
const wallByte Object = '*'

// GetView computes up to depth ViewCell rows extending from (r, c) in
// direction gaze. Row i's corridor is the cell at (r,c)+i*forward;
// its side walls are the cells one unit perpendicular to that corridor
// cell (or the synthetic wall byte if out of bounds). Extraction stops
// at the first out-of-bounds corridor step; it returns the number of
// rows actually written into view.
func (m *Maze) GetView(view []ViewCell, r, c int, gaze Direction, depth int) (actualDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dRow, dCol := Forward(gaze)
	lRow, lCol := LeftOf(gaze)

	for i := 0; i < depth && i < len(view); i++ {
		cr, cc := r+i*dRow, c+i*dCol
		if !m.inBounds(cr, cc) {
			return i
		}

		view[i].Corridor = m.at(cr, cc)

		lr, lc := cr+lRow, cc+lCol
		if m.inBounds(lr, lc) {
			view[i].Left = m.at(lr, lc)
		} else {
			view[i].Left = wallByte
		}

		rr, rc := cr-lRow, cc-lCol
		if m.inBounds(rr, rc) {
			view[i].Right = m.at(rr, rc)
		} else {
			view[i].Right = wallByte
		}
	}
	return min(depth, len(view))
}
