// Package roadmap derives the Big Road grid and its three derived roads
// (Big Eye Boy, Small Road, Cockroach Pin) from outcome history.
package roadmap

import (
	"github.com/lox/baccarat/baccarat"
)

// Rows is the fixed height of the Big Road grid
const Rows = 6

// Gaps of the derived roads
const (
	BigEyeBoyGap = 1
	SmallRoadGap = 2
	CockroachGap = 3
)

// Position is a (column,row) coordinate in the Big Road
type Position struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Cell is one placed Big Road entry. Ties counts the ties that followed it.
type Cell struct {
	Position
	Outcome baccarat.Outcome `json:"outcome"`
	Ties    int              `json:"ties,omitempty"`
}

// BigRoad is the primary placement grid. Cells are kept in placement order.
type BigRoad struct {
	cells []Cell
	index map[Position]int
}

// NewBigRoad places every outcome of history
func NewBigRoad(history []baccarat.Outcome) *BigRoad {
	r := &BigRoad{index: make(map[Position]int, len(history))}
	for _, o := range history {
		r.Add(o)
	}
	return r
}

// Add places one outcome. A tie annotates the latest cell, or is dropped
// when nothing has been placed yet.
func (r *BigRoad) Add(o baccarat.Outcome) {
	if o == baccarat.Tie {
		if n := len(r.cells); n > 0 {
			r.cells[n-1].Ties++
		}
		return
	}

	if len(r.cells) == 0 {
		r.place(Position{}, o)
		return
	}

	last := r.cells[len(r.cells)-1]
	if o != last.Outcome {
		r.place(Position{Col: last.Col + 1}, o)
		return
	}

	below := Position{Col: last.Col, Row: last.Row + 1}
	if below.Row < Rows && !r.Occupied(below) {
		r.place(below, o)
		return
	}

	// dragon tail: turn right on the same row
	r.place(Position{Col: last.Col + 1, Row: last.Row}, o)
}

func (r *BigRoad) place(p Position, o baccarat.Outcome) {
	r.index[p] = len(r.cells)
	r.cells = append(r.cells, Cell{Position: p, Outcome: o})
}

// Cells returns the placed cells in placement order
func (r *BigRoad) Cells() []Cell {
	out := make([]Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

// Len returns the number of placed cells
func (r *BigRoad) Len() int {
	return len(r.cells)
}

// At returns the cell at p, if any
func (r *BigRoad) At(p Position) (Cell, bool) {
	i, ok := r.index[p]
	if !ok {
		return Cell{}, false
	}
	return r.cells[i], true
}

// Occupied reports whether p holds a cell
func (r *BigRoad) Occupied(p Position) bool {
	_, ok := r.index[p]
	return ok
}

// Columns returns the number of columns in use
func (r *BigRoad) Columns() int {
	cols := 0
	for _, c := range r.cells {
		cols = max(cols, c.Col+1)
	}
	return cols
}

// ColumnDepth counts the contiguous occupied cells of col from row 0
func (r *BigRoad) ColumnDepth(col int) int {
	if col < 0 {
		return 0
	}
	depth := 0
	for row := 0; row < Rows && r.Occupied(Position{Col: col, Row: row}); row++ {
		depth++
	}
	return depth
}

// Grid renders the road as a Rows x Columns matrix; empty cells are zero
func (r *BigRoad) Grid() [][]Cell {
	cols := r.Columns()
	grid := make([][]Cell, Rows)
	for row := range grid {
		grid[row] = make([]Cell, cols)
	}
	for _, c := range r.cells {
		grid[c.Row][c.Col] = c
	}
	return grid
}
