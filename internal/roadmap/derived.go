package roadmap

import (
	"fmt"

	"github.com/lox/baccarat/baccarat"
)

// Color is a derived-road mark
type Color uint8

const (
	Red Color = iota + 1
	Blue
)

// String returns "red" or "blue"
func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Blue:
		return "blue"
	default:
		return "?"
	}
}

// MarshalText implements encoding.TextMarshaler
func (c Color) MarshalText() ([]byte, error) {
	if c != Red && c != Blue {
		return nil, fmt.Errorf("invalid color %d", c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Color) UnmarshalText(text []byte) error {
	switch string(text) {
	case "red":
		*c = Red
	case "blue":
		*c = Blue
	default:
		return fmt.Errorf("invalid color %q", text)
	}
	return nil
}

// Derive computes one derived road with the given column gap. Each Big Road
// cell, in placement order, contributes one color once its column is at
// least gap+1.
func Derive(road *BigRoad, gap int) []Color {
	var colors []Color
	for _, c := range road.cells {
		if c.Col < gap+1 {
			continue
		}
		colors = append(colors, colorAt(road, c.Position, gap))
	}
	return colors
}

// colorAt applies the derived-road rule for one newly placed cell.
// A new column compares the depths of the previous column and the column
// gap further back; a continuing column checks the cell gap columns left.
func colorAt(road *BigRoad, p Position, gap int) Color {
	if p.Row == 0 {
		if road.ColumnDepth(p.Col-1) == road.ColumnDepth(p.Col-1-gap) {
			return Red
		}
		return Blue
	}

	if road.Occupied(Position{Col: p.Col - gap, Row: p.Row}) {
		return Red
	}
	return Blue
}

// Roads bundles the Big Road with its three derived roads
type Roads struct {
	BigRoad   *BigRoad `json:"-"`
	Cells     []Cell   `json:"bigRoad"`
	BigEyeBoy []Color  `json:"bigEyeBoy"`
	SmallRoad []Color  `json:"smallRoad"`
	Cockroach []Color  `json:"cockroachPin"`
}

// Map builds all four roads from outcome history
func Map(history []baccarat.Outcome) Roads {
	road := NewBigRoad(history)
	return Roads{
		BigRoad:   road,
		Cells:     road.Cells(),
		BigEyeBoy: Derive(road, BigEyeBoyGap),
		SmallRoad: Derive(road, SmallRoadGap),
		Cockroach: Derive(road, CockroachGap),
	}
}
