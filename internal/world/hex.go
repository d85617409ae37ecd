// Package world provides the hex grid, terrain, and spatial data structures.
// Maps are stored in "odd-r" offset coordinates (col, row); distance and
// neighbor math happens in cube coordinates.
package world

// Cube represents a position on the hex grid using cube coordinates.
// Invariant: X + Y + Z == 0.
type Cube struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Offset represents a position in odd-r offset coordinates, the layout used
// for map storage and bounds checking. Odd rows are shoved right by half a hex.
type Offset struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// ToCube converts an odd-r offset coordinate to cube coordinates.
// The conversion is a bijection; see Cube.ToOffset for the inverse.
func (o Offset) ToCube() Cube {
	x := o.Col - (o.Row-(o.Row&1))/2
	z := o.Row
	return Cube{X: x, Y: -x - z, Z: z}
}

// ToOffset converts cube coordinates back to odd-r offset coordinates.
// Exact inverse of Offset.ToCube for all integer inputs.
func (c Cube) ToOffset() Offset {
	return Offset{
		Col: c.X + (c.Z-(c.Z&1))/2,
		Row: c.Z,
	}
}

// CubeDirections defines the six neighbor offsets in cube coordinates.
// The order is fixed; pathfinding relies on it for deterministic tie-breaks.
var CubeDirections = [6]Cube{
	{X: 1, Y: -1, Z: 0},
	{X: 1, Y: 0, Z: -1},
	{X: 0, Y: 1, Z: -1},
	{X: -1, Y: 1, Z: 0},
	{X: -1, Y: 0, Z: 1},
	{X: 0, Y: -1, Z: 1},
}

// Neighbors returns the six adjacent cube coordinates in direction order.
func (c Cube) Neighbors() [6]Cube {
	var result [6]Cube
	for i, d := range CubeDirections {
		result[i] = Cube{X: c.X + d.X, Y: c.Y + d.Y, Z: c.Z + d.Z}
	}
	return result
}

// Distance returns the hex distance between two cube coordinates:
// (|dx| + |dy| + |dz|) / 2.
func Distance(a, b Cube) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	dz := abs(a.Z - b.Z)
	return (dx + dy + dz) / 2
}

// OffsetDistance returns the hex distance between two offset coordinates.
func OffsetDistance(a, b Offset) int {
	return Distance(a.ToCube(), b.ToCube())
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
