package world

import "fmt"

// Map holds a rectangular odd-r hex grid of fixed width and height.
// The tile list is immutable for the lifetime of the map.
type Map struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Tiles  []*Tile `json:"-"`

	byPos map[Offset]*Tile
}

// NewMap creates an empty map with the given dimensions.
func NewMap(width, height int) *Map {
	return &Map{
		Width:  width,
		Height: height,
		byPos:  make(map[Offset]*Tile, width*height),
	}
}

// Add places a tile on the map.
func (m *Map) Add(t *Tile) {
	m.Tiles = append(m.Tiles, t)
	m.byPos[t.Pos] = t
}

// At returns the tile at the given offset coordinate, or nil if none exists.
func (m *Map) At(pos Offset) *Tile {
	return m.byPos[pos]
}

// InBounds reports whether the coordinate lies within the map rectangle.
func (m *Map) InBounds(pos Offset) bool {
	return pos.Col >= 0 && pos.Col < m.Width && pos.Row >= 0 && pos.Row < m.Height
}

// TileCount returns the total number of tiles on the map.
func (m *Map) TileCount() int {
	return len(m.Tiles)
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%dx%d, tiles=%d)", m.Width, m.Height, m.TileCount())
}
