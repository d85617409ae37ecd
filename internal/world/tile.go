package world

// Terrain types for hex tiles.
type Terrain uint8

const (
	TerrainWater    Terrain = iota // Impassable
	TerrainPlains                  // Open ground
	TerrainForest                  // Timber
	TerrainHills                   // Stone, defensive ground
	TerrainMountain                // Impassable
)

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainWater:
		return "water"
	case TerrainPlains:
		return "plains"
	case TerrainForest:
		return "forest"
	case TerrainHills:
		return "hills"
	case TerrainMountain:
		return "mountain"
	}
	return "unknown"
}

// Passable reports whether units can enter tiles of this terrain.
func (t Terrain) Passable() bool {
	return t != TerrainWater && t != TerrainMountain
}

// Resource enumerates resources that can appear on a tile.
type Resource uint8

const (
	ResourceNone Resource = iota
	ResourceGrain
	ResourceTimber
	ResourceIron
	ResourceStone
)

// Tile is a single hex on the game map. Tiles are owned by a Map and never
// change position or terrain after generation.
type Tile struct {
	ID             uint64   `json:"id"`
	Pos            Offset   `json:"pos"`
	Terrain        Terrain  `json:"terrain"`
	Resource       Resource `json:"resource"`
	ResourceAmount int      `json:"resource_amount"`
}
