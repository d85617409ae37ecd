// Map generation using layered simplex noise. Generates an elevation field,
// derives terrain per tile, then scatters resources. Deterministic per seed.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Width       int
	Height      int
	Seed        int64
	SeaLevel    float64 // Elevation threshold for water (0.0-1.0)
	MountainLvl float64 // Elevation threshold for mountains (0.0-1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:       24,
		Height:      18,
		SeaLevel:    0.22,
		MountainLvl: 0.78,
	}
}

// SmallTestConfig returns a tiny map for rapid iteration and tests.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:       8,
		Height:      8,
		Seed:        42,
		SeaLevel:    0.15,
		MountainLvl: 0.90,
	}
}

// Generate creates a complete map with terrain and resources.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	forestNoise := opensimplex.NewNormalized(seed + 1)
	rng := rand.New(rand.NewSource(seed + 2))

	m := NewMap(cfg.Width, cfg.Height)

	var id uint64
	for row := 0; row < cfg.Height; row++ {
		for col := 0; col < cfg.Width; col++ {
			pos := Offset{Col: col, Row: row}

			// Odd-r offset to cartesian for noise sampling: odd rows are
			// shifted right by half a hex.
			x := float64(col) + 0.5*float64(row&1)
			y := float64(row) * math.Sqrt(3.0) / 2.0

			elev := octaveNoise(elevNoise, x, y, 4, 0.15, 0.5)
			forest := octaveNoise(forestNoise, x, y, 3, 0.20, 0.5)

			terrain := deriveTerrain(elev, forest, cfg)

			id++
			tile := &Tile{
				ID:      id,
				Pos:     pos,
				Terrain: terrain,
			}
			placeResource(tile, rng)
			m.Add(tile)
		}
	}

	return m
}

func deriveTerrain(elev, forest float64, cfg GenConfig) Terrain {
	switch {
	case elev < cfg.SeaLevel:
		return TerrainWater
	case elev > cfg.MountainLvl:
		return TerrainMountain
	case elev > cfg.MountainLvl-0.12:
		return TerrainHills
	case forest > 0.62:
		return TerrainForest
	default:
		return TerrainPlains
	}
}

func placeResource(t *Tile, rng *rand.Rand) {
	// Resource odds depend on terrain; amounts are small integer stockpiles.
	roll := rng.Float64()
	switch t.Terrain {
	case TerrainPlains:
		if roll < 0.20 {
			t.Resource = ResourceGrain
			t.ResourceAmount = 3 + rng.Intn(5)
		}
	case TerrainForest:
		if roll < 0.35 {
			t.Resource = ResourceTimber
			t.ResourceAmount = 2 + rng.Intn(4)
		}
	case TerrainHills:
		if roll < 0.25 {
			if rng.Float64() < 0.5 {
				t.Resource = ResourceIron
			} else {
				t.Resource = ResourceStone
			}
			t.ResourceAmount = 1 + rng.Intn(3)
		}
	}
}

// octaveNoise samples multi-octave simplex noise normalized to [0, 1].
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, freq, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxValue := 0.0
	f := freq

	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*f, y*f) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		f *= 2
	}

	return total / maxValue
}

// TerrainCounts tallies tiles by terrain type.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range m.Tiles {
		counts[t.Terrain]++
	}
	return counts
}
