package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Dimensions(t *testing.T) {
	cfg := SmallTestConfig()
	m := Generate(cfg)

	require.Equal(t, cfg.Width*cfg.Height, m.TileCount())
	for _, tile := range m.Tiles {
		assert.True(t, m.InBounds(tile.Pos))
		assert.Same(t, tile, m.At(tile.Pos))
	}
}

func TestGenerate_DeterministicPerSeed(t *testing.T) {
	cfg := SmallTestConfig()
	a := Generate(cfg)
	b := Generate(cfg)

	require.Equal(t, a.TileCount(), b.TileCount())
	for i := range a.Tiles {
		assert.Equal(t, *a.Tiles[i], *b.Tiles[i])
	}
}

func TestGenerate_HasPassableGround(t *testing.T) {
	m := Generate(SmallTestConfig())

	counts := TerrainCounts(m)
	passable := 0
	for terrain, n := range counts {
		if terrain.Passable() {
			passable += n
		}
	}
	assert.Greater(t, passable, 0, "generated map has no passable tiles")
}
