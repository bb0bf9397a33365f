package world

import (
	"testing"

	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
	"github.com/stretchr/testify/assert"
)

func TestGenerator_Deterministic(t *testing.T) {
	a := NewWorldGenerator(99).GenerateChunk(vec.Vec2{X: 3, Y: -2})
	b := NewWorldGenerator(99).GenerateChunk(vec.Vec2{X: 3, Y: -2})

	assert.Equal(t, a.blocks, b.blocks)
	assert.Equal(t, a.heights, b.heights)
	assert.False(t, a.HasChanges(), "генерация не считается правкой")
}

func TestGenerator_ColumnInvariants(t *testing.T) {
	gen := NewWorldGenerator(12345)

	for _, coords := range []vec.Vec2{{X: 0, Y: 0}, {X: -7, Y: 4}, {X: 20, Y: 20}} {
		chunk := gen.GenerateChunk(coords)
		for z := 0; z < ChunkSize; z++ {
			for x := 0; x < ChunkSize; x++ {
				surface := chunk.TopY(render.HeightmapWorldSurface, x, z)
				terrain := chunk.TopY(render.HeightmapMotionBlockingNoLeaves, x, z)
				floor := chunk.TopY(render.HeightmapOceanFloor, x, z)

				assert.LessOrEqual(t, floor, terrain)
				assert.LessOrEqual(t, terrain, surface)
				assert.Greater(t, floor, MinY, "колонка не должна быть пустой")

				// Бедрок мира всегда камень
				assert.Equal(t, block.StoneBlockID, chunk.GetBlock(vec.Vec3{X: x, Y: MinY, Z: z}))
			}
		}
	}
}

func TestGenerator_WaterUpToSeaLevel(t *testing.T) {
	gen := NewWorldGenerator(12345)

	// Ищем колонку ниже уровня моря
	for x := -400; x < 400; x += 7 {
		h := gen.HeightAt(x, 0)
		if h >= SeaLevel-1 {
			continue
		}
		chunk := gen.GenerateChunk(vec.Vec2{X: x, Y: 0}.ToChunkCoords())
		local := vec.Vec2{X: x, Y: 0}.LocalInChunk()

		top := chunk.GetBlock(vec.Vec3{X: local.X, Y: SeaLevel, Z: local.Y})
		assert.Contains(t, []block.BlockID{block.WaterBlockID, block.IceBlockID}, top)
		assert.Equal(t, h+1, chunk.TopY(render.HeightmapOceanFloor, local.X, local.Y))
		return
	}
	t.Skip("в выборке нет колонок ниже уровня моря")
}

func TestBiomeInfo(t *testing.T) {
	assert.Equal(t, "forest", BiomeForest.String())
	assert.Equal(t, 0x617B64, BiomeSwamp.Info().WaterColor)
	assert.Equal(t, BiomePlains.Info(), BiomeType(200).Info())
}
