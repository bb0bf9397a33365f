package world

import (
	"testing"

	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkCreateAndGetBlock(t *testing.T) {
	chunk := NewChunk(vec.Vec2{X: 5, Y: 10})

	pos := vec.Vec3{X: 3, Y: 70, Z: 4}
	assert.Equal(t, block.AirBlockID, chunk.GetBlock(pos))

	require.True(t, chunk.SetBlock(pos, block.StoneBlockID))
	assert.Equal(t, block.StoneBlockID, chunk.GetBlock(pos))
	assert.False(t, chunk.SetBlock(pos, block.StoneBlockID), "повторная установка того же блока не является изменением")

	// Вне границ
	assert.False(t, chunk.SetBlock(vec.Vec3{X: 16, Y: 0, Z: 0}, block.StoneBlockID))
	assert.Equal(t, block.AirBlockID, chunk.GetBlock(vec.Vec3{X: 0, Y: MaxY, Z: 0}))
}

func TestChunkHeightmaps(t *testing.T) {
	chunk := NewChunk(vec.Vec2{})

	// Пустая колонка
	for _, kind := range []render.Heightmap{render.HeightmapWorldSurface, render.HeightmapMotionBlockingNoLeaves, render.HeightmapOceanFloor} {
		assert.Equal(t, MinY, chunk.TopY(kind, 2, 2), kind.String())
	}

	// Дно на 50, вода до 63, листва на 70
	chunk.SetBlock(vec.Vec3{X: 2, Y: 50, Z: 2}, block.SandBlockID)
	for y := 51; y <= 63; y++ {
		chunk.SetBlock(vec.Vec3{X: 2, Y: y, Z: 2}, block.WaterBlockID)
	}
	chunk.SetBlock(vec.Vec3{X: 2, Y: 70, Z: 2}, block.OakLeavesBlockID)

	assert.Equal(t, 71, chunk.TopY(render.HeightmapWorldSurface, 2, 2))
	assert.Equal(t, 64, chunk.TopY(render.HeightmapMotionBlockingNoLeaves, 2, 2))
	assert.Equal(t, 51, chunk.TopY(render.HeightmapOceanFloor, 2, 2))

	// Удаление листвы опускает поверхность
	chunk.SetBlock(vec.Vec3{X: 2, Y: 70, Z: 2}, block.AirBlockID)
	assert.Equal(t, 64, chunk.TopY(render.HeightmapWorldSurface, 2, 2))
}

func TestChunkChanges(t *testing.T) {
	chunk := NewChunk(vec.Vec2{X: 1, Y: 2})
	assert.False(t, chunk.HasChanges())

	chunk.SetBlock(vec.Vec3{X: 5, Y: 5, Z: 5}, block.DirtBlockID)
	chunk.SetBlock(vec.Vec3{X: 6, Y: 5, Z: 5}, block.GrassBlockID)
	assert.True(t, chunk.HasChanges())

	changed := chunk.ChangedBlocks()
	assert.Len(t, changed, 2)
	assert.Equal(t, block.GrassBlockID, changed[vec.Vec3{X: 6, Y: 5, Z: 5}])

	chunk.ClearChanges()
	assert.False(t, chunk.HasChanges())
	assert.Empty(t, chunk.ChangedBlocks())
}
