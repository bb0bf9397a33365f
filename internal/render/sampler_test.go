package render

import (
	"testing"

	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
	"github.com/stretchr/testify/assert"
)

func TestSurfaceInfo_ReliefHeight(t *testing.T) {
	water := SurfaceInfo{SurfaceY: 63, TerrainY: 63, OceanFloorY: 40, IsWater: true}
	assert.Equal(t, 40, water.ReliefHeight(), "для воды: дно, а не поверхность")
	assert.Equal(t, 23, water.WaterDepth())

	land := SurfaceInfo{SurfaceY: 80, TerrainY: 72, OceanFloorY: 72}
	assert.Equal(t, 72, land.ReliefHeight())
	assert.Equal(t, 0, (SurfaceInfo{SurfaceY: 5, OceanFloorY: 9}).WaterDepth())
}

func TestSample_Stone(t *testing.T) {
	w := newFlatWorld(70, block.StoneBlockID)
	s := Sample(w, 1, 2, SampleOptions{BlendRadius: -1})

	assert.Equal(t, 70, s.SurfaceY)
	assert.Equal(t, 70, s.TerrainY)
	assert.Equal(t, 70, s.OceanFloorY)
	assert.False(t, s.IsWater || s.IsLeaves || s.IsGrassBlock || s.IsSnow)
	assert.Equal(t, int(block.ColorStone), s.BaseColor)
}

func TestSample_GrassBlendAndNudge(t *testing.T) {
	w := newFlatWorld(70, block.GrassBlockID)
	w.grass = func(x, z int) int {
		if x < 0 {
			return 0x000000
		}
		return 0x90C060
	}

	s := Sample(w, 0, 0, SampleOptions{BlendRadius: 0})
	assert.True(t, s.IsGrassBlock)
	assert.Equal(t, AdjustSV(0x90C060, 1.03, 1.02), s.BaseColor)

	blended := Sample(w, 0, 0, SampleOptions{BlendRadius: 1})
	assert.Equal(t, AdjustSV(AverageColor(0, 0, 1, w.grass), 1.03, 1.02), blended.BaseColor)
	assert.NotEqual(t, s.BaseColor, blended.BaseColor)
}

func TestSample_WaterColumn(t *testing.T) {
	w := newFlatWorld(63, block.WaterBlockID)
	w.top = func(kind Heightmap, x, z int) int {
		if kind == HeightmapOceanFloor {
			return 51
		}
		return 64
	}

	s := Sample(w, 0, 0, SampleOptions{BlendRadius: 2})
	assert.True(t, s.IsWater)
	assert.Equal(t, 50, s.OceanFloorY)
	assert.Equal(t, 50, s.ReliefHeight())
	assert.Equal(t, 0x3F76E4, s.BaseColor)
}

func TestSample_TreeCanopy(t *testing.T) {
	w := newFlatWorld(75, block.OakLeavesBlockID)
	w.top = func(kind Heightmap, x, z int) int {
		if kind == HeightmapWorldSurface {
			return 76
		}
		return 70 // земля на 69
	}

	s := Sample(w, 0, 0, SampleOptions{BlendRadius: 0})
	assert.True(t, s.IsLeaves)
	assert.True(t, s.IsTreeCanopy)
	assert.Equal(t, AdjustSV(0x77AB2F, 1.10, 0.97), s.BaseColor)

	// Низкая листва (зазор 1): не крона
	w.top = func(kind Heightmap, x, z int) int {
		if kind == HeightmapWorldSurface {
			return 76
		}
		return 75
	}
	assert.False(t, Sample(w, 0, 0, SampleOptions{}).IsTreeCanopy)
}

func TestSample_Snow(t *testing.T) {
	assert.True(t, Sample(newFlatWorld(100, block.SnowLayerBlockID), 0, 0, SampleOptions{}).IsSnow)
	assert.True(t, Sample(newFlatWorld(100, block.SnowBlockBlockID), 0, 0, SampleOptions{}).IsSnow)
}

func TestSample_UnknownBlockIsGray(t *testing.T) {
	w := newFlatWorld(70, block.BlockID(4242))
	assert.Equal(t, FallbackColor, Sample(w, 0, 0, SampleOptions{}).BaseColor)
}

func TestSample_HeightsClampedToBottom(t *testing.T) {
	w := newFlatWorld(70, block.StoneBlockID)
	w.top = func(kind Heightmap, x, z int) int { return -1000 }
	w.blockAt = func(pos vec.Vec3) block.BlockID { return block.AirBlockID }

	s := Sample(w, 0, 0, SampleOptions{})
	assert.Equal(t, -64, s.SurfaceY)
	assert.Equal(t, -64, s.TerrainY)
	assert.Equal(t, -64, s.OceanFloorY)
	assert.Equal(t, FallbackColor, s.BaseColor)
}

func TestSample_WalksDownThroughUnrenderable(t *testing.T) {
	// Поверхность: воздух (рассогласованная карта высот), ниже песок
	w := newFlatWorld(70, block.SandBlockID)
	w.top = func(kind Heightmap, x, z int) int { return 74 }

	s := Sample(w, 0, 0, SampleOptions{})
	assert.Equal(t, 73, s.SurfaceY)
	assert.Equal(t, int(block.ColorSand), s.BaseColor)
}

func TestSample_PanicFallsBackToGray(t *testing.T) {
	w := newFlatWorld(70, block.StoneBlockID)
	w.blockAt = func(pos vec.Vec3) block.BlockID { panic("chunk not loaded") }

	s := Sample(w, 5, 6, SampleOptions{})
	assert.Equal(t, 5, s.X)
	assert.Equal(t, 6, s.Z)
	assert.Equal(t, FallbackColor, s.BaseColor)
	assert.Equal(t, -64, s.SurfaceY)
}

func TestSampleOptions_BlendRadiusFor(t *testing.T) {
	w := newFlatWorld(70, block.StoneBlockID)

	assert.Equal(t, DefaultBlendRadius, SampleOptions{BlendRadius: -1}.BlendRadiusFor(w))

	w.blend, w.blendOK = 5, true
	assert.Equal(t, 5, SampleOptions{BlendRadius: -1}.BlendRadiusFor(w))
	assert.Equal(t, 0, SampleOptions{BlendRadius: 0}.BlendRadiusFor(w))
	assert.Equal(t, 3, SampleOptions{BlendRadius: 3}.BlendRadiusFor(w))
}
