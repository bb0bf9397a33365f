package render

import (
	"testing"

	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatSamples(height, rgb int) *[16][16]SurfaceInfo {
	var s [16][16]SurfaceInfo
	for bx := 0; bx < 16; bx++ {
		for bz := 0; bz < 16; bz++ {
			s[bx][bz] = SurfaceInfo{
				X: bx, Z: bz,
				SurfaceY: height, TerrainY: height, OceanFloorY: height,
				BaseColor: rgb,
			}
		}
	}
	return &s
}

func assertAllPixels(t *testing.T, tile *TileRaster, want int) {
	t.Helper()
	b := tile.Image.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if got := tile.PixelRGB(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %06X, want %06X", x, y, got, want)
			}
		}
	}
}

func TestRasterize_FlatTileOnlyContours(t *testing.T) {
	r := NewRasterizer(DefaultOptions())
	const sea, base = 63, 0x5A8F3C

	for height := sea - 16; height <= sea+24; height++ {
		tile := r.Rasterize(vec.Vec2{X: 1, Y: 2}, flatSamples(height, base), sea)
		require.Equal(t, 64, tile.Image.Bounds().Dx())

		want := base
		switch floorMod(height-sea, 8) {
		case 0:
			want = Mul(base, 0.86)
		case 1:
			want = Mul(base, 0.93)
		}
		assertAllPixels(t, tile, want)
	}
}

func TestRasterize_ContoursDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.ContoursEnabled = false
	tile := NewRasterizer(opts).Rasterize(vec.Vec2{}, flatSamples(71, 0x336699), 63)
	assertAllPixels(t, tile, 0x336699)
}

func TestRasterize_BlockPx(t *testing.T) {
	opts := DefaultOptions()
	opts.BlockPx = 2
	tile := NewRasterizer(opts).Rasterize(vec.Vec2{}, flatSamples(70, 0x112233), 63)
	assert.Equal(t, 32, tile.Image.Bounds().Dx())
	assert.Equal(t, 32, tile.Image.Bounds().Dy())
	assert.Equal(t, 2, tile.BlockPx)
}

func TestRasterize_WaterDitherAndDepth(t *testing.T) {
	r := NewRasterizer(DefaultOptions())
	samples := flatSamples(50, 0x3F76E4)
	for bx := 0; bx < 16; bx++ {
		for bz := 0; bz < 16; bz++ {
			samples[bx][bz].IsWater = true
			samples[bx][bz].SurfaceY = 63
			samples[bx][bz].TerrainY = 63
		}
	}
	// relief = 50, rel = -13 → 3 mod 8: без изолиний
	tile := r.Rasterize(vec.Vec2{}, samples, 63)

	shaded := Mul(0x3F76E4, DepthFactor(13, 1))
	assert.Equal(t, Mul(shaded, SubtleFactor(0, 0)), tile.PixelRGB(0, 0))
	assert.Equal(t, Mul(shaded, SubtleFactor(1, 0)), tile.PixelRGB(1, 0))
	assert.Equal(t, Mul(shaded, SubtleFactor(1, 1)), tile.PixelRGB(1, 1))
	assert.NotEqual(t, tile.PixelRGB(0, 0), tile.PixelRGB(1, 1))
}

func TestRasterize_MicroStepEdge(t *testing.T) {
	opts := DefaultOptions()
	opts.ContoursEnabled = false
	r := NewRasterizer(opts)

	// Восточная половина на блок выше западной
	samples := flatSamples(70, 0x808080)
	for bx := 8; bx < 16; bx++ {
		for bz := 0; bz < 16; bz++ {
			samples[bx][bz].TerrainY = 71
		}
	}
	tile := r.Rasterize(vec.Vec2{}, samples, 63)

	px := opts.BlockPx
	flat := tile.PixelRGB(2*px, 5*px)
	step := tile.PixelRGB(8*px, 5*px) // западный сосед ниже
	assert.Equal(t, 0x808080, flat)
	assert.Greater(t, step&0xFF, flat&0xFF, "ступень вверх подсвечивается")
}

func TestRasterize_CanopyPattern(t *testing.T) {
	opts := DefaultOptions()
	opts.ContoursEnabled = false
	r := NewRasterizer(opts)

	samples := flatSamples(70, 0x4A7A2A)
	samples[3][4].IsTreeCanopy = true
	samples[3][4].X, samples[3][4].Z = 100, 200
	tile := r.Rasterize(vec.Vec2{}, samples, 63)

	want := Mul(Mul(0x4A7A2A, CanopyFactor(100, 200, 1)), SubtleFactor(0, 0))
	assert.Equal(t, want, tile.PixelRGB(3*opts.BlockPx, 4*opts.BlockPx))

	opts.CanopyPatternStrength = 0
	plain := NewRasterizer(opts).Rasterize(vec.Vec2{}, samples, 63)
	assert.Equal(t, Mul(0x4A7A2A, SubtleFactor(0, 0)), plain.PixelRGB(3*opts.BlockPx, 4*opts.BlockPx))
}

func TestRenderTile_FlatWorld(t *testing.T) {
	w := newFlatWorld(66, block.StoneBlockID) // rel 3: без изолиний
	r := NewRasterizer(DefaultOptions())

	tile := r.RenderTile(w, vec.Vec2{X: -2, Y: 5})
	assert.Equal(t, vec.Vec2{X: -2, Y: 5}, tile.Coord)
	assertAllPixels(t, tile, int(block.ColorStone))
}

func TestRenderTile_Vanilla(t *testing.T) {
	w := newFlatWorld(66, block.GrassBlockID)
	opts := DefaultOptions()
	opts.Mode = ModeVanilla

	tile := NewRasterizer(opts).RenderTile(w, vec.Vec2{})
	assertAllPixels(t, tile, 0x91BD59)
}

func TestVanilla(t *testing.T) {
	w := newFlatWorld(70, block.StoneBlockID)
	assert.Equal(t, 2, VanillaBrightness(w, 0, 0))
	assert.Equal(t, block.ColorStone.Render(2), VanillaColor(w, 0, 0))
	assert.Equal(t, block.ColorStone.Render(2), AccurateColor(w, 0, 0))

	// Яма: соседи выше → темнее
	pit := newFlatWorld(70, block.StoneBlockID)
	pit.top = func(kind Heightmap, x, z int) int {
		if x == 0 && z == 0 {
			return 65
		}
		return 71
	}
	assert.Equal(t, 1, VanillaBrightness(pit, 0, 0))

	// Пик: соседи ниже → ярче
	peak := newFlatWorld(70, block.StoneBlockID)
	peak.top = func(kind Heightmap, x, z int) int {
		if x == 0 && z == 0 {
			return 80
		}
		return 71
	}
	assert.Equal(t, 3, VanillaBrightness(peak, 0, 0))

	empty := newFlatWorld(70, block.StoneBlockID)
	empty.top = func(kind Heightmap, x, z int) int { return -64 }
	assert.Equal(t, 0, VanillaColor(empty, 0, 0))
	assert.Equal(t, 0, AccurateColor(empty, 0, 0))
}

func TestOptionsFromConfigDefaults(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 4, opts.BlockPx)
	assert.Equal(t, 64, opts.TileSize())
	assert.Equal(t, 1.25, opts.HeightExaggeration)
	assert.Equal(t, 8, opts.ContourStep)
	assert.Equal(t, -1, opts.Sample.BlendRadius)
	assert.Equal(t, ModeShaded, opts.Mode)
}
