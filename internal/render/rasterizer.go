package render

import (
	"image"
	"image/color"

	"github.com/annel0/voxel-map/internal/vec"
)

// TileRaster готовое изображение тайла
type TileRaster struct {
	Coord   vec.Vec2
	BlockPx int
	Image   *image.RGBA
}

// PixelRGB возвращает цвет пикселя без альфа-канала
func (t *TileRaster) PixelRGB(px, py int) int {
	c := t.Image.RGBAAt(px, py)
	return int(c.R)<<16 | int(c.G)<<8 | int(c.B)
}

// Rasterizer превращает 16x16 сэмплов в изображение тайла. Не хранит состояния
// между вызовами и безопасен для параллельного использования.
type Rasterizer struct {
	opts Options
}

// NewRasterizer создаёт растеризатор с параметрами
func NewRasterizer(opts Options) *Rasterizer {
	if opts.BlockPx <= 0 {
		opts.BlockPx = 4
	}
	return &Rasterizer{opts: opts}
}

// Options возвращает параметры растеризатора
func (r *Rasterizer) Options() Options {
	return r.opts
}

// SampleTile сэмплирует 256 колонок тайла; индекс [bx][bz]
func (r *Rasterizer) SampleTile(w WorldView, coord vec.Vec2) *[16][16]SurfaceInfo {
	var samples [16][16]SurfaceInfo
	start := coord.ChunkStart()
	for bx := 0; bx < 16; bx++ {
		for bz := 0; bz < 16; bz++ {
			samples[bx][bz] = Sample(w, start.X+bx, start.Y+bz, r.opts.Sample)
		}
	}
	return &samples
}

// RenderTile сэмплирует и растеризует тайл в выбранном режиме
func (r *Rasterizer) RenderTile(w WorldView, coord vec.Vec2) *TileRaster {
	if r.opts.Mode == ModeVanilla {
		return r.rasterizeVanilla(w, coord)
	}
	return r.Rasterize(coord, r.SampleTile(w, coord), w.SeaLevel())
}

// Rasterize применяет проходы затенения в фиксированном порядке:
// глубина воды, отмывка рельефа, микро-ступени, изолинии, узор кроны.
func (r *Rasterizer) Rasterize(coord vec.Vec2, samples *[16][16]SurfaceInfo, seaLevel int) *TileRaster {
	tile := r.newTile(coord)

	var relief [16][16]int
	for bx := 0; bx < 16; bx++ {
		for bz := 0; bz < 16; bz++ {
			relief[bx][bz] = samples[bx][bz].ReliefHeight()
		}
	}
	h := func(x, z int) int {
		return relief[clampIndex(x)][clampIndex(z)]
	}

	for bx := 0; bx < 16; bx++ {
		for bz := 0; bz < 16; bz++ {
			s := samples[bx][bz]
			here := relief[bx][bz]
			hL, hR := h(bx-1, bz), h(bx+1, bz)
			hN, hS := h(bx, bz-1), h(bx, bz+1)

			normal := SurfaceNormal(float64(hR-hL)*0.5, float64(hS-hN)*0.5)

			rgb := s.BaseColor
			if s.IsWater {
				rgb = ApplyDepthDarkening(rgb, s.WaterDepth(), r.opts.WaterDepthStrength)
			}

			rgb = Mul(rgb, HillshadeFactor(normal, r.opts.HeightExaggeration))

			if r.opts.MicroStepShading {
				rgb = Mul(rgb, MicroStepFactor(here-hN, here-hL))
			}
			if r.opts.ContoursEnabled {
				rgb = ApplyContour(rgb, here, seaLevel, r.opts.ContourStep)
			}
			if s.IsTreeCanopy && r.opts.CanopyPatternStrength > 0 {
				rgb = Mul(rgb, CanopyFactor(s.X, s.Z, r.opts.CanopyPatternStrength))
			}

			r.drawBlock(tile, bx, bz, rgb, s.IsTreeCanopy || s.IsWater)
		}
	}
	return tile
}

// rasterizeVanilla заливает блоки цветом палитры карты без собственного затенения
func (r *Rasterizer) rasterizeVanilla(w WorldView, coord vec.Vec2) *TileRaster {
	tile := r.newTile(coord)
	start := coord.ChunkStart()
	for bx := 0; bx < 16; bx++ {
		for bz := 0; bz < 16; bz++ {
			rgb := r.vanillaColumn(w, start.X+bx, start.Y+bz)
			r.drawBlock(tile, bx, bz, rgb, false)
		}
	}
	return tile
}

func (r *Rasterizer) vanillaColumn(w WorldView, x, z int) (rgb int) {
	defer func() {
		if rec := recover(); rec != nil {
			rgb = FallbackColor
		}
	}()
	return AccurateColor(w, x, z)
}

func (r *Rasterizer) newTile(coord vec.Vec2) *TileRaster {
	size := 16 * r.opts.BlockPx
	return &TileRaster{
		Coord:   coord,
		BlockPx: r.opts.BlockPx,
		Image:   image.NewRGBA(image.Rect(0, 0, size, size)),
	}
}

// drawBlock заливает квадрат блока; subtle добавляет микро-дизеринг
func (r *Rasterizer) drawBlock(tile *TileRaster, bx, bz, rgb int, subtle bool) {
	sx, sz := bx*r.opts.BlockPx, bz*r.opts.BlockPx
	for px := 0; px < r.opts.BlockPx; px++ {
		for pz := 0; pz < r.opts.BlockPx; pz++ {
			c := rgb
			if subtle {
				c = Mul(rgb, SubtleFactor(px, pz))
			}
			tile.Image.SetRGBA(sx+px, sz+pz, color.RGBA{
				R: uint8(c >> 16 & 0xFF),
				G: uint8(c >> 8 & 0xFF),
				B: uint8(c & 0xFF),
				A: 0xFF,
			})
		}
	}
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i > 15 {
		return 15
	}
	return i
}
