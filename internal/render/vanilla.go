package render

import (
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
)

// Множители ручного затенения по корзинам яркости палитры
var vanillaShadeMods = [4]float64{0.35, 0.70, 1.00, 1.40}

// VanillaBrightness корзина яркости (0..3) по наклону к четырём соседям
func VanillaBrightness(w WorldView, x, z int) int {
	here := w.TopY(HeightmapWorldSurface, x, z)
	north := w.TopY(HeightmapWorldSurface, x, z-1)
	south := w.TopY(HeightmapWorldSurface, x, z+1)
	west := w.TopY(HeightmapWorldSurface, x-1, z)
	east := w.TopY(HeightmapWorldSurface, x+1, z)

	slope := (north - here) + (south - here) + (west - here) + (east - here)
	switch {
	case slope > 1:
		return 1
	case slope < -1:
		return 3
	default:
		return 2
	}
}

// VanillaColor цвет палитры карты для верхнего блока колонки; 0: нет цвета
func VanillaColor(w WorldView, x, z int) int {
	top := w.TopY(HeightmapWorldSurface, x, z)
	if top <= w.BottomY() {
		return 0
	}

	id := w.BlockAt(vec.Vec3{X: x, Y: top - 1, Z: z})
	behavior, ok := block.Get(id)
	if block.IsAir(id) || !ok || behavior.MapColor() == block.ColorClear {
		return 0
	}
	return behavior.MapColor().Render(VanillaBrightness(w, x, z))
}

// AccurateColor сначала пробует оттенок блока (трава, листва, вода биома)
// с ручным затенением, иначе VanillaColor.
func AccurateColor(w WorldView, x, z int) int {
	top := w.TopY(HeightmapWorldSurface, x, z)
	if top <= w.BottomY() {
		return 0
	}

	pos := vec.Vec3{X: x, Y: top - 1, Z: z}
	if behavior, ok := block.Get(w.BlockAt(pos)); ok {
		if tinted, ok := behavior.(block.Tinted); ok {
			if rgb, ok := tinted.Tint(w, pos); ok && rgb != -1 && rgb != block.NoTint {
				return Mul(rgb, vanillaShadeMods[VanillaBrightness(w, x, z)])
			}
		}
	}
	return VanillaColor(w, x, z)
}
