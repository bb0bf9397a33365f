package viewer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/annel0/voxel-map/internal/mapdata"
	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/vec"
)

// Background цвет областей без тайла
var Background = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF}

// TileSource источник записей кеша для отрисовки
type TileSource interface {
	GetChunkData(coord vec.Vec2) (*mapdata.ChunkData, bool)
	World() render.WorldView
}

// ComposeArea собирает тайлы прямоугольника [lo, hi] включительно в одно
// изображение с разрешением blockPx пикселей на блок. Отсутствующие тайлы
// заливаются фоном; устаревшие перестраиваются.
func ComposeArea(src TileSource, lo, hi vec.Vec2, blockPx int) *image.RGBA {
	if hi.X < lo.X {
		lo.X, hi.X = hi.X, lo.X
	}
	if hi.Y < lo.Y {
		lo.Y, hi.Y = hi.Y, lo.Y
	}
	tilePx := 16 * blockPx
	canvas := image.NewRGBA(image.Rect(0, 0, (hi.X-lo.X+1)*tilePx, (hi.Y-lo.Y+1)*tilePx))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	origin := image.Point{X: lo.ChunkStart().X * blockPx, Y: lo.ChunkStart().Y * blockPx}
	drawTiles(src, canvas, origin, lo, hi, blockPx)
	return canvas
}

// drawTiles рисует тайлы диапазона на canvas; origin: пиксельная мировая
// координата левого верхнего угла canvas.
func drawTiles(src TileSource, canvas *image.RGBA, origin image.Point, lo, hi vec.Vec2, blockPx int) int {
	w := src.World()
	drawn := 0
	for tz := lo.Y; tz <= hi.Y; tz++ {
		for tx := lo.X; tx <= hi.X; tx++ {
			coord := vec.Vec2{X: tx, Y: tz}
			entry, ok := src.GetChunkData(coord)
			if !ok {
				continue
			}
			entry.EnsureBuilt(w)
			raster, ok := entry.CurrentRaster()
			if !ok || raster.BlockPx != blockPx {
				continue
			}
			start := coord.ChunkStart()
			at := image.Point{X: start.X*blockPx - origin.X, Y: start.Y*blockPx - origin.Y}
			r := raster.Image.Bounds().Add(at)
			draw.Draw(canvas, r, raster.Image, raster.Image.Bounds().Min, draw.Src)
			drawn++
		}
	}
	return drawn
}
