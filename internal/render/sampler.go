package render

import (
	"github.com/annel0/voxel-map/internal/logging"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
)

// DefaultBlendRadius радиус смешивания, если ни настройки, ни мир его не задают
const DefaultBlendRadius = 2

// maxVisibleWalk глубина поиска видимого блока под «невидимой» поверхностью
const maxVisibleWalk = 16

// SurfaceInfo результат сэмплирования одной колонки
type SurfaceInfo struct {
	X, Z int

	SurfaceY    int // WORLD_SURFACE - 1
	TerrainY    int // MOTION_BLOCKING_NO_LEAVES - 1
	OceanFloorY int // OCEAN_FLOOR - 1

	IsWater      bool
	IsLeaves     bool
	IsTreeCanopy bool
	IsGrassBlock bool
	IsSnow       bool

	BaseColor int // 0xRRGGBB, уже смешанный по биомам
}

// ReliefHeight высота для освещения и изолиний: дно под водой, рельеф без листвы на суше
func (s SurfaceInfo) ReliefHeight() int {
	if s.IsWater {
		return s.OceanFloorY
	}
	return s.TerrainY
}

// WaterDepth глубина воды над дном (0 для суши)
func (s SurfaceInfo) WaterDepth() int {
	if d := s.SurfaceY - s.OceanFloorY; d > 0 {
		return d
	}
	return 0
}

// SampleOptions параметры сэмплера
type SampleOptions struct {
	// BlendRadius < 0: радиус берётся из мира, иначе DefaultBlendRadius
	BlendRadius int
}

// BlendRadiusFor возвращает фактический радиус смешивания биомов
func (o SampleOptions) BlendRadiusFor(w WorldView) int {
	if o.BlendRadius >= 0 {
		return o.BlendRadius
	}
	if r, ok := w.BiomeBlendRadius(); ok {
		return r
	}
	return DefaultBlendRadius
}

// Sample собирает данные о поверхности колонки (x, z). Мир не изменяется.
// Паника мира при запросе превращается в серую колонку.
func Sample(w WorldView, x, z int, opts SampleOptions) (info SurfaceInfo) {
	defer func() {
		if r := recover(); r != nil {
			logging.GetRenderLogger().Debug("Сэмплирование колонки (%d,%d) не удалось: %v", x, z, r)
			info = fallbackSample(w, x, z)
		}
	}()

	bottom := w.BottomY()
	surfaceY := maxInt(bottom, w.TopY(HeightmapWorldSurface, x, z)-1)
	terrainY := maxInt(bottom, w.TopY(HeightmapMotionBlockingNoLeaves, x, z)-1)
	oceanFloorY := maxInt(bottom, w.TopY(HeightmapOceanFloor, x, z)-1)

	surfacePos := vec.Vec3{X: x, Y: surfaceY, Z: z}
	surface := w.BlockAt(surfacePos)
	tags := block.TagsOf(surface)

	info = SurfaceInfo{
		X:            x,
		Z:            z,
		SurfaceY:     surfaceY,
		TerrainY:     terrainY,
		OceanFloorY:  oceanFloorY,
		IsWater:      tags.Has(block.TagWater),
		IsLeaves:     tags.Has(block.TagFoliage),
		IsGrassBlock: surface == block.GrassBlockID,
		IsSnow:       surface == block.SnowLayerBlockID || surface == block.SnowBlockBlockID,
	}
	info.IsTreeCanopy = info.IsLeaves && surfaceY-terrainY >= 2

	// Под прозрачной поверхностью ищем первый видимый блок
	visible, visiblePos := surface, surfacePos
	if unrenderable(surface) {
		minY := maxInt(bottom, surfaceY-maxVisibleWalk)
		for y := surfaceY - 1; y >= minY; y-- {
			p := vec.Vec3{X: x, Y: y, Z: z}
			if id := w.BlockAt(p); !unrenderable(id) {
				visible, visiblePos = id, p
				break
			}
		}
	}

	radius := opts.BlendRadiusFor(w)
	switch {
	case info.IsWater:
		info.BaseColor = AverageColor(x, z, radius, w.WaterColor)
	case info.IsLeaves:
		info.BaseColor = AverageColor(x, z, radius, w.FoliageColor)
	case info.IsGrassBlock:
		info.BaseColor = AverageColor(x, z, radius, w.GrassColor)
	default:
		info.BaseColor = materialColor(w, visible, visiblePos)
	}

	switch {
	case info.IsLeaves:
		info.BaseColor = AdjustSV(info.BaseColor, 1.10, 0.97)
	case info.IsGrassBlock:
		info.BaseColor = AdjustSV(info.BaseColor, 1.03, 1.02)
	}
	return info
}

// materialColor цвет от провайдера оттенка, иначе цвет карты, иначе серый
func materialColor(w WorldView, id block.BlockID, pos vec.Vec3) int {
	behavior, ok := block.Get(id)
	if !ok {
		return FallbackColor
	}
	if tinted, ok := behavior.(block.Tinted); ok {
		if rgb, ok := tinted.Tint(w, pos); ok && rgb != -1 && rgb != block.NoTint {
			return rgb
		}
	}
	if mc := behavior.MapColor(); mc != block.ColorClear {
		return mc.Render(2)
	}
	return FallbackColor
}

// unrenderable воздух и вода не дают собственного цвета поверхности
func unrenderable(id block.BlockID) bool {
	return block.IsAir(id) || block.TagsOf(id).Has(block.TagWater)
}

func fallbackSample(w WorldView, x, z int) SurfaceInfo {
	bottom := 0
	func() {
		defer func() { _ = recover() }()
		bottom = w.BottomY()
	}()
	return SurfaceInfo{
		X:           x,
		Z:           z,
		SurfaceY:    bottom,
		TerrainY:    bottom,
		OceanFloorY: bottom,
		BaseColor:   FallbackColor,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
