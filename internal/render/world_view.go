package render

import (
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
)

// Heightmap вид запроса верхней высоты колонки
type Heightmap uint8

const (
	// HeightmapWorldSurface верх любого непустого блока
	HeightmapWorldSurface Heightmap = iota
	// HeightmapMotionBlockingNoLeaves верх твёрдых блоков и жидкостей без листвы
	HeightmapMotionBlockingNoLeaves
	// HeightmapOceanFloor верх твёрдых блоков без учёта жидкостей
	HeightmapOceanFloor
)

// String возвращает имя карты высот
func (h Heightmap) String() string {
	switch h {
	case HeightmapWorldSurface:
		return "WORLD_SURFACE"
	case HeightmapMotionBlockingNoLeaves:
		return "MOTION_BLOCKING_NO_LEAVES"
	case HeightmapOceanFloor:
		return "OCEAN_FLOOR"
	default:
		return "UNKNOWN"
	}
}

// WorldView: всё, что рендеру нужно знать о мире.
// Реализации должны быть безопасны для параллельного чтения.
type WorldView interface {
	block.TintSource

	// TopY возвращает Y первого свободного блока над колонкой (x, z)
	// для указанной карты высот. Пустая колонка даёт BottomY().
	TopY(kind Heightmap, x, z int) int

	// BlockAt возвращает блок в мировой позиции
	BlockAt(pos vec.Vec3) block.BlockID

	BottomY() int
	SeaLevel() int

	// BiomeBlendRadius радиус смешивания биомов, заданный миром (ok=false: не задан)
	BiomeBlendRadius() (int, bool)
}
