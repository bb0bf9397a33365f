package implementations

import "github.com/annel0/voxel-map/internal/world/block"

// AirBehavior реализует пустой блок (воздух)
type AirBehavior struct{}

// ID возвращает идентификатор блока
func (b *AirBehavior) ID() block.BlockID {
	return block.AirBlockID
}

// Name возвращает имя блока
func (b *AirBehavior) Name() string {
	return "Air"
}

// Tags воздух не имеет признаков
func (b *AirBehavior) Tags() block.Tag {
	return 0
}

// MapColor воздух на карте прозрачен
func (b *AirBehavior) MapColor() block.MapColor {
	return block.ColorClear
}
