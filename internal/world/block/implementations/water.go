package implementations

import (
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
)

// WaterBehavior реализует блок воды
type WaterBehavior struct{}

// ID возвращает идентификатор блока
func (b *WaterBehavior) ID() block.BlockID {
	return block.WaterBlockID
}

// Name возвращает имя блока
func (b *WaterBehavior) Name() string {
	return "Water"
}

// Tags вода: жидкость, не твёрдая
func (b *WaterBehavior) Tags() block.Tag {
	return block.TagWater
}

// MapColor возвращает цвет воды палитры
func (b *WaterBehavior) MapColor() block.MapColor {
	return block.ColorWater
}

// Tint окрашивает воду цветом биома
func (b *WaterBehavior) Tint(src block.TintSource, pos vec.Vec3) (int, bool) {
	return src.WaterColor(pos.X, pos.Z), true
}

// IceBehavior реализует лёд: твёрдый, но отображается своим цветом
type IceBehavior struct{}

// ID возвращает идентификатор блока
func (b *IceBehavior) ID() block.BlockID {
	return block.IceBlockID
}

// Name возвращает имя блока
func (b *IceBehavior) Name() string {
	return "Ice"
}

// Tags лёд твёрдый
func (b *IceBehavior) Tags() block.Tag {
	return block.TagMotionBlocking
}

// MapColor возвращает цвет льда палитры
func (b *IceBehavior) MapColor() block.MapColor {
	return block.ColorIce
}
