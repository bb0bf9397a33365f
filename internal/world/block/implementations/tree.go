package implementations

import (
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
)

// LeavesBehavior реализует листву. Листва дуба берёт цвет биома,
// у берёзы и ели цвет фиксированный.
type LeavesBehavior struct {
	id         block.BlockID
	name       string
	fixedColor int // 0: цвет листвы биома
}

// ID возвращает идентификатор блока
func (b *LeavesBehavior) ID() block.BlockID {
	return b.id
}

// Name возвращает имя блока
func (b *LeavesBehavior) Name() string {
	return b.name
}

// Tags листва твёрдая для движения, но исключается картой высот «без листвы»
func (b *LeavesBehavior) Tags() block.Tag {
	return block.TagFoliage | block.TagMotionBlocking
}

// MapColor возвращает цвет растений палитры
func (b *LeavesBehavior) MapColor() block.MapColor {
	return block.ColorPlant
}

// Tint окрашивает листву
func (b *LeavesBehavior) Tint(src block.TintSource, pos vec.Vec3) (int, bool) {
	if b.fixedColor != 0 {
		return b.fixedColor, true
	}
	return src.FoliageColor(pos.X, pos.Z), true
}
