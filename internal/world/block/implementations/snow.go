package implementations

import "github.com/annel0/voxel-map/internal/world/block"

// SnowBehavior реализует снежный покров и полный блок снега
type SnowBehavior struct {
	full bool
}

// ID возвращает идентификатор блока
func (b *SnowBehavior) ID() block.BlockID {
	if b.full {
		return block.SnowBlockBlockID
	}
	return block.SnowLayerBlockID
}

// Name возвращает имя блока
func (b *SnowBehavior) Name() string {
	if b.full {
		return "Snow Block"
	}
	return "Snow"
}

// Tags покров тонкий и не останавливает движение, блок снега: твёрдый
func (b *SnowBehavior) Tags() block.Tag {
	if b.full {
		return block.TagSnow | block.TagMotionBlocking
	}
	return block.TagSnow
}

// MapColor возвращает цвет снега палитры
func (b *SnowBehavior) MapColor() block.MapColor {
	return block.ColorSnow
}
