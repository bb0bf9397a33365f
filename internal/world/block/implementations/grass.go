package implementations

import (
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
)

// GrassBehavior реализует блок травы, окрашиваемый цветом травы биома
type GrassBehavior struct{}

// ID возвращает идентификатор блока
func (b *GrassBehavior) ID() block.BlockID {
	return block.GrassBlockID
}

// Name возвращает имя блока
func (b *GrassBehavior) Name() string {
	return "Grass"
}

// Tags трава твёрдая и помечена как трава
func (b *GrassBehavior) Tags() block.Tag {
	return block.TagMotionBlocking | block.TagGrass
}

// MapColor возвращает цвет травы палитры
func (b *GrassBehavior) MapColor() block.MapColor {
	return block.ColorGrass
}

// Tint окрашивает траву цветом биома
func (b *GrassBehavior) Tint(src block.TintSource, pos vec.Vec3) (int, bool) {
	return src.GrassColor(pos.X, pos.Z), true
}

// TallGrassBehavior реализует высокую траву: тонкий покров без коллизии
type TallGrassBehavior struct{}

// ID возвращает идентификатор блока
func (b *TallGrassBehavior) ID() block.BlockID {
	return block.TallGrassBlockID
}

// Name возвращает имя блока
func (b *TallGrassBehavior) Name() string {
	return "Tall Grass"
}

// Tags высокая трава не блокирует движение
func (b *TallGrassBehavior) Tags() block.Tag {
	return 0
}

// MapColor возвращает цвет растений палитры
func (b *TallGrassBehavior) MapColor() block.MapColor {
	return block.ColorPlant
}

// Tint окрашивает высокую траву цветом биома
func (b *TallGrassBehavior) Tint(src block.TintSource, pos vec.Vec3) (int, bool) {
	return src.GrassColor(pos.X, pos.Z), true
}

// PlantBehavior описывает нетонируемые растения (цветы, кувшинки)
type PlantBehavior struct {
	id    block.BlockID
	name  string
	color block.MapColor
}

// ID возвращает идентификатор блока
func (b *PlantBehavior) ID() block.BlockID {
	return b.id
}

// Name возвращает имя блока
func (b *PlantBehavior) Name() string {
	return b.name
}

// Tags растения не блокируют движение
func (b *PlantBehavior) Tags() block.Tag {
	return 0
}

// MapColor возвращает цвет блока на карте
func (b *PlantBehavior) MapColor() block.MapColor {
	return b.color
}
