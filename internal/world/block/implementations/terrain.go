package implementations

import "github.com/annel0/voxel-map/internal/world/block"

// StaticBehavior описывает твёрдый блок с постоянным цветом карты
// (камень, земля, песок, гравий, глина, бревна).
type StaticBehavior struct {
	id    block.BlockID
	name  string
	color block.MapColor
	tags  block.Tag
}

// NewStaticBehavior создаёт твёрдый блок с цветом карты
func NewStaticBehavior(id block.BlockID, name string, color block.MapColor) *StaticBehavior {
	return &StaticBehavior{id: id, name: name, color: color, tags: block.TagMotionBlocking}
}

// ID возвращает идентификатор блока
func (b *StaticBehavior) ID() block.BlockID {
	return b.id
}

// Name возвращает имя блока
func (b *StaticBehavior) Name() string {
	return b.name
}

// Tags возвращает признаки блока
func (b *StaticBehavior) Tags() block.Tag {
	return b.tags
}

// MapColor возвращает цвет блока на карте
func (b *StaticBehavior) MapColor() block.MapColor {
	return b.color
}
