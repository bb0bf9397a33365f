package block

import (
	"github.com/annel0/voxel-map/internal/vec"
)

// Tag набор категориальных признаков блока, по которым работают карты высот и сэмплер
type Tag uint16

const (
	TagWater          Tag = 1 << iota // Содержит воду (сам блок или залитый)
	TagFoliage                        // Листва
	TagGrass                          // Блок травы
	TagSnow                           // Снег (покров или блок)
	TagMotionBlocking                 // Твёрдый блок, останавливает движение
)

// Has проверяет наличие всех признаков
func (t Tag) Has(other Tag) bool {
	return t&other == other
}

// NoTint значение, которое провайдеры тонирования возвращают для «без оттенка»
const NoTint = 0xFFFFFF

// BlockBehavior описывает блок для картографии: признаки и цвет карты
type BlockBehavior interface {
	ID() BlockID
	Name() string
	Tags() Tag
	MapColor() MapColor
}

// Tinted реализуют блоки, цвет которых зависит от биома или позиции.
// ok=false означает, что провайдер не смог дать цвет.
type Tinted interface {
	Tint(src TintSource, pos vec.Vec3) (rgb int, ok bool)
}

// IsAir сообщает, что в позиции нет блока
func IsAir(id BlockID) bool {
	return id == AirBlockID
}

// TagsOf возвращает признаки блока; незарегистрированные блоки считаются твёрдыми
func TagsOf(id BlockID) Tag {
	if id == AirBlockID {
		return 0
	}
	behavior, ok := Get(id)
	if !ok {
		return TagMotionBlocking
	}
	return behavior.Tags()
}
