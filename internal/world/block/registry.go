package block

import (
	"fmt"
	"sort"
)

// registry заполняется в init пакета implementations и дальше только читается
var registry = make(map[BlockID]BlockBehavior)

// Register добавляет поведение блока. ID поведения обязан совпадать с ключом,
// повторная регистрация ID считается ошибкой программы.
func Register(id BlockID, behavior BlockBehavior) {
	if behavior.ID() != id {
		panic(fmt.Sprintf("block: behavior %q has id %d, registered as %d", behavior.Name(), behavior.ID(), id))
	}
	if prev, dup := registry[id]; dup {
		panic(fmt.Sprintf("block: id %d already registered by %q", id, prev.Name()))
	}
	registry[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	behavior, exists := registry[id]
	return behavior, exists
}

// Registered возвращает все зарегистрированные ID по возрастанию
func Registered() []BlockID {
	ids := make([]BlockID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID       BlockID = iota // 0
	StoneBlockID                    // 1
	GrassBlockID                    // 2 - блок травы (тонируется биомом)
	WaterBlockID                    // 3
	SandBlockID                     // 4
	DirtBlockID                     // 5
	GravelBlockID                   // 6
	SnowBlockBlockID                // 7 - полный блок снега
	IceBlockID                      // 8
	ClayBlockID                     // 9

	// Декоративные и тонкие блоки (начиная с 100)
	FlowerBlockID    BlockID = 100
	TallGrassBlockID BlockID = 101
	CactusBlockID    BlockID = 102
	SnowLayerBlockID BlockID = 103 // Снежный покров
	LilyPadBlockID   BlockID = 104

	// Деревья (начиная с 200)
	OakLogBlockID       BlockID = 200
	OakLeavesBlockID    BlockID = 201
	BirchLeavesBlockID  BlockID = 202
	SpruceLeavesBlockID BlockID = 203
	SpruceLogBlockID    BlockID = 204
)
