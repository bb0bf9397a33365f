package implementations

import "github.com/annel0/voxel-map/internal/world/block"

// Регистрируем все типы блоков при импорте пакета
func init() {
	// Базовые блоки
	block.Register(block.AirBlockID, &AirBehavior{})
	block.Register(block.GrassBlockID, &GrassBehavior{})
	block.Register(block.WaterBlockID, &WaterBehavior{})
	block.Register(block.IceBlockID, &IceBehavior{})

	for _, b := range []*StaticBehavior{
		NewStaticBehavior(block.StoneBlockID, "Stone", block.ColorStone),
		NewStaticBehavior(block.DirtBlockID, "Dirt", block.ColorDirt),
		NewStaticBehavior(block.SandBlockID, "Sand", block.ColorSand),
		NewStaticBehavior(block.GravelBlockID, "Gravel", block.ColorStone),
		NewStaticBehavior(block.ClayBlockID, "Clay", block.ColorClay),
		NewStaticBehavior(block.CactusBlockID, "Cactus", block.ColorPlant),
		NewStaticBehavior(block.OakLogBlockID, "Oak Log", block.ColorWood),
		NewStaticBehavior(block.SpruceLogBlockID, "Spruce Log", block.ColorPodzol),
	} {
		block.Register(b.ID(), b)
	}

	// Снег
	block.Register(block.SnowLayerBlockID, &SnowBehavior{})
	block.Register(block.SnowBlockBlockID, &SnowBehavior{full: true})

	// Растения
	block.Register(block.TallGrassBlockID, &TallGrassBehavior{})
	block.Register(block.FlowerBlockID, &PlantBehavior{id: block.FlowerBlockID, name: "Flower", color: block.ColorPlant})
	block.Register(block.LilyPadBlockID, &PlantBehavior{id: block.LilyPadBlockID, name: "Lily Pad", color: block.ColorPlant})

	// Листва
	block.Register(block.OakLeavesBlockID, &LeavesBehavior{id: block.OakLeavesBlockID, name: "Oak Leaves"})
	block.Register(block.BirchLeavesBlockID, &LeavesBehavior{id: block.BirchLeavesBlockID, name: "Birch Leaves", fixedColor: 0x80A755})
	block.Register(block.SpruceLeavesBlockID, &LeavesBehavior{id: block.SpruceLeavesBlockID, name: "Spruce Leaves", fixedColor: 0x619961})
}
