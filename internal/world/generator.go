package world

import (
	"math/rand"

	"github.com/annel0/voxel-map/internal/util"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
)

// Пороговые значения рельефа
const (
	BaseHeight     = SeaLevel - 22 // Высота при нулевом шуме
	HeightRange    = 64            // Размах основного рельефа
	MountainStart  = 0.72          // Шум континентальности, выше которого поднимаются горы
	MountainBoost  = 150           // Дополнительный подъём гор
	SnowLine       = 118           // Выше: снежные пики
	MountainLine   = 96            // Выше: горы
	DesertWarmth   = 0.62          // Порог температуры пустыни
	SwampMoisture  = 0.64          // Порог влажности болот
	ForestMoisture = 0.52          // Порог влажности лесов
)

// WorldGenerator генерирует ландшафт мира
type WorldGenerator struct {
	Seed          int64   // Сид для генерации шума
	NoiseScale    float64 // Масштаб основного шума (высота)
	BiomeScale    float64 // Масштаб шума биомов
	ForestDensity float64 // Плотность лесов (от 0 до 1)

	height      *util.Noise
	temperature *util.Noise
	moisture    *util.Noise
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64) *WorldGenerator {
	return &WorldGenerator{
		Seed:          seed,
		NoiseScale:    0.008, // Настройка сглаженности ландшафта
		BiomeScale:    0.004, // Настройка размера биомов
		ForestDensity: 0.08,  // Шанс дерева на колонку в лесу
		height:        util.NewNoise(seed),
		temperature:   util.NewNoise(seed + 42),
		moisture:      util.NewNoise(seed + 1337),
	}
}

// HeightAt возвращает Y верхнего твёрдого блока колонки
func (wg *WorldGenerator) HeightAt(x, z int) int {
	n := wg.height.Fractal2D(float64(x)*wg.NoiseScale, float64(z)*wg.NoiseScale, 4, 0.5)
	h := BaseHeight + int(n*HeightRange)
	if n > MountainStart {
		h += int((n - MountainStart) * MountainBoost)
	}
	if h >= MaxY-16 {
		h = MaxY - 16
	}
	return h
}

// BiomeAt определяет биом колонки. Зависит только от сида, поэтому
// цвета биомов доступны и для ещё не сгенерированных чанков.
func (wg *WorldGenerator) BiomeAt(x, z int) BiomeType {
	return wg.biomeFor(x, z, wg.HeightAt(x, z))
}

func (wg *WorldGenerator) biomeFor(x, z, height int) BiomeType {
	t := wg.temperature.PerlinNoise2D(float64(x)*wg.BiomeScale, float64(z)*wg.BiomeScale)
	m := wg.moisture.PerlinNoise2D(float64(x)*wg.BiomeScale, float64(z)*wg.BiomeScale)

	switch {
	case height < SeaLevel-2:
		if m > SwampMoisture && height >= SeaLevel-4 {
			return BiomeSwamp
		}
		return BiomeOcean
	case height >= SnowLine:
		return BiomeSnowyPeaks
	case height >= MountainLine:
		return BiomeMountains
	case height <= SeaLevel+1:
		if m > SwampMoisture {
			return BiomeSwamp
		}
		return BiomeBeach
	case t > DesertWarmth && m < 0.45:
		return BiomeDesert
	case m > SwampMoisture && height < SeaLevel+5:
		return BiomeSwamp
	case m > ForestMoisture:
		return BiomeForest
	default:
		return BiomePlains
	}
}

// GenerateChunk генерирует чанк по его координатам
func (wg *WorldGenerator) GenerateChunk(coords vec.Vec2) *Chunk {
	chunk := NewChunk(coords)

	// Для каждого чанка создаем уникальный сид на основе глобального сида и координат
	chunkSeed := wg.Seed + int64(coords.X)*341873128712 + int64(coords.Y)*132897987541
	rng := rand.New(rand.NewSource(chunkSeed))

	start := coords.ChunkStart()

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			wx, wz := start.X+x, start.Y+z
			height := wg.HeightAt(wx, wz)
			biome := wg.biomeFor(wx, wz, height)
			chunk.biomes[columnIndex(x, z)] = biome

			wg.fillColumn(chunk, x, z, height, biome, rng)
		}
	}

	// Деревья ставим вторым проходом, чтобы листва не затиралась соседними колонками
	for z := 2; z < ChunkSize-2; z++ {
		for x := 2; x < ChunkSize-2; x++ {
			biome := chunk.biomes[columnIndex(x, z)]
			chance := wg.treeChance(biome)
			if chance == 0 || rng.Float64() >= chance {
				continue
			}
			ground := wg.HeightAt(start.X+x, start.Y+z)
			if ground <= SeaLevel {
				continue
			}
			wg.placeTree(chunk, x, ground+1, z, biome, rng)
		}
	}

	chunk.RecomputeHeightmaps()
	return chunk
}

// fillColumn заполняет колонку слоями: камень, подпочва, поверхность, вода и покров
func (wg *WorldGenerator) fillColumn(c *Chunk, x, z, height int, biome BiomeType, rng *rand.Rand) {
	top, sub := wg.surfaceBlocks(biome, height)

	for y := MinY; y <= height; y++ {
		switch {
		case y == height:
			c.setBlockRaw(x, y, z, top)
		case y >= height-3:
			c.setBlockRaw(x, y, z, sub)
		default:
			c.setBlockRaw(x, y, z, block.StoneBlockID)
		}
	}

	// Вода до уровня моря
	if height < SeaLevel {
		for y := height + 1; y <= SeaLevel; y++ {
			c.setBlockRaw(x, y, z, block.WaterBlockID)
		}
		switch biome {
		case BiomeSnowyPeaks:
			c.setBlockRaw(x, SeaLevel, z, block.IceBlockID)
		case BiomeSwamp:
			if rng.Float64() < 0.06 {
				c.setBlockRaw(x, SeaLevel+1, z, block.LilyPadBlockID)
			}
		}
		return
	}

	// Покров над поверхностью
	above := height + 1
	switch biome {
	case BiomePlains:
		switch r := rng.Float64(); {
		case r < 0.12:
			c.setBlockRaw(x, above, z, block.TallGrassBlockID)
		case r < 0.14:
			c.setBlockRaw(x, above, z, block.FlowerBlockID)
		}
	case BiomeForest, BiomeSwamp:
		if rng.Float64() < 0.08 {
			c.setBlockRaw(x, above, z, block.TallGrassBlockID)
		}
	case BiomeDesert:
		if rng.Float64() < 0.006 {
			for i := 0; i < 1+rng.Intn(3); i++ {
				c.setBlockRaw(x, above+i, z, block.CactusBlockID)
			}
		}
	case BiomeMountains:
		if height >= SnowLine-8 {
			c.setBlockRaw(x, above, z, block.SnowLayerBlockID)
		}
	case BiomeSnowyPeaks:
		c.setBlockRaw(x, above, z, block.SnowLayerBlockID)
	}
}

// surfaceBlocks возвращает блок поверхности и подпочвы для биома
func (wg *WorldGenerator) surfaceBlocks(biome BiomeType, height int) (top, sub block.BlockID) {
	switch biome {
	case BiomeOcean:
		if height < SeaLevel-12 {
			return block.GravelBlockID, block.GravelBlockID
		}
		if height%5 == 0 {
			return block.ClayBlockID, block.SandBlockID
		}
		return block.SandBlockID, block.SandBlockID
	case BiomeBeach, BiomeDesert:
		return block.SandBlockID, block.SandBlockID
	case BiomeMountains:
		return block.StoneBlockID, block.StoneBlockID
	case BiomeSnowyPeaks:
		return block.SnowBlockBlockID, block.StoneBlockID
	case BiomeSwamp:
		if height < SeaLevel {
			return block.DirtBlockID, block.DirtBlockID
		}
		return block.GrassBlockID, block.DirtBlockID
	default:
		return block.GrassBlockID, block.DirtBlockID
	}
}

// treeChance возвращает вероятность дерева на колонку
func (wg *WorldGenerator) treeChance(biome BiomeType) float64 {
	switch biome {
	case BiomeForest:
		return wg.ForestDensity
	case BiomePlains:
		return wg.ForestDensity / 10
	case BiomeSwamp:
		return wg.ForestDensity / 3
	case BiomeMountains:
		return wg.ForestDensity / 4
	default:
		return 0
	}
}

// placeTree ставит ствол и крону. Крона не выходит за границы чанка.
func (wg *WorldGenerator) placeTree(c *Chunk, x, baseY, z int, biome BiomeType, rng *rand.Rand) {
	log, leaves := block.OakLogBlockID, block.OakLeavesBlockID
	switch {
	case biome == BiomeMountains:
		log, leaves = block.SpruceLogBlockID, block.SpruceLeavesBlockID
	case biome == BiomeForest && rng.Float64() < 0.3:
		leaves = block.BirchLeavesBlockID
	}

	trunk := 4 + rng.Intn(3)
	for y := baseY; y < baseY+trunk; y++ {
		c.setBlockRaw(x, y, z, log)
	}

	crownTop := baseY + trunk
	for y := crownTop - 2; y <= crownTop; y++ {
		radius := 2
		if y == crownTop {
			radius = 1
		}
		for dz := -radius; dz <= radius; dz++ {
			for dx := -radius; dx <= radius; dx++ {
				// срезаем углы
				if radius == 2 && absInt(dx) == 2 && absInt(dz) == 2 {
					continue
				}
				if c.blocks[blockIndex(x+dx, y, z+dz)] == block.AirBlockID {
					c.setBlockRaw(x+dx, y, z+dz, leaves)
				}
			}
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
