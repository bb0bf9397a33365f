package world

import (
	"sync"

	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
	_ "github.com/annel0/voxel-map/internal/world/block/implementations" // регистрация блоков
)

// Вертикальные границы мира
const (
	ChunkSize   = 16
	MinY        = -64
	MaxY        = 320
	WorldHeight = MaxY - MinY
	SeaLevel    = 63
)

const heightmapCount = 3

// Chunk представляет колонку мира 16x16 блоков на всю высоту [MinY, MaxY)
type Chunk struct {
	Coords vec.Vec2 // Координаты чанка в мире

	blocks  []block.BlockID                              // индекс ((y-MinY)*16+z)*16+x
	heights [heightmapCount][ChunkSize * ChunkSize]int16 // первый свободный Y над колонкой
	biomes  [ChunkSize * ChunkSize]BiomeType

	Changes       map[vec.Vec3]struct{} // Изменённые блоки (локальные координаты, Y мировой)
	ChangeCounter int                   // Счетчик изменений
	Mu            sync.RWMutex          // Мьютекс для безопасного доступа
}

// NewChunk создаёт новый пустой чанк с указанными координатами
func NewChunk(coords vec.Vec2) *Chunk {
	c := &Chunk{
		Coords:  coords,
		blocks:  make([]block.BlockID, ChunkSize*ChunkSize*WorldHeight),
		Changes: make(map[vec.Vec3]struct{}),
	}
	for k := range c.heights {
		for i := range c.heights[k] {
			c.heights[k][i] = MinY
		}
	}
	return c
}

func inChunk(local vec.Vec3) bool {
	return local.X >= 0 && local.X < ChunkSize &&
		local.Z >= 0 && local.Z < ChunkSize &&
		local.Y >= MinY && local.Y < MaxY
}

func blockIndex(x, y, z int) int {
	return ((y-MinY)*ChunkSize+z)*ChunkSize + x
}

func columnIndex(x, z int) int {
	return z*ChunkSize + x
}

// GetBlock возвращает ID блока по локальным координатам (Y мировой).
// Вне границ чанка возвращает воздух.
func (c *Chunk) GetBlock(local vec.Vec3) block.BlockID {
	if !inChunk(local) {
		return block.AirBlockID
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.blocks[blockIndex(local.X, local.Y, local.Z)]
}

// SetBlock устанавливает блок, помечает изменение и обновляет карты высот колонки
func (c *Chunk) SetBlock(local vec.Vec3, blockID block.BlockID) bool {
	if !inChunk(local) {
		return false
	}

	c.Mu.Lock()
	defer c.Mu.Unlock()

	idx := blockIndex(local.X, local.Y, local.Z)
	if c.blocks[idx] == blockID {
		return false
	}
	c.blocks[idx] = blockID
	c.Changes[local] = struct{}{}
	c.ChangeCounter++
	c.updateColumn(local.X, local.Z)
	return true
}

// setBlockRaw пишет блок без учёта изменений и без пересчёта высот (генерация)
func (c *Chunk) setBlockRaw(x, y, z int, blockID block.BlockID) {
	if x < 0 || x >= ChunkSize || z < 0 || z >= ChunkSize || y < MinY || y >= MaxY {
		return
	}
	c.blocks[blockIndex(x, y, z)] = blockID
}

// TopY возвращает значение карты высот для локальной колонки
func (c *Chunk) TopY(kind render.Heightmap, lx, lz int) int {
	if int(kind) >= heightmapCount || lx < 0 || lx >= ChunkSize || lz < 0 || lz >= ChunkSize {
		return MinY
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return int(c.heights[kind][columnIndex(lx, lz)])
}

// Biome возвращает биом локальной колонки
func (c *Chunk) Biome(lx, lz int) BiomeType {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.biomes[columnIndex(lx&0xF, lz&0xF)]
}

// RecomputeHeightmaps пересчитывает все карты высот чанка
func (c *Chunk) RecomputeHeightmaps() {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			c.updateColumn(x, z)
		}
	}
}

// updateColumn пересчитывает карты высот колонки; вызывается под c.Mu
func (c *Chunk) updateColumn(x, z int) {
	col := columnIndex(x, z)
	found := [heightmapCount]bool{}
	remaining := heightmapCount

	for k := range c.heights {
		c.heights[k][col] = MinY
	}

	for y := MaxY - 1; y >= MinY && remaining > 0; y-- {
		id := c.blocks[blockIndex(x, y, z)]
		if id == block.AirBlockID {
			continue
		}
		tags := block.TagsOf(id)
		for k := 0; k < heightmapCount; k++ {
			if found[k] || !heightmapAccepts(render.Heightmap(k), tags) {
				continue
			}
			found[k] = true
			remaining--
			c.heights[k][col] = int16(y + 1)
		}
	}
}

// heightmapAccepts определяет, учитывает ли карта высот блок с указанными признаками
func heightmapAccepts(kind render.Heightmap, tags block.Tag) bool {
	switch kind {
	case render.HeightmapWorldSurface:
		return true
	case render.HeightmapMotionBlockingNoLeaves:
		return (tags.Has(block.TagMotionBlocking) || tags.Has(block.TagWater)) && !tags.Has(block.TagFoliage)
	case render.HeightmapOceanFloor:
		return tags.Has(block.TagMotionBlocking)
	default:
		return false
	}
}

// HasChanges проверяет, есть ли несохранённые изменения
func (c *Chunk) HasChanges() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.ChangeCounter > 0
}

// ChangedBlocks возвращает снимок изменённых блоков
func (c *Chunk) ChangedBlocks() map[vec.Vec3]block.BlockID {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	result := make(map[vec.Vec3]block.BlockID, len(c.Changes))
	for pos := range c.Changes {
		result[pos] = c.blocks[blockIndex(pos.X, pos.Y, pos.Z)]
	}
	return result
}

// ClearChanges очищает список изменений
func (c *Chunk) ClearChanges() {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	c.Changes = make(map[vec.Vec3]struct{})
	c.ChangeCounter = 0
}
