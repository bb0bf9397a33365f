package world

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/voxel-map/internal/logging"
	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
)

// ChunkStore сохраняет и восстанавливает правки блоков чанка
type ChunkStore interface {
	LoadAndApplyChunk(chunk *Chunk) error
	SaveChunk(chunk *Chunk) error
}

// BlockChangeHandler вызывается после изменения блока с координатами его чанка
type BlockChangeHandler func(chunk vec.Vec2, pos vec.Vec3, id block.BlockID)

// WorldManager управляет генерируемым миром и отвечает на запросы рендера
type WorldManager struct {
	seed        int64
	generator   *WorldGenerator
	chunks      map[vec.Vec2]*Chunk
	mu          sync.RWMutex
	store       ChunkStore
	blendRadius int // < 0: мир не задаёт радиус смешивания

	handlersMu sync.RWMutex
	handlers   []BlockChangeHandler

	saveInterval time.Duration
	ctx          context.Context
	cancelFunc   context.CancelFunc
}

// NewWorldManager создаёт новый менеджер мира с указанным сидом
func NewWorldManager(seed int64) *WorldManager {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorldManager{
		seed:         seed,
		generator:    NewWorldGenerator(seed),
		chunks:       make(map[vec.Vec2]*Chunk),
		blendRadius:  -1,
		saveInterval: 5 * time.Minute,
		ctx:          ctx,
		cancelFunc:   cancel,
	}
}

// SetStorage подключает хранилище правок блоков
func (wm *WorldManager) SetStorage(store ChunkStore) {
	wm.mu.Lock()
	wm.store = store
	wm.mu.Unlock()
}

// SetBiomeBlendRadius задаёт радиус смешивания биомов мира (-1: не задан)
func (wm *WorldManager) SetBiomeBlendRadius(radius int) {
	wm.mu.Lock()
	wm.blendRadius = radius
	wm.mu.Unlock()
}

// OnBlockChanged регистрирует обработчик изменения блоков
func (wm *WorldManager) OnBlockChanged(h BlockChangeHandler) {
	wm.handlersMu.Lock()
	wm.handlers = append(wm.handlers, h)
	wm.handlersMu.Unlock()
}

// Seed возвращает сид мира
func (wm *WorldManager) Seed() int64 {
	return wm.seed
}

// Run запускает периодическое сохранение мира
func (wm *WorldManager) Run(parentCtx context.Context) {
	if parentCtx != nil {
		childCtx, cancel := context.WithCancel(parentCtx)
		wm.ctx = childCtx
		wm.cancelFunc = cancel
	}

	go wm.autoSaveLoop()
}

// autoSaveLoop запускает периодическое сохранение мира
func (wm *WorldManager) autoSaveLoop() {
	ticker := time.NewTicker(wm.saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wm.ctx.Done():
			return
		case <-ticker.C:
			wm.SaveWorld()
		}
	}
}

// Stop сохраняет изменения и останавливает фоновые процессы
func (wm *WorldManager) Stop() {
	wm.SaveWorld()
	wm.cancelFunc()
}

// GetChunk возвращает чанк по координатам, генерируя его при необходимости
func (wm *WorldManager) GetChunk(coords vec.Vec2) *Chunk {
	wm.mu.RLock()
	chunk, exists := wm.chunks[coords]
	store := wm.store
	wm.mu.RUnlock()

	if exists {
		return chunk
	}

	// Генерируем вне блокировки: это самая дорогая часть
	chunk = wm.generator.GenerateChunk(coords)
	if store != nil {
		if err := store.LoadAndApplyChunk(chunk); err != nil {
			logging.GetWorldLogger().Warn("Не удалось применить правки чанка %v: %v", coords, err)
		}
	}

	wm.mu.Lock()
	defer wm.mu.Unlock()
	// Проверяем еще раз под блокировкой записи
	if existing, ok := wm.chunks[coords]; ok {
		return existing
	}
	wm.chunks[coords] = chunk
	return chunk
}

// IsChunkLoaded проверяет, находится ли чанк в памяти
func (wm *WorldManager) IsChunkLoaded(coords vec.Vec2) bool {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	_, ok := wm.chunks[coords]
	return ok
}

// LoadedChunks возвращает координаты всех загруженных чанков
func (wm *WorldManager) LoadedChunks() []vec.Vec2 {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	result := make([]vec.Vec2, 0, len(wm.chunks))
	for coords := range wm.chunks {
		result = append(result, coords)
	}
	return result
}

// UnloadChunk сохраняет правки и выгружает чанк из памяти
func (wm *WorldManager) UnloadChunk(coords vec.Vec2) {
	wm.mu.Lock()
	chunk, ok := wm.chunks[coords]
	delete(wm.chunks, coords)
	store := wm.store
	wm.mu.Unlock()

	if !ok || store == nil || !chunk.HasChanges() {
		return
	}
	if err := store.SaveChunk(chunk); err != nil {
		logging.GetWorldLogger().Error("Ошибка сохранения чанка %v: %v", coords, err)
	}
}

// SaveWorld сохраняет изменённые чанки
func (wm *WorldManager) SaveWorld() {
	wm.mu.RLock()
	store := wm.store
	dirty := make([]*Chunk, 0)
	for _, chunk := range wm.chunks {
		if chunk.HasChanges() {
			dirty = append(dirty, chunk)
		}
	}
	wm.mu.RUnlock()

	if store == nil || len(dirty) == 0 {
		return
	}

	saved := 0
	for _, chunk := range dirty {
		if err := store.SaveChunk(chunk); err != nil {
			logging.GetWorldLogger().Error("Ошибка сохранения чанка %v: %v", chunk.Coords, err)
			continue
		}
		saved++
	}
	logging.GetWorldLogger().Debug("Сохранено чанков: %d/%d", saved, len(dirty))
}

// SetBlock устанавливает блок в мировой позиции и уведомляет подписчиков
func (wm *WorldManager) SetBlock(pos vec.Vec3, id block.BlockID) bool {
	if pos.Y < MinY || pos.Y >= MaxY {
		return false
	}
	coords := pos.Chunk()
	chunk := wm.GetChunk(coords)

	local := pos.Column().LocalInChunk()
	if !chunk.SetBlock(vec.Vec3{X: local.X, Y: pos.Y, Z: local.Y}, id) {
		return false
	}

	wm.handlersMu.RLock()
	handlers := append([]BlockChangeHandler(nil), wm.handlers...)
	wm.handlersMu.RUnlock()

	for _, h := range handlers {
		h(coords, pos, id)
	}
	return true
}

// BiomeAt возвращает биом колонки
func (wm *WorldManager) BiomeAt(x, z int) BiomeType {
	coords := vec.Vec2{X: x, Y: z}.ToChunkCoords()
	wm.mu.RLock()
	chunk, ok := wm.chunks[coords]
	wm.mu.RUnlock()
	if ok {
		return chunk.Biome(x, z)
	}
	return wm.generator.BiomeAt(x, z)
}

//================ render.WorldView =================//

// TopY возвращает значение карты высот колонки
func (wm *WorldManager) TopY(kind render.Heightmap, x, z int) int {
	col := vec.Vec2{X: x, Y: z}
	local := col.LocalInChunk()
	return wm.GetChunk(col.ToChunkCoords()).TopY(kind, local.X, local.Y)
}

// BlockAt возвращает блок в мировой позиции
func (wm *WorldManager) BlockAt(pos vec.Vec3) block.BlockID {
	if pos.Y < MinY || pos.Y >= MaxY {
		return block.AirBlockID
	}
	local := pos.Column().LocalInChunk()
	return wm.GetChunk(pos.Chunk()).GetBlock(vec.Vec3{X: local.X, Y: pos.Y, Z: local.Y})
}

func (wm *WorldManager) BottomY() int  { return MinY }
func (wm *WorldManager) SeaLevel() int { return SeaLevel }

// BiomeBlendRadius возвращает радиус смешивания, если мир его задаёт
func (wm *WorldManager) BiomeBlendRadius() (int, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.blendRadius, wm.blendRadius >= 0
}

func (wm *WorldManager) GrassColor(x, z int) int   { return wm.BiomeAt(x, z).Info().GrassColor }
func (wm *WorldManager) FoliageColor(x, z int) int { return wm.BiomeAt(x, z).Info().FoliageColor }
func (wm *WorldManager) WaterColor(x, z int) int   { return wm.BiomeAt(x, z).Info().WaterColor }

var _ render.WorldView = (*WorldManager)(nil)
