package mapdata

import (
	"fmt"
	"image/png"
	"io"
	"sync"

	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/vec"
)

// TextureID стабильный идентификатор текстуры тайла
type TextureID string

// TextureIDFor возвращает идентификатор текстуры для координаты тайла
func TextureIDFor(coord vec.Vec2) TextureID {
	return TextureID(fmt.Sprintf("chunk_%d_%d", coord.X, coord.Y))
}

// TextureManager владеет ресурсами текстур (GPU, файлы, память).
// Register под существующим ID заменяет текстуру.
type TextureManager interface {
	Register(id TextureID, raster *render.TileRaster) error
	Release(id TextureID)
}

// ImageTextureManager хранит растры в памяти и отдаёт их как PNG
type ImageTextureManager struct {
	mu       sync.RWMutex
	textures map[TextureID]*render.TileRaster
}

// NewImageTextureManager создаёт пустой менеджер текстур
func NewImageTextureManager() *ImageTextureManager {
	return &ImageTextureManager{textures: make(map[TextureID]*render.TileRaster)}
}

// Register сохраняет растр под указанным ID
func (m *ImageTextureManager) Register(id TextureID, raster *render.TileRaster) error {
	if raster == nil {
		return fmt.Errorf("texture %s: nil raster", id)
	}
	m.mu.Lock()
	m.textures[id] = raster
	m.mu.Unlock()
	return nil
}

// Release освобождает текстуру
func (m *ImageTextureManager) Release(id TextureID) {
	m.mu.Lock()
	delete(m.textures, id)
	m.mu.Unlock()
}

// Get возвращает зарегистрированный растр
func (m *ImageTextureManager) Get(id TextureID) (*render.TileRaster, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.textures[id]
	return r, ok
}

// Count количество живых текстур
func (m *ImageTextureManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.textures)
}

// EncodePNG записывает текстуру в w в формате PNG
func (m *ImageTextureManager) EncodePNG(id TextureID, w io.Writer) error {
	raster, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("texture %s: %w", id, ErrNotReady)
	}
	return png.Encode(w, raster.Image)
}
