package mapdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/annel0/voxel-map/internal/logging"
	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/vec"
)

// ErrNotReady возвращается, когда у тайла ещё нет построенного растра
var ErrNotReady = errors.New("tile not ready")

// ErrSuperseded возвращается построением, во время которого запись
// инвалидировали или освободили: результат не считается актуальным.
var ErrSuperseded = errors.New("tile changed during build")

var tracer = otel.Tracer("github.com/annel0/voxel-map/internal/mapdata")

// Builder общие зависимости всех записей кеша
type Builder struct {
	Rasterizer *render.Rasterizer
	Textures   TextureManager
	Metrics    *Metrics
}

// ChunkData запись кеша одного тайла: не более одного живого растра и текстуры.
//
// Построение ленивое (EnsureBuilt), Invalidate лишь помечает растр устаревшим,
// Dispose освобождает текстуру. Запись переживает любое число циклов
// Dispose/EnsureBuilt.
type ChunkData struct {
	coord   vec.Vec2
	id      TextureID
	builder *Builder

	buildMu sync.Mutex // сериализует построения одной записи

	mu         sync.RWMutex
	raster     *render.TileRaster
	hasTexture bool
	ready      bool
	disposed   bool
	version    uint64 // растёт на каждом Invalidate и Dispose
	disposedAt uint64 // version после последнего Dispose
}

// NewChunkData создаёт пустую запись для тайла
func NewChunkData(coord vec.Vec2, b *Builder) *ChunkData {
	return &ChunkData{
		coord:   coord,
		id:      TextureIDFor(coord),
		builder: b,
	}
}

// Coord координата тайла
func (c *ChunkData) Coord() vec.Vec2 {
	return c.coord
}

// TextureID идентификатор текстуры записи
func (c *ChunkData) TextureID() TextureID {
	return c.id
}

// Ready сообщает, актуален ли растр
func (c *ChunkData) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// CurrentRaster возвращает последний построенный растр без перестроения.
// Растр может быть устаревшим после Invalidate.
func (c *ChunkData) CurrentRaster() (*render.TileRaster, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.raster, c.raster != nil
}

// EnsureBuilt строит растр, если он не актуален, и возвращает handle текстуры.
// При w == nil перестроения нет: возвращается последний известный handle
// или false, если ничего не строилось.
func (c *ChunkData) EnsureBuilt(w render.WorldView) (TextureID, bool) {
	if c.Ready() {
		return c.id, true
	}
	if w == nil {
		return c.id, c.hasLiveTexture()
	}
	err := c.build(context.Background(), w, false)
	switch {
	case err == nil:
		return c.id, true
	case errors.Is(err, ErrSuperseded):
		logging.GetRenderLogger().Debug("Тайл %v изменён во время построения", c.coord)
	default:
		logging.GetRenderLogger().Warn("Тайл %v не построен: %v", c.coord, err)
	}
	return c.id, c.hasLiveTexture()
}

// Build принудительно строит растр и регистрирует текстуру, заменяя прежнюю.
// Паника мира-хоста во время построения превращается в ошибку.
// Invalidate или Dispose во время построения дают ErrSuperseded: после Invalidate
// новая текстура регистрируется, но запись остаётся неактуальной, после Dispose
// результат отбрасывается.
func (c *ChunkData) Build(ctx context.Context, w render.WorldView) error {
	return c.build(ctx, w, true)
}

// build при force == false пропускает построение, если запись стала актуальной,
// пока вызывающий ждал buildMu.
func (c *ChunkData) build(ctx context.Context, w render.WorldView, force bool) (err error) {
	if w == nil {
		return fmt.Errorf("build tile %v: %w", c.coord, ErrNotReady)
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	c.mu.RLock()
	ready, version := c.ready, c.version
	c.mu.RUnlock()
	if ready && !force {
		return nil
	}

	_, span := tracer.Start(ctx, "tile.build")
	span.SetAttributes(attribute.Int("tile.x", c.coord.X), attribute.Int("tile.z", c.coord.Y))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	started := time.Now()
	raster, err := c.render(w)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stale := c.version != version
	if c.disposed && c.disposedAt > version {
		return fmt.Errorf("build tile %v: disposed: %w", c.coord, ErrSuperseded)
	}
	if c.hasTexture {
		c.builder.Textures.Release(c.id)
		c.hasTexture = false
	}
	if err := c.builder.Textures.Register(c.id, raster); err != nil {
		c.ready = false
		return fmt.Errorf("register texture %s: %w", c.id, err)
	}
	c.raster = raster
	c.hasTexture = true
	if stale {
		return fmt.Errorf("build tile %v: invalidated: %w", c.coord, ErrSuperseded)
	}
	c.ready = true
	c.disposed = false

	took := time.Since(started)
	c.builder.Metrics.built(took.Seconds())
	logging.LogTileBuild(c.coord.X, c.coord.Y, took)
	return nil
}

func (c *ChunkData) render(w render.WorldView) (raster *render.TileRaster, err error) {
	defer func() {
		if r := recover(); r != nil {
			raster = nil
			err = fmt.Errorf("render tile %v: panic: %v", c.coord, r)
		}
	}()
	return c.builder.Rasterizer.RenderTile(w, c.coord), nil
}

// Invalidate помечает растр устаревшим; ресурсы не освобождаются
func (c *ChunkData) Invalidate() {
	c.mu.Lock()
	c.ready = false
	c.version++
	c.mu.Unlock()
}

// Dispose освобождает текстуру и растр; запись остаётся пригодной к повторному построению
func (c *ChunkData) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasTexture {
		c.builder.Textures.Release(c.id)
		c.hasTexture = false
	}
	c.raster = nil
	c.ready = false
	c.disposed = true
	c.version++
	c.disposedAt = c.version
}

// Disposed сообщает, что ресурсы записи освобождены и с тех пор она не строилась
func (c *ChunkData) Disposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}

func (c *ChunkData) hasLiveTexture() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasTexture
}
