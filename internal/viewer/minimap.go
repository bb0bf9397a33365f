package viewer

import (
	"image"
	"image/color"
	"sync"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/time/rate"

	"github.com/annel0/voxel-map/internal/config"
	"github.com/annel0/voxel-map/internal/vec"
)

// PlayerMarker цвет маркера игрока
var PlayerMarker = color.RGBA{R: 0xE0, G: 0x30, B: 0x30, A: 0xFF}

// Minimap собирает тайлы вокруг игрока в квадратное изображение.
//
// Compose вызывается каждый кадр; пересборка происходит не чаще чем раз в
// RefreshEveryFrames кадров и не чаще MaxFPS в секунду. Смена центрального
// тайла, радиуса или размера пересобирает изображение сразу.
type Minimap struct {
	src          TileSource
	blockPx      int
	refreshEvery int
	limiter      *rate.Limiter

	mu        sync.Mutex
	frame     int
	composite *image.RGBA
	lastTile  vec.Vec2
	lastKey   [2]int
	builds    int
}

// NewMinimap создаёт миникарту. blockPx должен совпадать с разрешением растеризатора.
func NewMinimap(src TileSource, blockPx int, cfg config.ViewerConfig) *Minimap {
	limit := rate.Inf
	if cfg.MaxFPS > 0 {
		limit = rate.Every(time.Second / time.Duration(cfg.MaxFPS))
	}
	refresh := cfg.RefreshEveryFrames
	if refresh <= 0 {
		refresh = 1
	}
	return &Minimap{
		src:          src,
		blockPx:      blockPx,
		refreshEvery: refresh,
		limiter:      rate.NewLimiter(limit, 1),
	}
}

// Compose возвращает изображение size×size с тайлами в радиусе radius вокруг center.
// Между пересборками отдаётся предыдущее изображение.
func (m *Minimap) Compose(center vec.Vec3, radius, size int) *image.RGBA {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frame++
	key := [2]int{radius, size}
	changed := m.composite == nil || key != m.lastKey || center.Chunk() != m.lastTile
	due := m.frame%m.refreshEvery == 0
	if !changed && !(due && m.limiter.Allow()) {
		return m.composite
	}

	m.composite = m.render(center, radius, size)
	m.lastTile = center.Chunk()
	m.lastKey = key
	m.builds++
	return m.composite
}

// Render пересобирает изображение без учёта ограничений частоты
func (m *Minimap) Render(center vec.Vec3, radius, size int) *image.RGBA {
	return m.render(center, radius, size)
}

// Builds количество пересборок
func (m *Minimap) Builds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builds
}

func (m *Minimap) render(center vec.Vec3, radius, size int) *image.RGBA {
	if radius < 0 {
		radius = 0
	}
	if size <= 0 {
		size = 1
	}

	// окно в блоках центрировано на игроке, а не на его тайле
	span := (2*radius + 1) * 16
	originBlock := image.Point{X: center.X - span/2, Y: center.Z - span/2}
	canvas := image.NewRGBA(image.Rect(0, 0, span*m.blockPx, span*m.blockPx))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	lo := vec.Vec2{X: originBlock.X, Y: originBlock.Y}.ToChunkCoords()
	hi := vec.Vec2{X: originBlock.X + span - 1, Y: originBlock.Y + span - 1}.ToChunkCoords()
	drawTiles(m.src, canvas, originBlock.Mul(m.blockPx), lo, hi, m.blockPx)

	out := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)
	drawMarker(out)
	return out
}

// drawMarker рисует маркер игрока в центре
func drawMarker(img *image.RGBA) {
	b := img.Bounds()
	c := image.Point{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
	r := b.Dx() / 64
	if r < 1 {
		r = 1
	}
	marker := image.Rect(c.X-r, c.Y-r, c.X+r+1, c.Y+r+1).Intersect(b)
	draw.Draw(img, marker, image.NewUniform(PlayerMarker), image.Point{}, draw.Src)
}
