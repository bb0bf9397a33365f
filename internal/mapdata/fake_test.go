package mapdata

import (
	"sync"

	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
	_ "github.com/annel0/voxel-map/internal/world/block/implementations"
)

// flatWorld ровный мир из травы на высоте 64
type flatWorld struct {
	height int
	panics bool
}

func (f *flatWorld) TopY(kind render.Heightmap, x, z int) int {
	if f.panics {
		panic("world unloaded")
	}
	return f.height + 1
}

func (f *flatWorld) BlockAt(pos vec.Vec3) block.BlockID {
	switch {
	case pos.Y == f.height:
		return block.GrassBlockID
	case pos.Y < f.height:
		return block.StoneBlockID
	default:
		return block.AirBlockID
	}
}

func (f *flatWorld) BottomY() int                  { return -64 }
func (f *flatWorld) SeaLevel() int                 { return 63 }
func (f *flatWorld) GrassColor(x, z int) int       { return 0x91BD59 }
func (f *flatWorld) FoliageColor(x, z int) int     { return 0x77AB2F }
func (f *flatWorld) WaterColor(x, z int) int       { return 0x3F76E4 }
func (f *flatWorld) BiomeBlendRadius() (int, bool) { return 0, true }

// recordingTextures считает регистрации и освобождения текстур
type recordingTextures struct {
	mu        sync.Mutex
	live      map[TextureID]*render.TileRaster
	registers int
	releases  int
}

func newRecordingTextures() *recordingTextures {
	return &recordingTextures{live: make(map[TextureID]*render.TileRaster)}
}

func (r *recordingTextures) Register(id TextureID, raster *render.TileRaster) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registers++
	r.live[id] = raster
	return nil
}

func (r *recordingTextures) Release(id TextureID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases++
	delete(r.live, id)
}

func (r *recordingTextures) counts() (live, registers, releases int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live), r.registers, r.releases
}

func newTestBuilder(tm TextureManager) *Builder {
	opts := render.DefaultOptions()
	opts.BlockPx = 1
	return &Builder{
		Rasterizer: render.NewRasterizer(opts),
		Textures:   tm,
	}
}

// gatedWorld останавливает первое обращение к карте высот до закрытия gate
type gatedWorld struct {
	flatWorld
	once    sync.Once
	entered chan struct{}
	gate    chan struct{}
}

func newGatedWorld(height int) *gatedWorld {
	return &gatedWorld{
		flatWorld: flatWorld{height: height},
		entered:   make(chan struct{}),
		gate:      make(chan struct{}),
	}
}

func (g *gatedWorld) TopY(kind render.Heightmap, x, z int) int {
	g.once.Do(func() {
		close(g.entered)
		<-g.gate
	})
	return g.flatWorld.TopY(kind, x, z)
}
