package render

import (
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
	_ "github.com/annel0/voxel-map/internal/world/block/implementations"
)

// fakeWorld реализует WorldView для тестирования
type fakeWorld struct {
	bottom, sea int
	top         func(kind Heightmap, x, z int) int
	blockAt     func(pos vec.Vec3) block.BlockID
	grass       func(x, z int) int
	foliage     func(x, z int) int
	water       func(x, z int) int
	blend       int
	blendOK     bool
}

// newFlatWorld: ровная поверхность из блока id на высоте height
func newFlatWorld(height int, id block.BlockID) *fakeWorld {
	return &fakeWorld{
		bottom: -64,
		sea:    63,
		top: func(kind Heightmap, x, z int) int {
			return height + 1
		},
		blockAt: func(pos vec.Vec3) block.BlockID {
			switch {
			case pos.Y == height:
				return id
			case pos.Y < height:
				return block.StoneBlockID
			default:
				return block.AirBlockID
			}
		},
		grass:   func(x, z int) int { return 0x91BD59 },
		foliage: func(x, z int) int { return 0x77AB2F },
		water:   func(x, z int) int { return 0x3F76E4 },
	}
}

func (f *fakeWorld) TopY(kind Heightmap, x, z int) int { return f.top(kind, x, z) }
func (f *fakeWorld) BlockAt(pos vec.Vec3) block.BlockID { return f.blockAt(pos) }
func (f *fakeWorld) BottomY() int { return f.bottom }
func (f *fakeWorld) SeaLevel() int { return f.sea }
func (f *fakeWorld) GrassColor(x, z int) int { return f.grass(x, z) }
func (f *fakeWorld) FoliageColor(x, z int) int { return f.foliage(x, z) }
func (f *fakeWorld) WaterColor(x, z int) int { return f.water(x, z) }
func (f *fakeWorld) BiomeBlendRadius() (int, bool) { return f.blend, f.blendOK }
