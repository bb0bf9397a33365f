package world

import (
	"context"
	"sync"
	"testing"

	"github.com/annel0/voxel-map/internal/eventbus"
	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore реализует ChunkStore для тестирования
type mockStore struct {
	mu     sync.Mutex
	saved  map[vec.Vec2]map[vec.Vec3]block.BlockID
	loaded int
}

func newMockStore() *mockStore {
	return &mockStore{saved: make(map[vec.Vec2]map[vec.Vec3]block.BlockID)}
}

func (m *mockStore) LoadAndApplyChunk(chunk *Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded++
	for pos, id := range m.saved[chunk.Coords] {
		chunk.SetBlock(pos, id)
	}
	chunk.ClearChanges()
	return nil
}

func (m *mockStore) SaveChunk(chunk *Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved[chunk.Coords] == nil {
		m.saved[chunk.Coords] = make(map[vec.Vec3]block.BlockID)
	}
	for pos, id := range chunk.ChangedBlocks() {
		m.saved[chunk.Coords][pos] = id
	}
	chunk.ClearChanges()
	return nil
}

func TestWorldManager_SetBlockNotifies(t *testing.T) {
	wm := NewWorldManager(1)

	var got []vec.Vec2
	wm.OnBlockChanged(func(chunk vec.Vec2, pos vec.Vec3, id block.BlockID) {
		got = append(got, chunk)
	})

	pos := vec.Vec3{X: -1, Y: 200, Z: 17}
	require.True(t, wm.SetBlock(pos, block.StoneBlockID))
	assert.Equal(t, block.StoneBlockID, wm.BlockAt(pos))
	assert.Equal(t, 201, wm.TopY(render.HeightmapWorldSurface, -1, 17))
	assert.Equal(t, []vec.Vec2{{X: -1, Y: 1}}, got)

	// Та же установка не уведомляет повторно
	assert.False(t, wm.SetBlock(pos, block.StoneBlockID))
	assert.Len(t, got, 1)

	// Вне высоты мира
	assert.False(t, wm.SetBlock(vec.Vec3{Y: MaxY}, block.StoneBlockID))
	assert.Equal(t, block.AirBlockID, wm.BlockAt(vec.Vec3{Y: MinY - 1}))
}

func TestWorldManager_StoragePersistsEdits(t *testing.T) {
	store := newMockStore()
	wm := NewWorldManager(1)
	wm.SetStorage(store)

	pos := vec.Vec3{X: 4, Y: 250, Z: 4}
	wm.SetBlock(pos, block.SnowBlockBlockID)
	wm.UnloadChunk(pos.Chunk())
	assert.False(t, wm.IsChunkLoaded(pos.Chunk()))

	// Новый менеджер с тем же хранилищем видит правку
	wm2 := NewWorldManager(1)
	wm2.SetStorage(store)
	assert.Equal(t, block.SnowBlockBlockID, wm2.BlockAt(pos))
	assert.False(t, wm2.GetChunk(pos.Chunk()).HasChanges())
}

func TestWorldManager_WorldView(t *testing.T) {
	wm := NewWorldManager(5)
	assert.Equal(t, MinY, wm.BottomY())
	assert.Equal(t, SeaLevel, wm.SeaLevel())

	_, ok := wm.BiomeBlendRadius()
	assert.False(t, ok)
	wm.SetBiomeBlendRadius(3)
	r, ok := wm.BiomeBlendRadius()
	assert.True(t, ok)
	assert.Equal(t, 3, r)

	biome := wm.BiomeAt(10, 10)
	assert.Equal(t, biome.Info().GrassColor, wm.GrassColor(10, 10))
	assert.Equal(t, biome.Info().WaterColor, wm.WaterColor(10, 10))

	// Биом колонки не зависит от того, загружен ли чанк
	wm.GetChunk(vec.Vec2{})
	assert.Equal(t, wm.generator.BiomeAt(3, 3), wm.BiomeAt(3, 3))
}

// recordingBus реализует eventbus.EventBus и запоминает опубликованные события
type recordingBus struct {
	mu     sync.Mutex
	events []*eventbus.Envelope
}

func (b *recordingBus) Publish(ctx context.Context, ev *eventbus.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, f eventbus.Filter, h eventbus.Handler) (eventbus.Subscription, error) {
	return nil, nil
}

func (b *recordingBus) Metrics() eventbus.Stats { return eventbus.Stats{} }

func (b *recordingBus) signals(eventType string) []eventbus.ChunkSignal {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []eventbus.ChunkSignal
	for _, ev := range b.events {
		if ev.EventType != eventType {
			continue
		}
		var sig eventbus.ChunkSignal
		_ = eventbus.DecodePayload(ev, &sig)
		out = append(out, sig)
	}
	return out
}

func TestWantedChunks_SortedByManhattan(t *testing.T) {
	center := vec.Vec2{X: 2, Y: -1}
	wanted := WantedChunks(center, 2)

	require.Len(t, wanted, 25)
	assert.Equal(t, center, wanted[0])
	for i := 1; i < len(wanted); i++ {
		assert.LessOrEqual(t, wanted[i-1].ManhattanTo(center), wanted[i].ManhattanTo(center))
	}
}

func TestStreamer_LoadUnloadDeltas(t *testing.T) {
	wm := NewWorldManager(3)
	bus := &recordingBus{}
	s := NewStreamer(wm, bus, 1)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, vec.Vec3{X: 8, Y: 70, Z: 8}))
	assert.Len(t, bus.signals(eventbus.EventChunkLoad), 9)
	assert.Equal(t, 9, s.Loaded())
	assert.True(t, wm.IsChunkLoaded(vec.Vec2{X: 1, Y: 1}))

	// Та же позиция: новых сигналов нет
	require.NoError(t, s.Update(ctx, vec.Vec3{X: 9, Y: 70, Z: 9}))
	assert.Len(t, bus.signals(eventbus.EventChunkLoad), 9)

	// Шаг на чанк восточнее: +3 / -3
	require.NoError(t, s.Update(ctx, vec.Vec3{X: 24, Y: 70, Z: 8}))
	assert.Len(t, bus.signals(eventbus.EventChunkLoad), 12)
	unloads := bus.signals(eventbus.EventChunkUnload)
	require.Len(t, unloads, 3)
	for _, sig := range unloads {
		assert.Equal(t, -1, sig.X)
		assert.Equal(t, s.Token(), sig.World)
	}
	assert.False(t, wm.IsChunkLoaded(vec.Vec2{X: -1, Y: 0}))
}

func TestStreamer_ResetChangesToken(t *testing.T) {
	wm := NewWorldManager(3)
	bus := &recordingBus{}
	s := NewStreamer(wm, bus, 0)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, vec.Vec3{}))
	old := s.Token()

	require.NoError(t, s.Reset(ctx))
	assert.NotEqual(t, old, s.Token())
	assert.Equal(t, 0, s.Loaded())

	unloads := bus.signals(eventbus.EventChunkUnload)
	require.Len(t, unloads, 1)
	assert.Equal(t, old, unloads[0].World)
}

type recordingBinder struct {
	tokens []string
}

func (r *recordingBinder) SetWorld(token string) { r.tokens = append(r.tokens, token) }

func TestStreamer_BindReportsSessionTokens(t *testing.T) {
	wm := NewWorldManager(3)
	s := NewStreamer(wm, &recordingBus{}, 0)
	binder := &recordingBinder{}

	s.Bind(binder)
	require.Equal(t, []string{s.Token()}, binder.tokens)

	require.NoError(t, s.Update(context.Background(), vec.Vec3{}))
	require.NoError(t, s.Reset(context.Background()))
	require.Len(t, binder.tokens, 2)
	assert.Equal(t, s.Token(), binder.tokens[1])
	assert.NotEqual(t, binder.tokens[0], binder.tokens[1])
}
