package mapdata

import (
	"sync"
	"testing"

	"github.com/annel0/voxel-map/internal/vec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tileA = vec.Vec2{X: 0, Y: 0}
	tileB = vec.Vec2{X: 1, Y: 0}
	tileC = vec.Vec2{X: 2, Y: 0}
	tileD = vec.Vec2{X: 3, Y: 0}
)

func newEntry(coord vec.Vec2) *ChunkData {
	return NewChunkData(coord, newTestBuilder(newRecordingTextures()))
}

func TestMapData_EvictsOldest(t *testing.T) {
	m := NewMapData(2)
	m.Put(tileA, newEntry(tileA))
	m.Put(tileB, newEntry(tileB))
	m.Put(tileC, newEntry(tileC))

	assert.Equal(t, 2, m.Count())
	assert.False(t, m.Contains(tileA))
	assert.Equal(t, []vec.Vec2{tileB, tileC}, m.Keys())
}

func TestMapData_GetTouches(t *testing.T) {
	m := NewMapData(2)
	m.Put(tileA, newEntry(tileA))
	m.Put(tileB, newEntry(tileB))
	m.Put(tileC, newEntry(tileC))

	_, ok := m.Get(tileB)
	require.True(t, ok)
	m.Put(tileD, newEntry(tileD))

	assert.ElementsMatch(t, []vec.Vec2{tileB, tileD}, m.Keys())
	assert.False(t, m.Contains(tileC))
}

func TestMapData_ReplaceKeepsSingleEntry(t *testing.T) {
	m := NewMapData(3)
	first := newEntry(tileA)
	second := newEntry(tileA)
	m.Put(tileA, first)
	m.Put(tileB, newEntry(tileB))
	m.Put(tileA, second)

	assert.Equal(t, 2, m.Count())
	got, ok := m.Get(tileA)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, []vec.Vec2{tileB, tileA}, m.Keys())
}

func TestMapData_RangeAndPeekDoNotTouch(t *testing.T) {
	m := NewMapData(2)
	m.Put(tileA, newEntry(tileA))
	m.Put(tileB, newEntry(tileB))

	var seen []vec.Vec2
	m.Range(func(coord vec.Vec2, entry *ChunkData) bool {
		seen = append(seen, coord)
		assert.Equal(t, coord, entry.Coord())
		return true
	})
	assert.Equal(t, []vec.Vec2{tileA, tileB}, seen)

	_, ok := m.Peek(tileA)
	require.True(t, ok)
	m.Put(tileC, newEntry(tileC))
	assert.False(t, m.Contains(tileA), "Range/Peek не должны продлевать жизнь записи")

	var count int
	m.Range(func(vec.Vec2, *ChunkData) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestMapData_OnEvict(t *testing.T) {
	m := NewMapData(1)
	var evicted []vec.Vec2
	m.SetOnEvict(func(coord vec.Vec2, entry *ChunkData) {
		// обработчик вызывается вне блокировки
		assert.Equal(t, 1, m.Count())
		evicted = append(evicted, coord)
	})

	m.Put(tileA, newEntry(tileA))
	m.Put(tileB, newEntry(tileB))
	m.Put(tileC, newEntry(tileC))
	assert.Equal(t, []vec.Vec2{tileA, tileB}, evicted)

	m.Clear()
	assert.Equal(t, 0, m.Count())
	assert.Len(t, evicted, 2, "Clear не вызывает обработчик")
}

func TestMapData_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultMaxEntries, NewMapData(0).MaxEntries())
}

func TestMapData_ConcurrentPutNeverExceedsCapacity(t *testing.T) {
	m := NewMapData(50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				coord := vec.Vec2{X: g, Y: i}
				m.Put(coord, newEntry(coord))
				m.Get(vec.Vec2{X: g, Y: i / 2})
				assert.LessOrEqual(t, m.Count(), 50)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 50, m.Count())
	assert.Len(t, m.Keys(), 50)
}

func TestMapData_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	m := NewMapData(1)
	m.SetMetrics(metrics)
	m.Put(tileA, newEntry(tileA))
	m.Put(tileB, newEntry(tileB))
	m.Get(tileB)
	m.Get(tileA)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cached))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.evictions))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.misses))
}
