package mapdata

import (
	"container/list"
	"sync"

	"github.com/annel0/voxel-map/internal/vec"
)

// DefaultMaxEntries ёмкость кеша тайлов по умолчанию
const DefaultMaxEntries = 1000

// EvictFunc вызывается для каждой вытесненной записи вне блокировки хранилища
type EvictFunc func(coord vec.Vec2, entry *ChunkData)

type storeItem struct {
	coord vec.Vec2
	entry *ChunkData
}

// MapData ограниченное хранилище записей тайлов с вытеснением по LRU.
// Один мьютекс охраняет карту и порядок вместе.
type MapData struct {
	mu         sync.Mutex
	maxEntries int
	items      map[vec.Vec2]*list.Element
	order      *list.List // front: самый старый, back: самый свежий

	onEvict EvictFunc
	metrics *Metrics
}

// NewMapData создаёт хранилище; maxEntries <= 0 означает DefaultMaxEntries
func NewMapData(maxEntries int) *MapData {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MapData{
		maxEntries: maxEntries,
		items:      make(map[vec.Vec2]*list.Element),
		order:      list.New(),
	}
}

// SetOnEvict устанавливает обработчик вытеснения
func (m *MapData) SetOnEvict(fn EvictFunc) {
	m.mu.Lock()
	m.onEvict = fn
	m.mu.Unlock()
}

// SetMetrics подключает метрики Prometheus
func (m *MapData) SetMetrics(metrics *Metrics) {
	m.mu.Lock()
	m.metrics = metrics
	m.mu.Unlock()
}

// MaxEntries ёмкость хранилища
func (m *MapData) MaxEntries() int {
	return m.maxEntries
}

// Put вставляет или заменяет запись и делает её самой свежей.
// При переполнении вытесняет самые старые записи.
func (m *MapData) Put(coord vec.Vec2, entry *ChunkData) {
	m.mu.Lock()
	if el, ok := m.items[coord]; ok {
		el.Value.(*storeItem).entry = entry
		m.order.MoveToBack(el)
	} else {
		m.items[coord] = m.order.PushBack(&storeItem{coord: coord, entry: entry})
	}

	var evicted []*storeItem
	for m.order.Len() > m.maxEntries {
		oldest := m.order.Front()
		item := oldest.Value.(*storeItem)
		m.order.Remove(oldest)
		delete(m.items, item.coord)
		evicted = append(evicted, item)
	}
	onEvict := m.onEvict
	m.metrics.evicted(len(evicted))
	m.metrics.setCached(m.order.Len())
	m.mu.Unlock()

	if onEvict != nil {
		for _, item := range evicted {
			onEvict(item.coord, item.entry)
		}
	}
}

// Get возвращает запись и отмечает её как использованную
func (m *MapData) Get(coord vec.Vec2) (*ChunkData, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.items[coord]
	m.metrics.lookup(ok)
	if !ok {
		return nil, false
	}
	m.order.MoveToBack(el)
	return el.Value.(*storeItem).entry, true
}

// Peek возвращает запись, не меняя порядок вытеснения
func (m *MapData) Peek(coord vec.Vec2) (*ChunkData, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[coord]; ok {
		return el.Value.(*storeItem).entry, true
	}
	return nil, false
}

// Contains проверяет наличие записи без изменения порядка
func (m *MapData) Contains(coord vec.Vec2) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[coord]
	return ok
}

// Count количество записей
func (m *MapData) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Clear удаляет все записи без вызова обработчика вытеснения
func (m *MapData) Clear() {
	m.mu.Lock()
	m.items = make(map[vec.Vec2]*list.Element)
	m.order.Init()
	m.metrics.setCached(0)
	m.mu.Unlock()
}

// Keys координаты от самой старой к самой свежей
func (m *MapData) Keys() []vec.Vec2 {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]vec.Vec2, 0, m.order.Len())
	for el := m.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*storeItem).coord)
	}
	return keys
}

// Range перебирает снимок записей от старой к свежей; порядок LRU не меняется.
// fn вызывается вне блокировки; false прекращает перебор.
func (m *MapData) Range(fn func(coord vec.Vec2, entry *ChunkData) bool) {
	m.mu.Lock()
	snapshot := make([]storeItem, 0, m.order.Len())
	for el := m.order.Front(); el != nil; el = el.Next() {
		snapshot = append(snapshot, *el.Value.(*storeItem))
	}
	m.mu.Unlock()

	for _, item := range snapshot {
		if !fn(item.coord, item.entry) {
			return
		}
	}
}
