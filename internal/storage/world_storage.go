package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/voxel-map/internal/logging"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/world"
	"github.com/annel0/voxel-map/internal/world/block"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// ErrNotReady возвращается при обращении к закрытому хранилищу
var ErrNotReady = errors.New("хранилище не готово")

// WorldStorage хранит правки блоков поверх генерации мира.
// Значения: JSON дельты чанков, сжатые zstd.
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	enc     *zstd.Encoder
	dec     *zstd.Decoder
	mutex   sync.RWMutex
	isReady bool
}

// ChunkDelta содержит изменения в чанке
type ChunkDelta struct {
	Coords      vec.Vec2                 `json:"coords"`
	BlockDeltas map[string]block.BlockID `json:"blocks"` // Ключ - упакованные координаты "x:y:z"
}

// NewWorldStorage создает новое хранилище мира
func NewWorldStorage(dataPath string) (*WorldStorage, error) {
	dbPath := filepath.Join(dataPath, "world")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &WorldStorage{
		db:      db,
		dbPath:  dbPath,
		enc:     enc,
		dec:     dec,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.dec.Close()
	_ = ws.enc.Close()
	return ws.db.Close()
}

func chunkKey(coords vec.Vec2) []byte {
	return []byte(fmt.Sprintf("chunk:%d:%d", coords.X, coords.Y))
}

func blockKey(pos vec.Vec3) string {
	return fmt.Sprintf("%d:%d:%d", pos.X, pos.Y, pos.Z)
}

// SaveChunk объединяет несохранённые правки чанка с уже сохранённой дельтой
func (ws *WorldStorage) SaveChunk(chunk *world.Chunk) error {
	changes := chunk.ChangedBlocks()
	if len(changes) == 0 {
		return nil
	}

	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return ErrNotReady
	}

	delta, err := ws.loadLocked(chunk.Coords)
	if err != nil {
		return err
	}
	for pos, id := range changes {
		delta.BlockDeltas[blockKey(pos)] = id
	}

	data, err := json.Marshal(delta)
	if err != nil {
		return fmt.Errorf("ошибка сериализации дельты: %w", err)
	}

	err = ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(chunk.Coords), ws.enc.EncodeAll(data, nil))
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	// Очищаем список изменений в чанке
	chunk.ClearChanges()
	return nil
}

// LoadChunk загружает дельту чанка; отсутствующий чанк даёт пустую дельту
func (ws *WorldStorage) LoadChunk(coords vec.Vec2) (*ChunkDelta, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, ErrNotReady
	}
	return ws.loadLocked(coords)
}

func (ws *WorldStorage) loadLocked(coords vec.Vec2) (*ChunkDelta, error) {
	var data []byte

	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(coords))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data, err = ws.dec.DecodeAll(val, nil)
			return err
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return &ChunkDelta{
			Coords:      coords,
			BlockDeltas: make(map[string]block.BlockID),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	var delta ChunkDelta
	if err := json.Unmarshal(data, &delta); err != nil {
		return nil, fmt.Errorf("ошибка десериализации дельты: %w", err)
	}
	if delta.BlockDeltas == nil {
		delta.BlockDeltas = make(map[string]block.BlockID)
	}
	return &delta, nil
}

// ApplyDeltaToChunk применяет дельту к свежесгенерированному чанку.
// Применённые правки не считаются новыми изменениями.
func (ws *WorldStorage) ApplyDeltaToChunk(chunk *world.Chunk, delta *ChunkDelta) error {
	if delta == nil || len(delta.BlockDeltas) == 0 {
		return nil
	}

	for key, id := range delta.BlockDeltas {
		var x, y, z int
		if _, err := fmt.Sscanf(key, "%d:%d:%d", &x, &y, &z); err != nil {
			logging.Warn("Ошибка парсинга ключа '%s': %v", key, err)
			continue
		}

		// Проверяем корректность координат
		if x < 0 || x >= world.ChunkSize || z < 0 || z >= world.ChunkSize || y < world.MinY || y >= world.MaxY {
			logging.Warn("Некорректные координаты: %d,%d,%d", x, y, z)
			continue
		}

		chunk.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, id)
	}

	chunk.ClearChanges()
	return nil
}

// LoadAndApplyChunk загружает и применяет дельту чанка
func (ws *WorldStorage) LoadAndApplyChunk(chunk *world.Chunk) error {
	delta, err := ws.LoadChunk(chunk.Coords)
	if err != nil {
		return err
	}

	return ws.ApplyDeltaToChunk(chunk, delta)
}

var _ world.ChunkStore = (*WorldStorage)(nil)
