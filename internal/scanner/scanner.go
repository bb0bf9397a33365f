package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/annel0/voxel-map/internal/cache"
	"github.com/annel0/voxel-map/internal/config"
	"github.com/annel0/voxel-map/internal/logging"
	"github.com/annel0/voxel-map/internal/mapdata"
	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/vec"
)

// ErrBuildFailed оборачивает любую ошибку создания записи тайла
var ErrBuildFailed = errors.New("tile build failed")

// maxRetiredTokens сколько токенов завершённых сессий помнит координатор
const maxRetiredTokens = 32

// EntryFactory создаёт запись кеша для тайла
type EntryFactory func(coord vec.Vec2) (*mapdata.ChunkData, error)

// Options параметры координатора
type Options struct {
	DisposeDistance int  // манхэттенское расстояние в тайлах
	DisposeOnEvict  bool // освобождать текстуру при вытеснении из хранилища
	BuildOnLoad     bool
	PrewarmWorkers  int
}

// OptionsFromConfig переносит секцию scanner в Options
func OptionsFromConfig(c config.ScannerConfig) Options {
	return Options{
		DisposeDistance: c.DisposeDistance,
		DisposeOnEvict:  c.DisposeOnEvict,
		BuildOnLoad:     c.BuildOnLoad,
		PrewarmWorkers:  c.PrewarmWorkers,
	}
}

// ChunkScanner координирует жизненный цикл тайлов по сигналам мира.
//
// Гарантирует не более одного создания записи на координату, игнорирует
// сигналы чужого мира и освобождает текстуры тайлов, выгруженных далеко от
// игрока. Все методы безопасны для вызова из разных горутин.
type ChunkScanner struct {
	world    render.WorldView
	store    *mapdata.MapData
	newEntry EntryFactory
	opts     Options
	metrics  *Metrics

	mu         sync.Mutex
	generation uint64
	loading    map[vec.Vec2]uint64 // координата → поколение мира, начавшее загрузку
	token      string
	hasToken   bool
	retired    []string // токены сессий, завершённых Cleanup или SetWorld
	player     vec.Vec2
	hasPlayer  bool
}

// New создаёт координатор поверх хранилища.
// При DisposeOnEvict устанавливает обработчик вытеснения хранилища.
func New(world render.WorldView, store *mapdata.MapData, factory EntryFactory, opts Options) *ChunkScanner {
	if opts.PrewarmWorkers <= 0 {
		opts.PrewarmWorkers = 1
	}
	s := &ChunkScanner{
		world:    world,
		store:    store,
		newEntry: factory,
		opts:     opts,
		loading:  make(map[vec.Vec2]uint64),
	}
	if opts.DisposeOnEvict {
		store.SetOnEvict(func(coord vec.Vec2, entry *mapdata.ChunkData) {
			entry.Dispose()
			logging.GetScannerLogger().Trace("Тайл %v вытеснен и освобождён", coord)
		})
	}
	return s
}

// BuilderFactory фабрика записей поверх общего Builder
func BuilderFactory(b *mapdata.Builder) EntryFactory {
	return func(coord vec.Vec2) (*mapdata.ChunkData, error) {
		return mapdata.NewChunkData(coord, b), nil
	}
}

// SetMetrics подключает метрики
func (s *ChunkScanner) SetMetrics(m *Metrics) {
	s.mu.Lock()
	s.metrics = m
	s.mu.Unlock()
}

// OnChunkLoad обрабатывает загрузку тайла миром. Повторные и параллельные
// сигналы для одной координаты идемпотентны. Ошибка создания оставляет тайл
// в состоянии Unseen, следующий сигнал повторит попытку.
func (s *ChunkScanner) OnChunkLoad(token string, coord vec.Vec2) error {
	gen, ok := s.acceptToken(token)
	if !ok {
		return nil
	}
	return s.load(gen, coord)
}

func (s *ChunkScanner) load(gen uint64, coord vec.Vec2) error {
	if s.store.Contains(coord) {
		return nil
	}

	s.mu.Lock()
	if _, busy := s.loading[coord]; busy {
		s.mu.Unlock()
		return nil
	}
	s.loading[coord] = gen
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.loading[coord] == gen {
			delete(s.loading, coord)
		}
		s.mu.Unlock()
	}()

	// загрузка могла завершиться между проверкой и резервированием
	if s.store.Contains(coord) {
		return nil
	}

	entry, err := s.createEntry(coord)
	if err != nil {
		s.metrics.failed()
		logging.GetScannerLogger().Error("Не удалось создать тайл %v: %v", coord, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// мир сменился во время загрузки
		entry.Dispose()
		return nil
	}
	s.store.Put(coord, entry)
	s.metrics.loaded()
	logging.GetScannerLogger().Trace("Тайл %v добавлен в кеш (%d всего)", coord, s.store.Count())
	return nil
}

func (s *ChunkScanner) createEntry(coord vec.Vec2) (entry *mapdata.ChunkData, err error) {
	defer func() {
		if r := recover(); r != nil {
			entry = nil
			err = fmt.Errorf("%w: tile %v: panic: %v", ErrBuildFailed, coord, r)
		}
	}()

	entry, err = s.newEntry(coord)
	if err != nil {
		return nil, fmt.Errorf("%w: tile %v: %v", ErrBuildFailed, coord, err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: tile %v: nil entry", ErrBuildFailed, coord)
	}
	if s.opts.BuildOnLoad {
		if err := entry.Build(context.Background(), s.world); err != nil {
			entry.Dispose()
			return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
		}
	}
	return entry, nil
}

// OnChunkUnload освобождает текстуру тайла, если он дальше порога от игрока.
// Запись остаётся в хранилище до вытеснения.
func (s *ChunkScanner) OnChunkUnload(token string, coord vec.Vec2) {
	if _, ok := s.acceptToken(token); !ok {
		return
	}

	s.mu.Lock()
	player, hasPlayer := s.player, s.hasPlayer
	s.mu.Unlock()
	if !hasPlayer || coord.ManhattanTo(player) <= s.opts.DisposeDistance {
		return
	}

	if entry, ok := s.store.Peek(coord); ok {
		entry.Dispose()
		s.metrics.disposed()
		logging.GetScannerLogger().Trace("Тайл %v выгружен и освобождён", coord)
	}
}

// UpdatePlayerPosition запоминает тайл игрока для порога освобождения
func (s *ChunkScanner) UpdatePlayerPosition(pos vec.Vec3) {
	s.mu.Lock()
	s.player = pos.Chunk()
	s.hasPlayer = true
	s.mu.Unlock()
}

// PlayerTile последний известный тайл игрока
func (s *ChunkScanner) PlayerTile() (vec.Vec2, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player, s.hasPlayer
}

// GetChunkData возвращает запись тайла и отмечает её как использованную
func (s *ChunkScanner) GetChunkData(coord vec.Vec2) (*mapdata.ChunkData, bool) {
	return s.store.Get(coord)
}

// GetMapData хранилище записей
func (s *ChunkScanner) GetMapData() *mapdata.MapData {
	return s.store
}

// World мир, из которого строятся тайлы
func (s *ChunkScanner) World() render.WorldView {
	return s.world
}

// State стадия тайла
func (s *ChunkScanner) State(coord vec.Vec2) State {
	s.mu.Lock()
	_, loading := s.loading[coord]
	s.mu.Unlock()
	if loading {
		return StateLoading
	}
	entry, ok := s.store.Peek(coord)
	switch {
	case !ok:
		return StateUnseen
	case entry.Disposed():
		return StateDisposed
	default:
		return StateCached
	}
}

// Token активный токен мира
func (s *ChunkScanner) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.hasToken
}

// Cleanup освобождает все записи и сбрасывает состояние при отключении от мира.
// Токен завершённой сессии больше не принимается; следующий сигнал с другим
// токеном становится активным.
func (s *ChunkScanner) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.disposeAllLocked()
}

// SetWorld привязывает координатор к сессии мира хоста. Смена токена
// равносильна Cleanup с немедленной установкой нового активного токена,
// поэтому запоздавшие сигналы старой сессии игнорируются.
func (s *ChunkScanner) SetWorld(token string) {
	s.mu.Lock()
	if s.hasToken && s.token == token {
		s.mu.Unlock()
		return
	}
	defer s.mu.Unlock()
	if s.hasToken {
		s.resetLocked()
		s.disposeAllLocked()
	}
	s.forgetRetiredLocked(token)
	s.token = token
	s.hasToken = true
	logging.GetScannerLogger().Info("🌍 Активный мир: %s", token)
}

// resetLocked начинает новое поколение и списывает активный токен; вызывается под mu
func (s *ChunkScanner) resetLocked() {
	s.generation++
	s.loading = make(map[vec.Vec2]uint64)
	if s.hasToken {
		s.retired = append(s.retired, s.token)
		if len(s.retired) > maxRetiredTokens {
			s.retired = s.retired[len(s.retired)-maxRetiredTokens:]
		}
	}
	s.hasToken = false
	s.token = ""
	s.hasPlayer = false
}

func (s *ChunkScanner) forgetRetiredLocked(token string) {
	for i, t := range s.retired {
		if t == token {
			s.retired = append(s.retired[:i], s.retired[i+1:]...)
			return
		}
	}
}

func (s *ChunkScanner) isRetiredLocked(token string) bool {
	for _, t := range s.retired {
		if t == token {
			return true
		}
	}
	return false
}

// disposeAllLocked под mu: загрузки кладут записи в хранилище тоже под mu,
// поэтому новая запись не попадёт между освобождением и Clear.
func (s *ChunkScanner) disposeAllLocked() {
	disposed := 0
	s.store.Range(func(_ vec.Vec2, entry *mapdata.ChunkData) bool {
		entry.Dispose()
		disposed++
		return true
	})
	s.store.Clear()
	logging.GetScannerLogger().Info("🧹 Кеш тайлов очищен (%d записей)", disposed)
}

// InvalidateTile помечает тайл устаревшим; false, если его нет в кеше
func (s *ChunkScanner) InvalidateTile(coord vec.Vec2) bool {
	entry, ok := s.store.Peek(coord)
	if !ok {
		return false
	}
	entry.Invalidate()
	return true
}

// HandleInvalidation обработчик ключей tile:<x>:<z> от CacheInvalidator
func (s *ChunkScanner) HandleInvalidation(key string) error {
	coord, err := cache.ParseTileKey(key)
	if err != nil {
		return err
	}
	if s.InvalidateTile(coord) {
		logging.GetScannerLogger().Debug("Тайл %v инвалидирован по ключу %s", coord, key)
	}
	return nil
}

// Prewarm создаёт и строит тайлы параллельно, не более PrewarmWorkers сразу.
// Ошибки отдельных тайлов логируются; возвращается только ошибка контекста.
func (s *ChunkScanner) Prewarm(ctx context.Context, coords []vec.Vec2) error {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.PrewarmWorkers)
	for _, coord := range coords {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.load(gen, coord); err != nil {
				return nil
			}
			if entry, ok := s.store.Peek(coord); ok && !entry.Ready() {
				if err := entry.Build(gctx, s.world); err != nil {
					logging.GetScannerLogger().Warn("Прогрев тайла %v: %v", coord, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// acceptToken отбрасывает сигналы завершённых сессий и чужого мира.
// Если хост не задал мир через SetWorld, активным становится первый
// незавершённый токен после создания или Cleanup.
func (s *ChunkScanner) acceptToken(token string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRetiredLocked(token) {
		s.metrics.ignore("retired")
		return s.generation, false
	}
	if !s.hasToken {
		s.token = token
		s.hasToken = true
		logging.GetScannerLogger().Info("🌍 Активный мир: %s", token)
	}
	if token != s.token {
		s.metrics.ignore("token")
		return s.generation, false
	}
	return s.generation, true
}
