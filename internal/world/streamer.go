package world

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/voxel-map/internal/eventbus"
	"github.com/annel0/voxel-map/internal/logging"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/google/uuid"
)

const streamerSource = "world-streamer"

// WorldBinder получает токен каждой новой сессии мира
type WorldBinder interface {
	SetWorld(token string)
}

// Streamer держит загруженным квадрат чанков вокруг наблюдателя и публикует
// ChunkLoad/ChunkUnload для каждого изменения набора.
type Streamer struct {
	world  *WorldManager
	bus    eventbus.EventBus
	radius int

	mu      sync.Mutex
	token   string
	loaded  map[vec.Vec2]struct{}
	binders []WorldBinder
}

// NewStreamer создаёт стример с новым токеном мира
func NewStreamer(world *WorldManager, bus eventbus.EventBus, radius int) *Streamer {
	if radius < 0 {
		radius = 0
	}
	return &Streamer{
		world:  world,
		bus:    bus,
		radius: radius,
		token:  uuid.NewString(),
		loaded: make(map[vec.Vec2]struct{}),
	}
}

// Token возвращает токен текущей сессии мира
func (s *Streamer) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Bind подписывает потребителя на смену сессии и сразу сообщает текущий токен
func (s *Streamer) Bind(b WorldBinder) {
	s.mu.Lock()
	s.binders = append(s.binders, b)
	token := s.token
	s.mu.Unlock()
	b.SetWorld(token)
}

// Loaded возвращает количество загруженных чанков
func (s *Streamer) Loaded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loaded)
}

// WantedChunks возвращает квадрат чанков радиуса radius вокруг center,
// ближние по Манхэттену первыми.
func WantedChunks(center vec.Vec2, radius int) []vec.Vec2 {
	result := make([]vec.Vec2, 0, (2*radius+1)*(2*radius+1))
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			result = append(result, vec.Vec2{X: center.X + dx, Y: center.Y + dz})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		di, dj := result[i].ManhattanTo(center), result[j].ManhattanTo(center)
		if di != dj {
			return di < dj
		}
		if result[i].Y != result[j].Y {
			return result[i].Y < result[j].Y
		}
		return result[i].X < result[j].X
	})
	return result
}

// Update пересчитывает набор чанков для позиции наблюдателя и рассылает сигналы
func (s *Streamer) Update(ctx context.Context, observer vec.Vec3) error {
	center := observer.Chunk()
	wanted := WantedChunks(center, s.radius)

	s.mu.Lock()
	token := s.token
	wantedSet := make(map[vec.Vec2]struct{}, len(wanted))
	var toLoad, toUnload []vec.Vec2
	for _, c := range wanted {
		wantedSet[c] = struct{}{}
		if _, ok := s.loaded[c]; !ok {
			toLoad = append(toLoad, c)
			s.loaded[c] = struct{}{}
		}
	}
	for c := range s.loaded {
		if _, ok := wantedSet[c]; !ok {
			toUnload = append(toUnload, c)
			delete(s.loaded, c)
		}
	}
	s.mu.Unlock()

	for _, c := range toLoad {
		s.world.GetChunk(c)
		if err := s.publish(ctx, eventbus.EventChunkLoad, c, token); err != nil {
			return err
		}
	}
	for _, c := range toUnload {
		if err := s.publish(ctx, eventbus.EventChunkUnload, c, token); err != nil {
			return err
		}
		s.world.UnloadChunk(c)
	}

	if len(toLoad) > 0 || len(toUnload) > 0 {
		logging.Debug("Стример: центр %v, +%d/-%d чанков", center, len(toLoad), len(toUnload))
	}

	ev, err := eventbus.NewEnvelope(eventbus.EventPlayerMove, streamerSource, eventbus.PriorityPlayerMove,
		eventbus.PlayerPosition{X: observer.X, Y: observer.Y, Z: observer.Z, World: token})
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, ev)
}

// Reset выгружает все чанки и начинает новую сессию мира с новым токеном.
// Привязанные потребители узнают новый токен до публикации выгрузок старой сессии.
func (s *Streamer) Reset(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	loaded := make([]vec.Vec2, 0, len(s.loaded))
	for c := range s.loaded {
		loaded = append(loaded, c)
	}
	s.loaded = make(map[vec.Vec2]struct{})
	s.token = uuid.NewString()
	next := s.token
	binders := append([]WorldBinder(nil), s.binders...)
	s.mu.Unlock()

	for _, b := range binders {
		b.SetWorld(next)
	}
	logging.GetWorldLogger().Info("🌍 Новая сессия мира: %s", next)

	for _, c := range loaded {
		if err := s.publish(ctx, eventbus.EventChunkUnload, c, token); err != nil {
			return err
		}
		s.world.UnloadChunk(c)
	}
	return nil
}

func (s *Streamer) publish(ctx context.Context, eventType string, c vec.Vec2, token string) error {
	ev, err := eventbus.NewEnvelope(eventType, streamerSource, eventbus.PriorityChunkSignal,
		eventbus.ChunkSignal{X: c.X, Z: c.Y, World: token})
	if err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		return fmt.Errorf("publish %s %v: %w", eventType, c, err)
	}
	return nil
}
