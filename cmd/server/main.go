package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/voxel-map/internal/api"
	"github.com/annel0/voxel-map/internal/cache"
	"github.com/annel0/voxel-map/internal/config"
	"github.com/annel0/voxel-map/internal/eventbus"
	"github.com/annel0/voxel-map/internal/logging"
	"github.com/annel0/voxel-map/internal/mapdata"
	"github.com/annel0/voxel-map/internal/observability"
	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/scanner"
	"github.com/annel0/voxel-map/internal/storage"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/viewer"
	"github.com/annel0/voxel-map/internal/world"
	"github.com/annel0/voxel-map/internal/world/block"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $MAP_CONFIG)")
	flag.Parse()

	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	applyLogLevels(cfg.Logging)

	logging.Info("🗺️ Запуск voxel-map (seed=%d, mode=%s, %dpx/тайл)", cfg.World.Seed, cfg.Render.Mode, cfg.Render.TextureResolution)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Warn("OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === МИР ===
	wm := world.NewWorldManager(cfg.World.Seed)
	store, err := storage.NewWorldStorage(cfg.World.DataPath)
	if err != nil {
		log.Fatalf("❌ Ошибка открытия хранилища мира: %v", err)
	}
	wm.SetStorage(store)
	wm.Run(ctx)

	// === ШИНА СОБЫТИЙ ===
	bus, closeBus, err := newEventBus(cfg.EventBus)
	if err != nil {
		log.Fatalf("❌ Ошибка подключения шины событий: %v", err)
	}
	logSub, err := eventbus.StartLoggingListener(ctx, bus, nil)
	if err != nil {
		log.Fatalf("❌ Ошибка подписки LoggingListener: %v", err)
	}
	if err := eventbus.NewCollector(bus).Register(nil); err != nil {
		logging.Warn("Метрики шины не зарегистрированы: %v", err)
	}

	// === КЕШ ТАЙЛОВ ===
	renderOpts := render.OptionsFromConfig(cfg.Render)
	textures := mapdata.NewImageTextureManager()
	tiles := mapdata.NewMapData(cfg.Scanner.MaxCachedChunks)
	tileMetrics := mapdata.NewMetrics(nil)
	tiles.SetMetrics(tileMetrics)
	builder := &mapdata.Builder{
		Rasterizer: render.NewRasterizer(renderOpts),
		Textures:   textures,
		Metrics:    tileMetrics,
	}

	sc := scanner.New(wm, tiles, scanner.BuilderFactory(builder), scanner.OptionsFromConfig(cfg.Scanner))
	sc.SetMetrics(scanner.NewMetrics(nil))
	sub, err := sc.Subscribe(ctx, bus)
	if err != nil {
		log.Fatalf("❌ Ошибка подписки координатора: %v", err)
	}

	// === ИНВАЛИДАЦИЯ ===
	nodeID := uuid.NewString()
	invalidator, err := newInvalidator(cfg.Cache, nodeID)
	if err != nil {
		log.Fatalf("❌ Ошибка инициализации инвалидации: %v", err)
	}
	if err := invalidator.SubscribeInvalidations(ctx, sc.HandleInvalidation); err != nil {
		log.Fatalf("❌ Ошибка подписки на инвалидации: %v", err)
	}
	wm.OnBlockChanged(func(chunk vec.Vec2, pos vec.Vec3, id block.BlockID) {
		sc.InvalidateTile(chunk)
		if err := invalidator.PublishInvalidation(ctx, cache.TileKey(chunk)); err != nil {
			logging.Warn("Инвалидация тайла %v не разослана: %v", chunk, err)
		}
		token, _ := sc.Token()
		if ev, err := eventbus.NewEnvelope(eventbus.EventTileInvalidate, "world", eventbus.PriorityChunkSignal,
			eventbus.ChunkSignal{X: chunk.X, Z: chunk.Y, World: token}); err == nil {
			_ = bus.Publish(ctx, ev)
		}
	})

	// === ПРОСМОТР И REST ===
	minimap := viewer.NewMinimap(sc, renderOpts.BlockPx, cfg.Viewer)
	feed := api.NewTileFeed()
	feedSub, err := feed.Attach(ctx, bus)
	if err != nil {
		log.Fatalf("❌ Ошибка подписки live-ленты: %v", err)
	}
	restServer := api.NewRestServer(api.Config{
		Port:        fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Scanner:     sc,
		Textures:    textures,
		Minimap:     minimap,
		Invalidator: invalidator,
		Bus:         bus,
		Feed:        feed,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ Ошибка REST API: %v", err)
			cancel()
		}
	}()

	streamer := world.NewStreamer(wm, bus, cfg.World.ViewRadius)
	streamer.Bind(sc)
	go walk(ctx, streamer, minimap, cfg)

	restPort := cfg.Server.GetRESTPort()
	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost:%d", restPort)
	logging.Info("   🖼️  Миникарта: http://localhost:%d/api/minimap?radius=4&size=512", restPort)
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", restPort)
	logging.Info("   🔌 Live-лента тайлов: ws://localhost:%d/api/ws", restPort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
	case <-ctx.Done():
	}
	cancel()

	// === GRACEFUL SHUTDOWN ===
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	if err := restServer.Stop(stopCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	feedSub.Unsubscribe()
	sub.Unsubscribe()
	logSub.Unsubscribe()
	sc.Cleanup()
	if err := invalidator.Close(); err != nil {
		logging.Error("Ошибка закрытия инвалидатора: %v", err)
	}
	if err := closeBus(); err != nil {
		logging.Error("Ошибка закрытия шины: %v", err)
	}
	wm.Stop()
	if err := store.Close(); err != nil {
		logging.Error("Ошибка закрытия хранилища: %v", err)
	}
	if err := shutdownTelemetry(stopCtx); err != nil {
		logging.Error("Ошибка остановки телеметрии: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}

func applyLogLevels(cfg config.LoggingConfig) {
	console, err := logging.ParseLevel(cfg.ConsoleLevel)
	if err != nil {
		logging.Warn("logging.console_level: %v", err)
		return
	}
	file, err := logging.ParseLevel(cfg.FileLevel)
	if err != nil {
		logging.Warn("logging.file_level: %v", err)
		return
	}
	logging.SetDefaultLevels(console, file)
	if err := logging.GetLoggerManager().ApplyLevels(cfg.Components); err != nil {
		logging.Warn("%v", err)
	}
}

func newEventBus(cfg config.EventBusConfig) (eventbus.EventBus, func() error, error) {
	if cfg.URL == "" {
		bus := eventbus.NewMemoryBus(cfg.Buffer)
		logging.Info("🚌 Шина событий: in-memory (буфер %d)", cfg.Buffer)
		return bus, bus.Close, nil
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, nil, err
	}
	logging.Info("🚌 Шина событий: JetStream %s (stream %s)", cfg.URL, cfg.Stream)
	return bus, bus.Close, nil
}

func newInvalidator(cfg config.CacheConfig, nodeID string) (cache.CacheInvalidator, error) {
	if cfg.NATSURL == "" {
		return cache.NewLocalInvalidator(cfg.DedupeWindow), nil
	}
	return cache.NewNATSInvalidator(cache.InvalidatorConfigFrom(cfg), nodeID)
}

// walk двигает наблюдателя по спирали вокруг спавна; каждый тик обновляет
// набор чанков и собирает кадр миникарты.
func walk(ctx context.Context, streamer *world.Streamer, minimap *viewer.Minimap, cfg *config.Config) {
	ticker := time.NewTicker(time.Duration(cfg.World.TickMillis) * time.Millisecond)
	defer ticker.Stop()

	var t float64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		t += 0.01
		r := 64 + 32*t
		pos := vec.Vec3{
			X: int(math.Round(r * math.Cos(t))),
			Y: world.SeaLevel + 1,
			Z: int(math.Round(r * math.Sin(t))),
		}
		if err := streamer.Update(ctx, pos); err != nil {
			if ctx.Err() == nil {
				logging.Warn("Стример: %v", err)
			}
			continue
		}
		minimap.Compose(pos, cfg.Viewer.RenderRadius, cfg.Viewer.MinimapSize)
	}
}
