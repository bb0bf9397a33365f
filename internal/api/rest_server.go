package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-map/internal/cache"
	"github.com/annel0/voxel-map/internal/eventbus"
	"github.com/annel0/voxel-map/internal/logging"
	"github.com/annel0/voxel-map/internal/mapdata"
	"github.com/annel0/voxel-map/internal/middleware"
	"github.com/annel0/voxel-map/internal/scanner"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/viewer"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	maxMinimapRadius = 16
	maxMinimapSize   = 1024
)

// RestServer REST API карты
type RestServer struct {
	router      *gin.Engine
	httpServer  *http.Server
	scanner     *scanner.ChunkScanner
	textures    *mapdata.ImageTextureManager
	minimap     *viewer.Minimap
	invalidator cache.CacheInvalidator
	bus         eventbus.EventBus
	feed        *TileFeed
	metrics     *ServerMetrics
}

// Config содержит зависимости REST сервера
type Config struct {
	Port        string // ":8088"
	Scanner     *scanner.ChunkScanner
	Textures    *mapdata.ImageTextureManager
	Minimap     *viewer.Minimap
	Invalidator cache.CacheInvalidator // nil: инвалидация только локально
	Bus         eventbus.EventBus      // nil: без статистики шины и live-ленты
	Feed        *TileFeed              // nil: /api/ws не регистрируется

	Registerer prometheus.Registerer // nil: дефолтный регистр
	Gatherer   prometheus.Gatherer
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel-map"))
	router.Use(middleware.NewRequestLogger(logging.GetAPILogger()).Handler())

	promMw := middleware.NewPrometheusMiddleware("voxelmap", config.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	rs := &RestServer{
		router:      router,
		scanner:     config.Scanner,
		textures:    config.Textures,
		minimap:     config.Minimap,
		invalidator: config.Invalidator,
		bus:         config.Bus,
		feed:        config.Feed,
		metrics:     NewServerMetrics(),
	}
	rs.httpServer = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/tiles/:x/:z", rs.handleTile)
		api.POST("/tiles/:x/:z/invalidate", rs.handleInvalidate)
		api.GET("/minimap", rs.handleMinimap)
		if rs.feed != nil {
			api.GET("/ws", gin.WrapF(rs.feed.Handler()))
		}
	}
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleStats возвращает статистику кеша тайлов и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	store := rs.scanner.GetMapData()
	tiles := gin.H{
		"cached":   store.Count(),
		"capacity": store.MaxEntries(),
		"textures": rs.textures.Count(),
	}
	if tile, ok := rs.scanner.PlayerTile(); ok {
		tiles["player_tile"] = gin.H{"x": tile.X, "z": tile.Y}
	}
	if token, ok := rs.scanner.Token(); ok {
		tiles["world"] = token
	}

	stats := gin.H{
		"tiles":  tiles,
		"server": rs.metrics.Snapshot(),
	}
	if rs.bus != nil {
		stats["eventbus"] = rs.bus.Metrics()
	}
	if rs.feed != nil {
		stats["feed"] = gin.H{"clients": rs.feed.Clients(), "dropped": rs.feed.Dropped()}
	}
	if s, ok := rs.invalidator.(interface{ Stats() cache.Stats }); ok {
		stats["invalidation"] = s.Stats()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleTile отдаёт PNG тайла, при необходимости перестраивая его
func (rs *RestServer) handleTile(c *gin.Context) {
	coord, ok := tileParams(c)
	if !ok {
		return
	}

	entry, found := rs.scanner.GetChunkData(coord)
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{Message: fmt.Sprintf("Тайл %d,%d не загружен", coord.X, coord.Y)})
		return
	}
	id, ready := entry.EnsureBuilt(rs.scanner.World())
	if !ready {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Message: mapdata.ErrNotReady.Error()})
		return
	}

	var buf bytes.Buffer
	if err := rs.textures.EncodePNG(id, &buf); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, mapdata.ErrNotReady) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, GenericResponse{Message: err.Error()})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// handleInvalidate помечает тайл устаревшим и рассылает инвалидацию
func (rs *RestServer) handleInvalidate(c *gin.Context) {
	coord, ok := tileParams(c)
	if !ok {
		return
	}

	invalidated := rs.scanner.InvalidateTile(coord)
	if rs.bus != nil {
		token, _ := rs.scanner.Token()
		ev, err := eventbus.NewEnvelope(eventbus.EventTileInvalidate, "api", eventbus.PriorityChunkSignal,
			eventbus.ChunkSignal{X: coord.X, Z: coord.Y, World: token})
		if err == nil {
			err = rs.bus.Publish(c.Request.Context(), ev)
		}
		if err != nil {
			logging.GetAPILogger().Warn("Событие инвалидации %v не опубликовано: %v", coord, err)
		}
	}
	if rs.invalidator != nil {
		if err := rs.invalidator.PublishInvalidation(c.Request.Context(), cache.TileKey(coord)); err != nil {
			logging.GetAPILogger().Warn("Не удалось разослать инвалидацию %v: %v", coord, err)
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Тайл инвалидирован",
		Data:    gin.H{"invalidated": invalidated, "key": cache.TileKey(coord)},
	})
}

// handleMinimap отдаёт PNG миникарты вокруг точки (по умолчанию вокруг игрока)
func (rs *RestServer) handleMinimap(c *gin.Context) {
	center := vec.Vec3{}
	if tile, ok := rs.scanner.PlayerTile(); ok {
		start := tile.ChunkStart()
		center = vec.Vec3{X: start.X + 8, Z: start.Y + 8}
	}

	var err error
	if center.X, err = intQuery(c, "x", center.X); err != nil {
		badRequest(c, err)
		return
	}
	if center.Z, err = intQuery(c, "z", center.Z); err != nil {
		badRequest(c, err)
		return
	}
	radius, err := intQuery(c, "radius", 2)
	if err != nil || radius < 0 || radius > maxMinimapRadius {
		badRequest(c, fmt.Errorf("radius must be in [0,%d]", maxMinimapRadius))
		return
	}
	size, err := intQuery(c, "size", 256)
	if err != nil || size < 16 || size > maxMinimapSize {
		badRequest(c, fmt.Errorf("size must be in [16,%d]", maxMinimapSize))
		return
	}

	img := rs.minimap.Render(center, radius, size)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Message: err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func tileParams(c *gin.Context) (vec.Vec2, bool) {
	x, errX := strconv.Atoi(c.Param("x"))
	z, errZ := strconv.Atoi(c.Param("z"))
	if errX != nil || errZ != nil {
		badRequest(c, fmt.Errorf("tile coordinates must be integers"))
		return vec.Vec2{}, false
	}
	return vec.Vec2{X: x, Y: z}, true
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, GenericResponse{Message: err.Error()})
}

// Start запускает REST сервер; блокирует до Stop
func (rs *RestServer) Start() error {
	logging.Info("🌐 REST API слушает %s", rs.httpServer.Addr)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop корректно останавливает сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpServer.Shutdown(ctx)
}
