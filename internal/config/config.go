package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации карты.
// Значения по умолчанию задаёт Default(); YAML-файл перекрывает только указанные поля.
type Config struct {
	Render    RenderConfig    `yaml:"render"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	World     WorldConfig     `yaml:"world"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RenderConfig настройки затенения тайлов
type RenderConfig struct {
	// Размер текстуры чанка в пикселях; кратен 16 (16..128)
	TextureResolution int `yaml:"texture_resolution"`

	HeightExaggeration float64 `yaml:"height_exaggeration"` // 0.6–2.0 типично
	MicroStepShading   bool    `yaml:"micro_step_shading"`
	ContoursEnabled    bool    `yaml:"contours_enabled"`
	ContourStep        int     `yaml:"contour_step"`

	WaterDepthStrength    float64 `yaml:"water_depth_strength"`    // 0–2
	CanopyPatternStrength float64 `yaml:"canopy_pattern_strength"` // 0–2, 0 отключает

	// -1 = радиус смешивания биомов от мира; 0..7 = явное значение
	BiomeBlendOverride int `yaml:"biome_blend_override"`

	// shaded | vanilla
	Mode string `yaml:"mode"`
}

// ScannerConfig настройки кеша тайлов и координатора
type ScannerConfig struct {
	MaxCachedChunks int  `yaml:"max_cached_chunks"`
	DisposeDistance int  `yaml:"dispose_distance"`
	DisposeOnEvict  bool `yaml:"dispose_on_evict"`
	BuildOnLoad     bool `yaml:"build_on_load"` // строить растр сразу при загрузке, а не при первой отрисовке
	PrewarmWorkers  int  `yaml:"prewarm_workers"`
}

// WorldConfig настройки генерируемого мира-хоста
type WorldConfig struct {
	Seed       int64  `yaml:"seed"`
	DataPath   string `yaml:"data_path"`
	ViewRadius int    `yaml:"view_radius"`
	TickMillis int    `yaml:"tick_ms"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто: in-memory шина
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

// CacheConfig настройки распределённой инвалидации тайлов
type CacheConfig struct {
	NATSURL      string        `yaml:"nats_url"` // пусто: инвалидация только локально
	Subject      string        `yaml:"subject"`
	DedupeWindow time.Duration `yaml:"dedupe_window"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// ViewerConfig настройки миникарты
type ViewerConfig struct {
	MinimapSize        int `yaml:"minimap_size"`
	RenderRadius       int `yaml:"render_radius"`
	RefreshEveryFrames int `yaml:"refresh_every_frames"`
	MaxFPS             int `yaml:"max_fps"`
}

type LoggingConfig struct {
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`

	// Components переопределяет уровень отдельных компонентов: scanner, render, world, api
	Components map[string]string `yaml:"components"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			TextureResolution:     64,
			HeightExaggeration:    1.25,
			MicroStepShading:      true,
			ContoursEnabled:       true,
			ContourStep:           8,
			WaterDepthStrength:    1.0,
			CanopyPatternStrength: 1.0,
			BiomeBlendOverride:    -1,
			Mode:                  "shaded",
		},
		Scanner: ScannerConfig{
			MaxCachedChunks: 1000,
			DisposeDistance: 10,
			DisposeOnEvict:  true,
			PrewarmWorkers:  4,
		},
		World: WorldConfig{
			Seed:       12345,
			DataPath:   "data",
			ViewRadius: 6,
			TickMillis: 50,
		},
		EventBus: EventBusConfig{
			Stream:    "MAP_EVENTS",
			Retention: 1,
			Buffer:    4096,
		},
		Cache: CacheConfig{
			Subject:      "map.tiles.invalidate",
			DedupeWindow: 2 * time.Second,
		},
		Viewer: ViewerConfig{
			MinimapSize:        128,
			RenderRadius:       4,
			RefreshEveryFrames: 5,
			MaxFPS:             20,
		},
		Logging: LoggingConfig{
			ConsoleLevel: "info",
			FileLevel:    "debug",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxel-map",
		},
	}
}

// BlockPixels возвращает размер блока в пикселях текстуры
func (r *RenderConfig) BlockPixels() int {
	return r.TextureResolution / 16
}

// Validate проверяет значения и приводит «мягкие» параметры к допустимым диапазонам
func (c *Config) Validate() error {
	r := &c.Render
	if r.TextureResolution < 16 || r.TextureResolution > 128 || r.TextureResolution%16 != 0 {
		return fmt.Errorf("render.texture_resolution must be a multiple of 16 in [16,128], got %d", r.TextureResolution)
	}
	if r.ContourStep <= 0 {
		return fmt.Errorf("render.contour_step must be positive, got %d", r.ContourStep)
	}
	if r.Mode != "shaded" && r.Mode != "vanilla" {
		return fmt.Errorf("render.mode must be shaded or vanilla, got %q", r.Mode)
	}
	r.HeightExaggeration = clampFloat(r.HeightExaggeration, 0, 4)
	r.WaterDepthStrength = clampFloat(r.WaterDepthStrength, 0, 2)
	r.CanopyPatternStrength = clampFloat(r.CanopyPatternStrength, 0, 2)
	if r.BiomeBlendOverride < -1 {
		r.BiomeBlendOverride = -1
	}
	if r.BiomeBlendOverride > 7 {
		r.BiomeBlendOverride = 7
	}

	if c.Scanner.MaxCachedChunks <= 0 {
		return fmt.Errorf("scanner.max_cached_chunks must be positive, got %d", c.Scanner.MaxCachedChunks)
	}
	if c.Scanner.DisposeDistance < 0 {
		return fmt.Errorf("scanner.dispose_distance must not be negative, got %d", c.Scanner.DisposeDistance)
	}
	if c.Scanner.PrewarmWorkers <= 0 {
		c.Scanner.PrewarmWorkers = 1
	}
	if c.World.ViewRadius <= 0 {
		c.World.ViewRadius = 1
	}
	if c.World.TickMillis <= 0 {
		c.World.TickMillis = 50
	}
	if c.Viewer.RefreshEveryFrames <= 0 {
		c.Viewer.RefreshEveryFrames = 1
	}
	return nil
}

// GetRESTPort возвращает REST порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "MAP_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "MAP_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV MAP_CONFIG; без файла возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MAP_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
