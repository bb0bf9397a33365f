package render

import "github.com/annel0/voxel-map/internal/config"

// Mode режим окраски тайлов
type Mode string

const (
	ModeShaded  Mode = "shaded"
	ModeVanilla Mode = "vanilla"
)

// Options параметры растеризации тайла
type Options struct {
	BlockPx int // пикселей на блок; тайл: 16*BlockPx

	HeightExaggeration    float64
	MicroStepShading      bool
	ContoursEnabled       bool
	ContourStep           int
	WaterDepthStrength    float64
	CanopyPatternStrength float64

	Sample SampleOptions
	Mode   Mode
}

// DefaultOptions возвращает параметры по умолчанию (64 px на тайл)
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Render)
}

// OptionsFromConfig переводит секцию render конфигурации в параметры растеризатора
func OptionsFromConfig(cfg config.RenderConfig) Options {
	opts := Options{
		BlockPx:               cfg.BlockPixels(),
		HeightExaggeration:    cfg.HeightExaggeration,
		MicroStepShading:      cfg.MicroStepShading,
		ContoursEnabled:       cfg.ContoursEnabled,
		ContourStep:           cfg.ContourStep,
		WaterDepthStrength:    cfg.WaterDepthStrength,
		CanopyPatternStrength: cfg.CanopyPatternStrength,
		Sample:                SampleOptions{BlendRadius: cfg.BiomeBlendOverride},
		Mode:                  Mode(cfg.Mode),
	}
	if opts.BlockPx <= 0 {
		opts.BlockPx = 4
	}
	if opts.ContourStep <= 0 {
		opts.ContourStep = 8
	}
	if opts.Mode != ModeVanilla {
		opts.Mode = ModeShaded
	}
	return opts
}

// TileSize размер стороны тайла в пикселях
func (o Options) TileSize() int {
	return 16 * o.BlockPx
}
