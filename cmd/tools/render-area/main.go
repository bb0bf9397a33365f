package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/annel0/voxel-map/internal/config"
	"github.com/annel0/voxel-map/internal/mapdata"
	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/scanner"
	"github.com/annel0/voxel-map/internal/storage"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/viewer"
	"github.com/annel0/voxel-map/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config path (default $MAP_CONFIG)")
		from       = flag.String("from", "-4,-4", "First tile: x,z")
		to         = flag.String("to", "3,3", "Last tile (inclusive): x,z")
		out        = flag.String("out", "area.png", "Output PNG file")
		seed       = flag.Int64("seed", 0, "World seed (0 = from config)")
		mode       = flag.String("mode", "", "Render mode: shaded | vanilla (default from config)")
		workers    = flag.Int("workers", 0, "Parallel tile builds (0 = scanner.prewarm_workers)")
		withEdits  = flag.Bool("edits", false, "Apply block edits stored under world.data_path")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	if *mode != "" {
		cfg.Render.Mode = *mode
	}
	if *workers > 0 {
		cfg.Scanner.PrewarmWorkers = *workers
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid config: %v", err)
	}

	lo, err := parseTile(*from)
	if err != nil {
		log.Fatalf("❌ -from: %v", err)
	}
	hi, err := parseTile(*to)
	if err != nil {
		log.Fatalf("❌ -to: %v", err)
	}
	coords := tileRange(lo, hi)

	wm := world.NewWorldManager(cfg.World.Seed)
	if *withEdits {
		store, err := storage.NewWorldStorage(cfg.World.DataPath)
		if err != nil {
			log.Fatalf("❌ Failed to open world storage: %v", err)
		}
		defer store.Close()
		wm.SetStorage(store)
	}

	opts := render.OptionsFromConfig(cfg.Render)
	builder := &mapdata.Builder{
		Rasterizer: render.NewRasterizer(opts),
		Textures:   mapdata.NewImageTextureManager(),
	}
	// ёмкость с запасом: вытеснение во время сборки недопустимо
	tiles := mapdata.NewMapData(len(coords) + 1)
	sc := scanner.New(wm, tiles, scanner.BuilderFactory(builder), scanner.OptionsFromConfig(cfg.Scanner))

	started := time.Now()
	if err := sc.Prewarm(context.Background(), coords); err != nil {
		log.Fatalf("❌ Prewarm failed: %v", err)
	}
	img := viewer.ComposeArea(sc, lo, hi, opts.BlockPx)

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("❌ Failed to create %s: %v", *out, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		log.Fatalf("❌ Failed to encode PNG: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("❌ Failed to write %s: %v", *out, err)
	}

	fmt.Printf("✅ %d tiles (%dx%d px) → %s in %s\n",
		tiles.Count(), img.Bounds().Dx(), img.Bounds().Dy(), *out, time.Since(started).Round(time.Millisecond))
}

// parseTile разбирает "x,z"
func parseTile(s string) (vec.Vec2, error) {
	xs, zs, ok := strings.Cut(s, ",")
	if !ok {
		return vec.Vec2{}, fmt.Errorf("expected x,z, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("bad x in %q: %w", s, err)
	}
	z, err := strconv.Atoi(strings.TrimSpace(zs))
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("bad z in %q: %w", s, err)
	}
	return vec.Vec2{X: x, Y: z}, nil
}

func tileRange(lo, hi vec.Vec2) []vec.Vec2 {
	if hi.X < lo.X {
		lo.X, hi.X = hi.X, lo.X
	}
	if hi.Y < lo.Y {
		lo.Y, hi.Y = hi.Y, lo.Y
	}
	coords := make([]vec.Vec2, 0, (hi.X-lo.X+1)*(hi.Y-lo.Y+1))
	for z := lo.Y; z <= hi.Y; z++ {
		for x := lo.X; x <= hi.X; x++ {
			coords = append(coords, vec.Vec2{X: x, Y: z})
		}
	}
	return coords
}
