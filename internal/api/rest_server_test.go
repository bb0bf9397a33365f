package api

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/annel0/voxel-map/internal/cache"
	"github.com/annel0/voxel-map/internal/config"
	"github.com/annel0/voxel-map/internal/eventbus"
	"github.com/annel0/voxel-map/internal/mapdata"
	"github.com/annel0/voxel-map/internal/render"
	"github.com/annel0/voxel-map/internal/scanner"
	"github.com/annel0/voxel-map/internal/vec"
	"github.com/annel0/voxel-map/internal/viewer"
	"github.com/annel0/voxel-map/internal/world/block"
	"github.com/gorilla/websocket"
	_ "github.com/annel0/voxel-map/internal/world/block/implementations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clayWorld ровная глиняная равнина
type clayWorld struct{}

func (clayWorld) TopY(kind render.Heightmap, x, z int) int { return 60 }
func (clayWorld) BlockAt(pos vec.Vec3) block.BlockID {
	if pos.Y < 60 {
		return block.ClayBlockID
	}
	return block.AirBlockID
}
func (clayWorld) BottomY() int                  { return -64 }
func (clayWorld) SeaLevel() int                 { return 63 }
func (clayWorld) GrassColor(x, z int) int       { return 0x91BD59 }
func (clayWorld) FoliageColor(x, z int) int     { return 0x77AB2F }
func (clayWorld) WaterColor(x, z int) int       { return 0x3F76E4 }
func (clayWorld) BiomeBlendRadius() (int, bool) { return 0, false }

type testServer struct {
	rs      *RestServer
	scanner *scanner.ChunkScanner
	inv     *cache.LocalInvalidator
	feed    *TileFeed
	keys    []string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	opts := render.DefaultOptions()
	opts.BlockPx = 2
	textures := mapdata.NewImageTextureManager()
	builder := &mapdata.Builder{Rasterizer: render.NewRasterizer(opts), Textures: textures}
	sc := scanner.New(clayWorld{}, mapdata.NewMapData(16), scanner.BuilderFactory(builder),
		scanner.Options{DisposeDistance: 10, DisposeOnEvict: true})

	ts := &testServer{scanner: sc, inv: cache.NewLocalInvalidator(0)}
	require.NoError(t, ts.inv.SubscribeInvalidations(context.Background(), func(key string) error {
		ts.keys = append(ts.keys, key)
		return nil
	}))

	bus := eventbus.NewMemoryBus(8)
	t.Cleanup(func() { bus.Close() })
	ts.feed = NewTileFeed()
	_, err := ts.feed.Attach(context.Background(), bus)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	ts.rs = NewRestServer(Config{
		Scanner:     sc,
		Textures:    textures,
		Minimap:     viewer.NewMinimap(sc, opts.BlockPx, config.ViewerConfig{}),
		Invalidator: ts.inv,
		Bus:         bus,
		Feed:        ts.feed,
		Registerer:  reg,
		Gatherer:    reg,
	})
	return ts
}

func (ts *testServer) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.rs.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestTile_PNG(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.scanner.OnChunkLoad("w", vec.Vec2{X: -1, Y: 2}))

	w := ts.do(http.MethodGet, "/api/tiles/-1/2")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

func TestTile_Errors(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/tiles/5/5").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/tiles/a/5").Code)
}

func TestInvalidate(t *testing.T) {
	ts := newTestServer(t)
	coord := vec.Vec2{X: 3, Y: 4}
	require.NoError(t, ts.scanner.OnChunkLoad("w", coord))
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/tiles/3/4").Code)

	w := ts.do(http.MethodPost, "/api/tiles/3/4/invalidate")
	require.Equal(t, http.StatusOK, w.Code)

	var resp GenericResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, true, resp.Data.(map[string]interface{})["invalidated"])
	assert.Equal(t, []string{"tile:3:4"}, ts.keys)

	entry, ok := ts.scanner.GetMapData().Peek(coord)
	require.True(t, ok)
	assert.False(t, entry.Ready())
}

func TestMinimap(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.scanner.OnChunkLoad("w", vec.Vec2{}))
	ts.scanner.UpdatePlayerPosition(vec.Vec3{X: 8, Y: 64, Z: 8})

	w := ts.do(http.MethodGet, "/api/minimap?radius=1&size=96")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 96, img.Bounds().Dx())

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/minimap?radius=99").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/minimap?x=abc").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/minimap?size=2").Code)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.scanner.OnChunkLoad("world-1", vec.Vec2{}))
	ts.scanner.UpdatePlayerPosition(vec.Vec3{X: 20, Y: 64, Z: -3})

	w := ts.do(http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Tiles struct {
				Cached     int            `json:"cached"`
				Capacity   int            `json:"capacity"`
				World      string         `json:"world"`
				PlayerTile map[string]int `json:"player_tile"`
			} `json:"tiles"`
			Server       ProcessStats    `json:"server"`
			Invalidation cache.Stats     `json:"invalidation"`
			EventBus     json.RawMessage `json:"eventbus"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Tiles.Cached)
	assert.Equal(t, 16, body.Data.Tiles.Capacity)
	assert.Equal(t, "world-1", body.Data.Tiles.World)
	assert.Equal(t, map[string]int{"x": 1, "z": -1}, body.Data.Tiles.PlayerTile)
	assert.Greater(t, body.Data.Server.Goroutines, 0)
	assert.True(t, body.Data.Invalidation.Connected)
	assert.NotEmpty(t, body.Data.EventBus)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodGet, "/health")
	w := ts.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "voxelmap_http_request_duration_seconds")
}

func TestTileFeed_PushesInvalidation(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.rs.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return ts.feed.Clients() == 1 }, time.Second, 5*time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/tiles/7/-2/invalidate", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev TileEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, TileEvent{Type: "TileInvalidate", X: 7, Z: -2}, ev)

	conn.Close()
	assert.Eventually(t, func() bool { return ts.feed.Clients() == 0 }, time.Second, 5*time.Millisecond)
}
