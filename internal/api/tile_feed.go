package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/annel0/voxel-map/internal/eventbus"
	"github.com/annel0/voxel-map/internal/logging"
)

// TileEvent сообщение live-ленты для браузерных клиентов
type TileEvent struct {
	Type  string `json:"type"` // ChunkLoad | ChunkUnload | TileInvalidate
	X     int    `json:"x"`
	Z     int    `json:"z"`
	World string `json:"world,omitempty"`
}

// TileFeed рассылает события тайлов подключённым WebSocket клиентам.
// Медленный клиент теряет сообщения, а не тормозит рассылку.
type TileFeed struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[uint64]chan []byte
	nextID  atomic.Uint64
	dropped atomic.Uint64
}

// NewTileFeed создаёт пустую ленту
func NewTileFeed() *TileFeed {
	return &TileFeed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[uint64]chan []byte),
	}
}

// Attach подписывает ленту на события тайлов шины
func (f *TileFeed) Attach(ctx context.Context, bus eventbus.EventBus) (eventbus.Subscription, error) {
	filter := eventbus.Filter{Types: []string{
		eventbus.EventChunkLoad,
		eventbus.EventChunkUnload,
		eventbus.EventTileInvalidate,
	}}
	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		var sig eventbus.ChunkSignal
		if err := eventbus.DecodePayload(ev, &sig); err != nil {
			return
		}
		f.Broadcast(TileEvent{Type: ev.EventType, X: sig.X, Z: sig.Z, World: sig.World})
	})
	if err != nil {
		return nil, fmt.Errorf("attach tile feed: %w", err)
	}
	return sub, nil
}

// Broadcast отправляет событие всем клиентам
func (f *TileFeed) Broadcast(ev TileEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, out := range f.clients {
		select {
		case out <- data:
		default:
			f.dropped.Add(1)
		}
	}
}

// Clients количество подключённых клиентов
func (f *TileFeed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Dropped сообщения, потерянные медленными клиентами
func (f *TileFeed) Dropped() uint64 {
	return f.dropped.Load()
}

// Handler апгрейдит соединение и пишет события, пока клиент не отключится
func (f *TileFeed) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := f.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id := f.nextID.Add(1)
		out := make(chan []byte, 256)
		f.mu.Lock()
		f.clients[id] = out
		f.mu.Unlock()
		defer func() {
			f.mu.Lock()
			delete(f.clients, id)
			f.mu.Unlock()
		}()
		logging.GetAPILogger().Debug("WS клиент %d подключён (%s)", id, r.RemoteAddr)

		// читатель нужен только для обнаружения закрытия
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case data := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
		}
	}
}
