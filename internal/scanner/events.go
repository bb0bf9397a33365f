package scanner

import (
	"context"
	"fmt"

	"github.com/annel0/voxel-map/internal/eventbus"
	"github.com/annel0/voxel-map/internal/logging"
	"github.com/annel0/voxel-map/internal/vec"
)

// Subscribe подключает координатор к шине событий: ChunkLoad, ChunkUnload,
// PlayerMove и TileInvalidate. Возвращённая подписка снимается вызывающим.
func (s *ChunkScanner) Subscribe(ctx context.Context, bus eventbus.EventBus) (eventbus.Subscription, error) {
	filter := eventbus.Filter{Types: []string{
		eventbus.EventChunkLoad,
		eventbus.EventChunkUnload,
		eventbus.EventPlayerMove,
		eventbus.EventTileInvalidate,
	}}
	sub, err := bus.Subscribe(ctx, filter, s.handleEnvelope)
	if err != nil {
		return nil, fmt.Errorf("subscribe scanner: %w", err)
	}
	return sub, nil
}

func (s *ChunkScanner) handleEnvelope(_ context.Context, ev *eventbus.Envelope) {
	log := logging.GetScannerLogger()

	switch ev.EventType {
	case eventbus.EventPlayerMove:
		var p eventbus.PlayerPosition
		if err := eventbus.DecodePayload(ev, &p); err != nil {
			log.Warn("Некорректное событие %s: %v", ev.EventType, err)
			return
		}
		if token, ok := s.Token(); ok && token != p.World {
			return
		}
		s.UpdatePlayerPosition(vec.Vec3{X: p.X, Y: p.Y, Z: p.Z})

	case eventbus.EventChunkLoad, eventbus.EventChunkUnload, eventbus.EventTileInvalidate:
		var sig eventbus.ChunkSignal
		if err := eventbus.DecodePayload(ev, &sig); err != nil {
			log.Warn("Некорректное событие %s: %v", ev.EventType, err)
			return
		}
		coord := vec.Vec2{X: sig.X, Y: sig.Z}
		switch ev.EventType {
		case eventbus.EventChunkLoad:
			// ошибка уже залогирована, тайл вернётся в Unseen
			_ = s.OnChunkLoad(sig.World, coord)
		case eventbus.EventChunkUnload:
			s.OnChunkUnload(sig.World, coord)
		default:
			s.InvalidateTile(coord)
		}
	}
}
