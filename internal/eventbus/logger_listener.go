package eventbus

import (
	"context"

	"github.com/annel0/voxel-map/internal/logging"
)

// StartLoggingListener подписывается на все события шины и пишет их в лог.
// Сигналы чанков раскрываются до координат, PlayerMove уходит в TRACE.
func StartLoggingListener(ctx context.Context, bus EventBus, log *logging.Logger) (Subscription, error) {
	if log == nil {
		log = logging.GetComponentLogger("eventbus")
	}

	sub, err := bus.Subscribe(ctx, Filter{}, func(_ context.Context, ev *Envelope) {
		switch ev.EventType {
		case EventChunkLoad, EventChunkUnload, EventTileInvalidate:
			var sig ChunkSignal
			if err := DecodePayload(ev, &sig); err != nil {
				log.Warn("[EventBus] %s %s: %v", ev.ID, ev.EventType, err)
				return
			}
			log.Debug("[EventBus] %s (%d,%d) world=%s src=%s", ev.EventType, sig.X, sig.Z, sig.World, ev.Source)
		case EventPlayerMove:
			if !log.Enabled(logging.TRACE) {
				return
			}
			var pos PlayerPosition
			if err := DecodePayload(ev, &pos); err == nil {
				log.Trace("[EventBus] PlayerMove (%d,%d,%d) world=%s", pos.X, pos.Y, pos.Z, pos.World)
			}
		default:
			log.Debug("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
		}
	})
	if err != nil {
		return nil, err
	}
	logging.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
