package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-map/internal/config"
	"github.com/annel0/voxel-map/internal/logging"
	"github.com/nats-io/nats.go"
)

// NATSInvalidator рассылает инвалидации тайлов между узлами через NATS Pub/Sub.
//
// Особенности:
// - Автоматическое переподключение при сбоях
// - Дедупликация ключей в пределах окна
// - Собственные сообщения узла игнорируются
type NATSInvalidator struct {
	conn    *nats.Conn
	config  InvalidatorConfig
	nodeID  string
	dedupe  *deduper
	stopped chan struct{}
	wg      sync.WaitGroup

	subMu        sync.Mutex
	subscription *nats.Subscription
	handler      InvalidationHandler

	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// InvalidatorConfig содержит конфигурацию NATS invalidator.
type InvalidatorConfig struct {
	NATSURL       string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
	DedupeWindow  time.Duration
}

// InvalidatorConfigFrom строит конфигурацию из секции cache
func InvalidatorConfigFrom(c config.CacheConfig) InvalidatorConfig {
	return InvalidatorConfig{
		NATSURL:      c.NATSURL,
		Subject:      c.Subject,
		DedupeWindow: c.DedupeWindow,
	}
}

// InvalidationMessage сообщение об инвалидации тайла.
type InvalidationMessage struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
	Reason    string    `json:"reason,omitempty"`
}

// NewNATSInvalidator подключается к NATS.
// nodeID отличает собственные сообщения узла от чужих.
func NewNATSInvalidator(cfg InvalidatorConfig, nodeID string) (*NATSInvalidator, error) {
	if cfg.Subject == "" {
		cfg.Subject = "map.tiles.invalidate"
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.DedupeWindow == 0 {
		cfg.DedupeWindow = 2 * time.Second
	}

	opts := []nats.Option{
		nats.Name("voxel-map-" + nodeID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n := &NATSInvalidator{
		conn:    conn,
		config:  cfg,
		nodeID:  nodeID,
		dedupe:  newDeduper(cfg.DedupeWindow),
		stopped: make(chan struct{}),
	}
	n.startDedupeCleanup()

	logging.Info("NATS invalidator initialized: %s (subject: %s)", cfg.NATSURL, cfg.Subject)
	return n, nil
}

// PublishInvalidation отправляет уведомление об инвалидации ключа.
func (n *NATSInvalidator) PublishInvalidation(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !n.dedupe.admit(key) {
		logging.Debug("Skipping duplicate invalidation for key: %s", key)
		return nil
	}

	data, err := json.Marshal(&InvalidationMessage{
		Key:       key,
		Timestamp: time.Now().UTC(),
		NodeID:    n.nodeID,
		Reason:    "tile_changed",
	})
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}

	if err := n.conn.Publish(n.config.Subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}

	atomic.AddInt64(&n.publishedCount, 1)
	logging.Debug("Published invalidation for key: %s", key)
	return nil
}

// SubscribeInvalidations подписывается на уведомления других узлов.
func (n *NATSInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	if n.subscription != nil {
		return fmt.Errorf("already subscribed to invalidations")
	}

	n.handler = handler
	sub, err := n.conn.Subscribe(n.config.Subject, n.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}
	n.subscription = sub

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		select {
		case <-ctx.Done():
		case <-n.stopped:
		}
		n.unsubscribe()
	}()

	logging.Info("Subscribed to tile invalidations on subject: %s", n.config.Subject)
	return nil
}

// Close отписывается и закрывает соединение.
func (n *NATSInvalidator) Close() error {
	select {
	case <-n.stopped:
		return nil
	default:
		close(n.stopped)
	}
	n.wg.Wait()
	n.conn.Close()
	logging.Info("NATS invalidator closed")
	return nil
}

// Stats возвращает счётчики invalidator.
func (n *NATSInvalidator) Stats() Stats {
	return Stats{
		Published: atomic.LoadInt64(&n.publishedCount),
		Received:  atomic.LoadInt64(&n.receivedCount),
		Errors:    atomic.LoadInt64(&n.errorsCount),
		Connected: n.conn.IsConnected(),
	}
}

func (n *NATSInvalidator) handleMessage(msg *nats.Msg) {
	atomic.AddInt64(&n.receivedCount, 1)

	var m InvalidationMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		logging.Error("Failed to unmarshal invalidation message: %v", err)
		return
	}
	if m.NodeID == n.nodeID {
		return
	}
	if !n.dedupe.admit(m.Key) {
		logging.Debug("Ignoring duplicate invalidation for key: %s", m.Key)
		return
	}

	n.subMu.Lock()
	handler := n.handler
	n.subMu.Unlock()
	if handler == nil {
		return
	}
	if err := handler(m.Key); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		logging.Error("Invalidation handler failed for key %s: %v", m.Key, err)
	}
}

func (n *NATSInvalidator) unsubscribe() {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	if n.subscription == nil {
		return
	}
	if err := n.subscription.Unsubscribe(); err != nil {
		logging.Error("Failed to unsubscribe from invalidations: %v", err)
	}
	n.subscription = nil
}

func (n *NATSInvalidator) startDedupeCleanup() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ticker := time.NewTicker(n.config.DedupeWindow)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				remaining := n.dedupe.sweep()
				logging.Trace("Dedupe cleanup completed, %d keys remaining", remaining)
			case <-n.stopped:
				return
			}
		}
	}()
}
