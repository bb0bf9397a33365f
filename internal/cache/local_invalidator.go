package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-map/internal/logging"
)

// LocalInvalidator доставляет инвалидации подписчикам того же процесса.
// Используется, когда NATS не настроен.
type LocalInvalidator struct {
	dedupe *deduper

	mu       sync.RWMutex
	handlers []InvalidationHandler
	closed   bool

	published int64
	errors    int64
}

// NewLocalInvalidator создаёт in-process инвалидатор
func NewLocalInvalidator(dedupeWindow time.Duration) *LocalInvalidator {
	return &LocalInvalidator{dedupe: newDeduper(dedupeWindow)}
}

// PublishInvalidation синхронно вызывает всех подписчиков
func (l *LocalInvalidator) PublishInvalidation(ctx context.Context, key string) error {
	l.mu.RLock()
	closed := l.closed
	handlers := append([]InvalidationHandler(nil), l.handlers...)
	l.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if !l.dedupe.admit(key) {
		logging.Debug("Skipping duplicate invalidation for key: %s", key)
		return nil
	}

	atomic.AddInt64(&l.published, 1)
	for _, h := range handlers {
		if err := h(key); err != nil {
			atomic.AddInt64(&l.errors, 1)
			logging.Error("Invalidation handler failed for key %s: %v", key, err)
		}
	}
	return nil
}

// SubscribeInvalidations добавляет обработчик; отписка при отмене ctx не поддерживается
func (l *LocalInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.handlers = append(l.handlers, handler)
	return nil
}

// Close отключает всех подписчиков
func (l *LocalInvalidator) Close() error {
	l.mu.Lock()
	l.closed = true
	l.handlers = nil
	l.mu.Unlock()
	return nil
}

// Stats возвращает счётчики
func (l *LocalInvalidator) Stats() Stats {
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	return Stats{
		Published: atomic.LoadInt64(&l.published),
		Errors:    atomic.LoadInt64(&l.errors),
		Connected: !closed,
	}
}
