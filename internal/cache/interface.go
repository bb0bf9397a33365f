package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/annel0/voxel-map/internal/vec"
)

// CacheInvalidator рассылает и принимает уведомления об устаревших тайлах.
//
// Использование:
//
//	inv, _ := NewNATSInvalidator(cfg, nodeID)
//	_ = inv.SubscribeInvalidations(ctx, scanner.HandleInvalidation)
//	_ = inv.PublishInvalidation(ctx, TileKey(coord))
type CacheInvalidator interface {
	// PublishInvalidation отправляет уведомление об инвалидации.
	PublishInvalidation(ctx context.Context, key string) error

	// SubscribeInvalidations подписывается на уведомления об инвалидации.
	SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error

	// Close закрывает соединение.
	Close() error
}

// InvalidationHandler обрабатывает уведомления об инвалидации.
type InvalidationHandler func(key string) error

// Stats счётчики работы инвалидатора.
type Stats struct {
	Published int64 `json:"published"`
	Received  int64 `json:"received"`
	Errors    int64 `json:"errors"`
	Connected bool  `json:"connected"`
}

const tileKeyPrefix = "tile:"

// TileKey возвращает ключ инвалидации тайла в формате tile:<x>:<z>
func TileKey(coord vec.Vec2) string {
	return tileKeyPrefix + strconv.Itoa(coord.X) + ":" + strconv.Itoa(coord.Y)
}

// ParseTileKey разбирает ключ tile:<x>:<z>
func ParseTileKey(key string) (vec.Vec2, error) {
	rest, ok := strings.CutPrefix(key, tileKeyPrefix)
	if !ok {
		return vec.Vec2{}, fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	xs, zs, ok := strings.Cut(rest, ":")
	if !ok {
		return vec.Vec2{}, fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	x, errX := strconv.Atoi(xs)
	z, errZ := strconv.Atoi(zs)
	if err := errors.Join(errX, errZ); err != nil {
		return vec.Vec2{}, fmt.Errorf("%q: %w: %v", key, ErrInvalidKey, err)
	}
	return vec.Vec2{X: x, Y: z}, nil
}

// Ошибки кеша
var (
	ErrInvalidKey = NewCacheError("invalid key")
	ErrClosed     = NewCacheError("invalidator closed")
)

// CacheError представляет ошибку кеша.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

func NewCacheError(message string) *CacheError {
	return &CacheError{Message: message}
}
