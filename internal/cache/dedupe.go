package cache

import (
	"sync"
	"time"
)

// deduper подавляет повтор ключа в пределах окна
type deduper struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func newDeduper(window time.Duration) *deduper {
	return &deduper{
		window: window,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
}

// admit возвращает true и запоминает ключ, если он не встречался в окне
func (d *deduper) admit(key string) bool {
	if d.window <= 0 {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.window {
		return false
	}
	d.seen[key] = now
	return true
}

// sweep удаляет ключи старше окна и возвращает число оставшихся
func (d *deduper) sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for key, ts := range d.seen {
		if now.Sub(ts) > d.window {
			delete(d.seen, key)
		}
	}
	return len(d.seen)
}
