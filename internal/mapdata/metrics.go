package mapdata

import "github.com/prometheus/client_golang/prometheus"

// Metrics Prometheus-метрики кеша тайлов. Nil-значение допустимо и ничего не пишет.
type Metrics struct {
	cached       prometheus.Gauge
	evictions    prometheus.Counter
	hits         prometheus.Counter
	misses       prometheus.Counter
	builds       prometheus.Counter
	buildSeconds prometheus.Histogram
}

// NewMetrics создаёт и регистрирует метрики; reg == nil: глобальный регистр
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		cached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelmap",
			Subsystem: "tiles",
			Name:      "cached",
			Help:      "Количество тайлов в кеше.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelmap",
			Subsystem: "tiles",
			Name:      "evictions_total",
			Help:      "Тайлы, вытесненные по LRU.",
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelmap",
			Subsystem: "tiles",
			Name:      "hits_total",
			Help:      "Попадания в кеш тайлов.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelmap",
			Subsystem: "tiles",
			Name:      "misses_total",
			Help:      "Промахи кеша тайлов.",
		}),
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelmap",
			Subsystem: "tiles",
			Name:      "builds_total",
			Help:      "Построенные растры тайлов.",
		}),
		buildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelmap",
			Subsystem: "tiles",
			Name:      "build_seconds",
			Help:      "Время построения растра тайла.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
	}
	reg.MustRegister(m.cached, m.evictions, m.hits, m.misses, m.builds, m.buildSeconds)
	return m
}

func (m *Metrics) setCached(n int) {
	if m != nil {
		m.cached.Set(float64(n))
	}
}

func (m *Metrics) evicted(n int) {
	if m != nil && n > 0 {
		m.evictions.Add(float64(n))
	}
}

func (m *Metrics) lookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.hits.Inc()
	} else {
		m.misses.Inc()
	}
}

func (m *Metrics) built(seconds float64) {
	if m != nil {
		m.builds.Inc()
		m.buildSeconds.Observe(seconds)
	}
}
