package scanner

import "github.com/prometheus/client_golang/prometheus"

// Metrics счётчики координатора. Nil-значение допустимо.
type Metrics struct {
	loads    prometheus.Counter
	failures prometheus.Counter
	disposes prometheus.Counter
	ignored  *prometheus.CounterVec
}

// NewMetrics создаёт и регистрирует метрики; reg == nil: глобальный регистр
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelmap",
			Subsystem: "scanner",
			Name:      "loads_total",
			Help:      "Тайлы, добавленные в кеш.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelmap",
			Subsystem: "scanner",
			Name:      "build_failures_total",
			Help:      "Неудачные создания записей тайлов.",
		}),
		disposes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelmap",
			Subsystem: "scanner",
			Name:      "disposes_total",
			Help:      "Освобождённые текстуры тайлов.",
		}),
		ignored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxelmap",
			Subsystem: "scanner",
			Name:      "ignored_signals_total",
			Help:      "Отброшенные сигналы загрузки/выгрузки.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.loads, m.failures, m.disposes, m.ignored)
	return m
}

func (m *Metrics) loaded() {
	if m != nil {
		m.loads.Inc()
	}
}

func (m *Metrics) failed() {
	if m != nil {
		m.failures.Inc()
	}
}

func (m *Metrics) disposed() {
	if m != nil {
		m.disposes.Inc()
	}
}

func (m *Metrics) ignore(reason string) {
	if m != nil {
		m.ignored.WithLabelValues(reason).Inc()
	}
}
