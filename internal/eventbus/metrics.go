package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector отдаёт счётчики шины Prometheus в момент сбора метрик.
// Шина сама ведёт Stats, поэтому фонового опроса нет.
type Collector struct {
	bus EventBus

	published *prometheus.Desc
	consumed  *prometheus.Desc
	dropped   *prometheus.Desc
	inflight  *prometheus.Desc
}

// NewCollector создаёт коллектор метрик шины с пространством имён voxelmap_eventbus
func NewCollector(bus EventBus) *Collector {
	name := func(n string) string { return prometheus.BuildFQName("voxelmap", "eventbus", n) }
	return &Collector{
		bus:       bus,
		published: prometheus.NewDesc(name("messages_published_total"), "Общее число опубликованных сообщений.", nil, nil),
		consumed:  prometheus.NewDesc(name("messages_consumed_total"), "Общее число доставленных сообщений подписчикам.", nil, nil),
		dropped:   prometheus.NewDesc(name("messages_dropped_total"), "Сообщений, отброшенных из-за ошибок или back-pressure.", nil, nil),
		inflight:  prometheus.NewDesc(name("messages_inflight"), "Сообщений в очередях подписчиков.", nil, nil),
	}
}

// Register регистрирует коллектор; reg == nil: глобальный регистр
func (c *Collector) Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return reg.Register(c)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.published
	ch <- c.consumed
	ch <- c.dropped
	ch <- c.inflight
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.bus.Metrics()
	ch <- prometheus.MustNewConstMetric(c.published, prometheus.CounterValue, float64(stats.Published))
	ch <- prometheus.MustNewConstMetric(c.consumed, prometheus.CounterValue, float64(stats.Consumed))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(stats.Dropped))
	ch <- prometheus.MustNewConstMetric(c.inflight, prometheus.GaugeValue, float64(stats.InFlight))
}
