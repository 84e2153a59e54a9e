package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sarchlab/cachesim/sim"
)

var (
	counterDesc = prometheus.NewDesc(
		"cachesim_component_counter",
		"Statistics counter reported by a simulated component.",
		[]string{"component", "counter"}, nil,
	)

	cycleDesc = prometheus.NewDesc(
		"cachesim_engine_cycle",
		"Number of cycles the engine has completed.",
		nil, nil,
	)
)

// counterCollector exports the counters of the registered components at
// scrape time.
type counterCollector struct {
	monitor *Monitor
}

func (c *counterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- counterDesc
	ch <- cycleDesc
}

func (c *counterCollector) Collect(ch chan<- prometheus.Metric) {
	if c.monitor.engine != nil {
		ch <- prometheus.MustNewConstMetric(cycleDesc, prometheus.CounterValue,
			float64(c.monitor.engine.CurrentCycle()))
	}

	for _, comp := range c.monitor.components {
		provider, ok := comp.(sim.CounterProvider)
		if !ok {
			continue
		}

		for _, counter := range provider.Counters() {
			ch <- prometheus.MustNewConstMetric(
				counterDesc, prometheus.CounterValue,
				float64(counter.Value), comp.Name(), counter.Name)
		}
	}
}
