package selector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts book probes. A nil *Metrics records nothing.
type Metrics struct {
	probes  prometheus.Counter
	hits    prometheus.Counter
	misses  prometheus.Counter
	ignored prometheus.Counter
	illegal prometheus.Counter
}

// NewMetrics registers the selector counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	auto := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: "openbook",
			Subsystem: "selector",
			Name:      name,
			Help:      help,
		})
	}
	return &Metrics{
		probes:  counter("probes_total", "Book probes issued."),
		hits:    counter("hits_total", "Probes that returned a book move."),
		misses:  counter("misses_total", "Probes that returned no move."),
		ignored: counter("ignored_total", "Probes skipped by the ignore rate."),
		illegal: counter("illegal_moves_total", "Book moves rejected as illegal."),
	}
}

func (m *Metrics) probe() {
	if m != nil {
		m.probes.Inc()
	}
}

func (m *Metrics) result(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.hits.Inc()
	} else {
		m.misses.Inc()
	}
}

func (m *Metrics) ignore() {
	if m != nil {
		m.ignored.Inc()
	}
}

func (m *Metrics) illegalMove() {
	if m != nil {
		m.illegal.Inc()
	}
}
