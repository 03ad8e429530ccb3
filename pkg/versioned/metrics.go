package versioned

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	upsertTotal *prometheus.CounterVec
	touchTotal  *prometheus.CounterVec
	linkWrites  *prometheus.CounterVec
	deleteTotal *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		upsertTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versioned",
			Name:      "upsert_total",
			Help:      "Total number of guarded upserts by outcome.",
		}, []string{"kind", "outcome"}),
		touchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versioned",
			Name:      "touch_total",
			Help:      "Total number of rows whose version was bumped without a data change.",
		}, []string{"kind"}),
		linkWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versioned",
			Name:      "link_writes_total",
			Help:      "Total number of join rows inserted or deleted by reconciliation.",
		}, []string{"relation", "op"}),
		deleteTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "versioned",
			Name:      "delete_total",
			Help:      "Total number of deletes by result.",
		}, []string{"kind", "result"}),
	}
})

func (m *metrics) upsert(k *Kind, o Outcome) {
	m.upsertTotal.WithLabelValues(k.Name, o.String()).Inc()
}

func (m *metrics) touched(k *Kind, n int) {
	if n > 0 {
		m.touchTotal.WithLabelValues(k.Name).Add(float64(n))
	}
}

func (m *metrics) links(r *Relation, d Delta) {
	if n := len(d.Removed); n > 0 {
		m.linkWrites.WithLabelValues(r.Name, "delete").Add(float64(n))
	}
	if n := len(d.Added); n > 0 {
		m.linkWrites.WithLabelValues(r.Name, "insert").Add(float64(n))
	}
}

func (m *metrics) deleted(k *Kind, found bool) {
	result := "deleted"
	if !found {
		result = "not_found"
	}
	m.deleteTotal.WithLabelValues(k.Name, result).Inc()
}
