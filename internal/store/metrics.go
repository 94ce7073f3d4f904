package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Save results recorded on drills_store_saves_total.
const (
	resultSaved    = "saved"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

type metrics struct {
	saves        *prometheus.CounterVec
	saveDuration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	return &metrics{
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "drills",
			Subsystem: "store",
			Name:      "saves_total",
			Help:      "Field saves handled by the store, by entity kind, field and result.",
		}, []string{"kind", "field", "result"}),
		saveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "drills",
			Subsystem: "store",
			Name:      "save_duration_seconds",
			Help:      "Time spent handling a field save.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
}

func (m *metrics) register(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	reg.MustRegister(m.saves, m.saveDuration)
}

func (m *metrics) observeSave(kind, field, result string, started time.Time) {
	m.saves.WithLabelValues(kind, field, result).Inc()
	m.saveDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}
