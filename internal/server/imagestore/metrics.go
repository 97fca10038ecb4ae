package imagestore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opUpload = "upload"
	opDelete = "delete"
)

// Metrics counts media host operations by op and result.
type Metrics struct {
	ops *prometheus.CounterVec
}

// NewMetrics registers the media counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		ops: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_media_operations_total",
			Help: "Media host operations by kind and result.",
		}, []string{"op", "result"}),
	}
}

func (m *Metrics) observe(op, result string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, result).Inc()
}
