package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DirectionRequest  = "request"
	DirectionResponse = "response"
)

// MethodOther labels requests whose method is not a standard HTTP method.
const MethodOther = "other"

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodConnect: {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

// MethodLabel returns method if it is a standard HTTP method, MethodOther
// otherwise.
func MethodLabel(method string) string {
	if _, ok := knownMethods[method]; ok {
		return method
	}
	return MethodOther
}

// Reasons a log line was degraded.
const (
	DegradedReasonMask   = "mask"
	DegradedReasonBody   = "body"
	DegradedReasonStatus = "status"
	DegradedReasonPanic  = "panic"
)

type Metrics struct {
	// ExchangeCount counts emitted log lines.
	ExchangeCount *prometheus.CounterVec
	// DegradedCount counts placeholders substituted into log lines and
	// lines that could not be emitted at all.
	DegradedCount *prometheus.CounterVec
	// BodySize observes the size of logged bodies.
	BodySize *prometheus.HistogramVec
}

// NewMetrics creates AND registers metrics. It will panic if a collector has already been registered.
// Note: we are not specifying namespace in the metrics; the provided registerer may specify a "namespace"
// using [prometheus.WrapRegistererWithPrefix].
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		// Cardinality: 2 directions, 9 methods + MethodOther = up to 20.
		ExchangeCount: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: "httplog",
			Name:      "exchanges_total",
			Help:      "The count of request and response log lines emitted.",
		}, []string{"direction", "method"}),
		// Cardinality: 2 directions, 4 reasons = up to 8.
		DegradedCount: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: "httplog",
			Name:      "degraded_total",
			Help:      "The count of log lines which had part of their content replaced by a placeholder, or were dropped.",
		}, []string{"direction", "reason"}),
		BodySize: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: "httplog",
			Name:      "body_bytes",
			Help:      "The size of logged request and response bodies, in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}, []string{"direction"}),
	}
}

// RecordExchange counts an emitted line, with method reduced by MethodLabel.
// It is a no-op on a nil receiver.
func (m *Metrics) RecordExchange(direction, method string, bodySize int) {
	if m == nil {
		return
	}
	m.ExchangeCount.WithLabelValues(direction, MethodLabel(method)).Inc()
	m.BodySize.WithLabelValues(direction).Observe(float64(bodySize))
}

// RecordDegraded counts a degradation. It is a no-op on a nil receiver.
func (m *Metrics) RecordDegraded(direction, reason string) {
	if m == nil {
		return
	}
	m.DegradedCount.WithLabelValues(direction, reason).Inc()
}
