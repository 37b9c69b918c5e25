package commander

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Layr-Labs/hww-signer-go/pkg/btc/signing"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

const (
	metricsNamespace = "hww"

	outcomeOK = "ok"
	// opUnknown labels requests that never decoded to a variant.
	opUnknown = "unknown"
)

// Metrics counts handled requests and finished signing sessions.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	sessions *prometheus.CounterVec
}

var _ signing.Observer = (*Metrics)(nil)

// NewMetrics registers the commander metrics with reg. A nil reg gets a
// private registry, which keeps tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "commander",
			Name:      "requests_total",
			Help:      "Requests handled, by operation and outcome (ok or wire error code)",
		}, []string{"operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "commander",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling a request, confirmations included",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"operation"}),
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "signing",
			Name:      "sessions_total",
			Help:      "Signing sessions ended, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) observe(op string, resp *types.Response, elapsed time.Duration) {
	outcome := outcomeOK
	if resp.Error != nil {
		outcome = strconv.Itoa(int(resp.Error.Code))
	}
	m.requests.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SessionEnded implements signing.Observer.
func (m *Metrics) SessionEnded(outcome signing.Outcome) {
	m.sessions.WithLabelValues(string(outcome)).Inc()
}
