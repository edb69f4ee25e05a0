package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Save and hydration outcomes.
const (
	ResultSaved        = "saved"
	ResultUnchanged    = "unchanged"
	ResultSkippedGuest = "skipped_guest"
	ResultFailed       = "failed"
	ResultLoaded       = "loaded"
	ResultEmpty        = "empty"
)

var (
	SavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelplanner_saves_total",
			Help: "Debounced plan saves by result",
		},
		[]string{"result"},
	)

	HydrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelplanner_hydrations_total",
			Help: "Session hydrations by result",
		},
		[]string{"result"},
	)

	SaveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fuelplanner_save_duration_seconds",
			Help:    "Time taken to write a plan to storage in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fuelplanner_intents_total",
			Help: "Timeline intents dispatched by kind",
		},
		[]string{"intent"},
	)
)

func init() {
	prometheus.MustRegister(SavesTotal)
	prometheus.MustRegister(HydrationsTotal)
	prometheus.MustRegister(SaveDuration)
	prometheus.MustRegister(IntentsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation for a histogram.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration is the time elapsed since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed seconds on h.
func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}
