package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"jarvislive/internal/models"
)

// Instruments holds the Prometheus metrics exported alongside the domain
// rolling-window engine.
type Instruments struct {
	CommandsTotal  *prometheus.CounterVec
	CommandLatency *prometheus.HistogramVec
	AlertsTotal    *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
}

var (
	instruments     *Instruments
	instrumentsOnce sync.Once
)

// InitInstruments registers the Prometheus metrics once and returns them.
func InitInstruments() *Instruments {
	instrumentsOnce.Do(func() {
		instruments = &Instruments{
			CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "jarvis_commands_total",
				Help: "Total voice commands processed, by serving path and success",
			}, []string{"path", "success"}),

			CommandLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "jarvis_command_duration_seconds",
				Help:    "Voice command processing latency in seconds, by serving path",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			}, []string{"path"}),

			AlertsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "jarvis_alerts_total",
				Help: "Total alerts raised by the metrics engine, by type",
			}, []string{"type"}),

			ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "jarvis_voice_sessions_active",
				Help: "Number of active voice sessions",
			}),
		}
	})
	return instruments
}

// RecordEvent mirrors one processing event into Prometheus.
func (i *Instruments) RecordEvent(event models.ProcessingEvent) {
	i.CommandsTotal.WithLabelValues(string(event.Path), strconv.FormatBool(event.Success)).Inc()
	i.CommandLatency.WithLabelValues(string(event.Path)).Observe(event.Elapsed.Seconds())
}

// RecordAlert mirrors one raised alert into Prometheus.
func (i *Instruments) RecordAlert(alert models.Alert) {
	i.AlertsTotal.WithLabelValues(string(alert.Type)).Inc()
}
