// Package metrics exposes run counters in the Prometheus text format so that
// batch runs can be picked up by a node-exporter textfile collector.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ssbar"

// Recorder holds the counters of a single run. Every method is safe to call
// on a nil *Recorder, which records nothing.
type Recorder struct {
	reg *prometheus.Registry

	events    prometheus.Counter
	skipped   prometheus.Counter
	particles prometheus.Counter
	triggers  prometheus.Counter
	pairs     *prometheus.CounterVec
	duration  prometheus.Gauge
}

// New creates a Recorder with its own registry. mode is attached to every
// series as a constant label.
func New(mode string) *Recorder {
	labels := prometheus.Labels{"mode": mode}
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_processed_total",
			Help:        "Events read from the dataset.",
			ConstLabels: labels,
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_skipped_total",
			Help:        "Malformed events skipped under the Skip policy.",
			ConstLabels: labels,
		}),
		particles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "particles_total",
			Help:        "Particles in processed events.",
			ConstLabels: labels,
		}),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "triggers_total",
			Help:        "Trigger particles.",
			ConstLabels: labels,
		}),
		pairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "pairs_total",
			Help:        "Trigger-associate pairs by sign weight.",
			ConstLabels: labels,
		}, []string{"sign"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help:        "Wall-clock duration of the run.",
			ConstLabels: labels,
		}),
	}
	r.reg.MustRegister(
		r.events, r.skipped, r.particles, r.triggers, r.pairs, r.duration,
	)
	return r
}

// Registry returns the registry holding the run's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// Event records one event with n particles.
func (r *Recorder) Event(n int) {
	if r == nil {
		return
	}
	r.events.Inc()
	r.particles.Add(float64(n))
}

// Skipped records one skipped event.
func (r *Recorder) Skipped() {
	if r == nil {
		return
	}
	r.skipped.Inc()
}

// Correlations records the final trigger and pair counts of a run.
func (r *Recorder) Correlations(triggers, signal, background int64) {
	if r == nil {
		return
	}
	r.triggers.Add(float64(triggers))
	r.pairs.WithLabelValues("+1").Add(float64(signal))
	r.pairs.WithLabelValues("-1").Add(float64(background))
}

// Duration records the run time.
func (r *Recorder) Duration(d time.Duration) {
	if r == nil {
		return
	}
	r.duration.Set(d.Seconds())
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return errors.Wrapf(prometheus.WriteToTextfile(path, r.reg),
		"writing metrics to %s", path)
}
