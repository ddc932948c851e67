// Package metrics exposes Prometheus collectors for the face verification flow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "faceunlock"

// Recorder owns the verification collectors.
type Recorder struct {
	verifications *prometheus.CounterVec
	enrollments   *prometheus.CounterVec
	similarity    prometheus.Histogram
	latency       prometheus.Histogram
	enrolled      prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verification attempts by outcome.",
		}, []string{"outcome"}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrollment_changes_total",
			Help:      "Enrollment changes by action.",
		}, []string{"action"}),
		similarity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_similarity",
			Help:      "Reported similarity of verification attempts.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_duration_seconds",
			Help:      "Time spent scoring a candidate, including worker wait.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		enrolled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "enrolled",
			Help:      "1 when a face profile is enrolled.",
		}),
	}
	reg.MustRegister(r.verifications, r.enrollments, r.similarity, r.latency, r.enrolled)
	return r
}

// ObserveVerification records one finished verification.
func (r *Recorder) ObserveVerification(outcome string, similarity float64, took time.Duration) {
	r.verifications.WithLabelValues(outcome).Inc()
	r.similarity.Observe(similarity)
	r.latency.Observe(took.Seconds())
}

// SetEnrolled updates the enrolled gauge and counts the change.
func (r *Recorder) SetEnrolled(enrolled bool) {
	if enrolled {
		r.enrolled.Set(1)
		r.enrollments.WithLabelValues("enroll").Inc()
		return
	}
	r.enrolled.Set(0)
	r.enrollments.WithLabelValues("clear").Inc()
}

// SyncEnrolled sets the gauge to the state found at startup without
// counting an enrollment change.
func (r *Recorder) SyncEnrolled(enrolled bool) {
	if enrolled {
		r.enrolled.Set(1)
		return
	}
	r.enrolled.Set(0)
}
