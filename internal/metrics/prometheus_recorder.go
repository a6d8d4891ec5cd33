package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	framesDecoded   prom.Counter
	framesDropped   prom.Counter
	connectAttempts *prom.CounterVec
	events          *prom.CounterVec
	bufferSize      prom.Gauge
	streamDuration  prom.Histogram
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.framesDecoded = prom.NewCounter(prom.CounterOpts{
			Namespace: "streamwatch",
			Name:      "frames_decoded_total",
			Help:      "Frames successfully decoded into events",
		})
		pr.framesDropped = prom.NewCounter(prom.CounterOpts{
			Namespace: "streamwatch",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped because the payload was unparseable",
		})
		pr.connectAttempts = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "streamwatch",
			Name:      "connect_attempts_total",
			Help:      "Stream connection attempts by outcome",
		}, []string{"outcome"})
		pr.events = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "streamwatch",
			Name:      "events_total",
			Help:      "Events appended to the buffer by type and source",
		}, []string{"type", "source"})
		pr.bufferSize = prom.NewGauge(prom.GaugeOpts{
			Namespace: "streamwatch",
			Name:      "buffer_size",
			Help:      "Events currently retained in the bounded buffer",
		})
		pr.streamDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "streamwatch",
			Name:      "stream_duration_seconds",
			Help:      "Duration of stream connections from open to close",
			Buckets:   prom.ExponentialBuckets(1, 4, 8),
		})
		reg.MustRegister(pr.framesDecoded, pr.framesDropped, pr.connectAttempts, pr.events, pr.bufferSize, pr.streamDuration)
	})
	return pr
}

func (p *PrometheusRecorder) IncFrameDecoded() {
	if p == nil || p.framesDecoded == nil {
		return
	}
	p.framesDecoded.Inc()
}

func (p *PrometheusRecorder) IncFrameDropped() {
	if p == nil || p.framesDropped == nil {
		return
	}
	p.framesDropped.Inc()
}

func (p *PrometheusRecorder) IncConnectAttempt(outcome ConnectOutcome) {
	if p == nil || p.connectAttempts == nil {
		return
	}
	p.connectAttempts.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncEvent(eventType string, source EventSource) {
	if p == nil || p.events == nil {
		return
	}
	p.events.WithLabelValues(eventType, string(source)).Inc()
}

func (p *PrometheusRecorder) SetBufferSize(n int) {
	if p == nil || p.bufferSize == nil {
		return
	}
	p.bufferSize.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveStreamDuration(d time.Duration) {
	if p == nil || p.streamDuration == nil {
		return
	}
	p.streamDuration.Observe(d.Seconds())
}
