package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codelens"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg              *prom.Registry
	stageDuration    *prom.HistogramVec
	stageResults     *prom.CounterVec
	pipelineDuration prom.Histogram
	pipelineOutcomes *prom.CounterVec
	cloneDuration    *prom.HistogramVec
	removedPaths     prom.Counter
	eventsPublished  *prom.CounterVec
	eventsDropped    *prom.CounterVec
	eventsHandled    *prom.CounterVec
	queueDepth       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		pipelineDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Total documentation pipeline duration",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		pipelineOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_outcomes_total",
			Help:      "Pipeline outcomes by final status",
		}, []string{"result"}),
		cloneDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "clone_duration_seconds",
			Help:      "Duration of repository clone and checkout",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		removedPaths: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sanitizer_removed_paths_total",
			Help:      "Paths removed by the ignore policy",
		}),
		eventsPublished: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events accepted by the queue",
		}, []string{"kind"}),
		eventsDropped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped because the queue was full or closed",
		}, []string{"kind"}),
		eventsHandled: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_handled_total",
			Help:      "Events processed by handlers",
		}, []string{"kind", "result"}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Events buffered in the queue at last observation",
		}),
	}
	reg.MustRegister(
		pr.stageDuration, pr.stageResults,
		pr.pipelineDuration, pr.pipelineOutcomes,
		pr.cloneDuration, pr.removedPaths,
		pr.eventsPublished, pr.eventsDropped, pr.eventsHandled,
		pr.queueDepth,
	)
	return pr
}

// Registry returns the registry the metrics were registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

// HTTPHandler serves the recorder's registry in the Prometheus exposition format.
func (p *PrometheusRecorder) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObservePipelineDuration(d time.Duration) {
	p.pipelineDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPipelineOutcome(result ResultLabel) {
	p.pipelineOutcomes.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveCloneDuration(d time.Duration, success bool) {
	p.cloneDuration.WithLabelValues(successLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddRemovedPaths(n int) {
	if n > 0 {
		p.removedPaths.Add(float64(n))
	}
}

func (p *PrometheusRecorder) IncEventPublished(kind string) {
	p.eventsPublished.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncEventDropped(kind string) {
	p.eventsDropped.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncEventHandled(kind string, result ResultLabel) {
	p.eventsHandled.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	p.queueDepth.Set(float64(n))
}

func successLabel(ok bool) string {
	if ok {
		return string(ResultSuccess)
	}
	return string(ResultFailed)
}
