package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "autopipe"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	ciRequests     *prom.CounterVec
	ciDuration     *prom.HistogramVec
	generations    *prom.CounterVec
	generationTime *prom.HistogramVec
	provisioning   *prom.CounterVec
	submitOutcomes *prom.CounterVec
	submitDuration prom.Histogram
	probeUp        prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil registry gets a private one, which keeps tests isolated.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		ciRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ci_requests_total",
			Help:      "CI server requests by operation and result",
		}, []string{"operation", "result"}),
		ciDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "ci_request_duration_seconds",
			Help:      "Duration of CI server requests",
			Buckets:   prom.DefBuckets,
		}, []string{"operation"}),
		generations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Job definition generations by provider and result",
		}, []string{"provider", "result"}),
		generationTime: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of job definition generation",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"provider"}),
		provisioning: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "provisioning_total",
			Help:      "Automatic job provisioning cycles by result",
		}, []string{"result"}),
		submitOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "submit_outcomes_total",
			Help:      "Build submits by final outcome",
		}, []string{"outcome"}),
		submitDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "submit_duration_seconds",
			Help:      "Total duration of a build submit",
			Buckets:   prom.DefBuckets,
		}),
		probeUp: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "ci_probe_up",
			Help:      "1 when the last scheduled CI probe succeeded",
		}),
	}
	reg.MustRegister(pr.ciRequests, pr.ciDuration, pr.generations, pr.generationTime,
		pr.provisioning, pr.submitOutcomes, pr.submitDuration, pr.probeUp)
	return pr
}

func (p *PrometheusRecorder) ObserveCIRequest(operation string, result ResultLabel, d time.Duration) {
	if p == nil {
		return
	}
	p.ciRequests.WithLabelValues(operation, string(result)).Inc()
	p.ciDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveGeneration(provider string, result ResultLabel, d time.Duration) {
	if p == nil {
		return
	}
	p.generations.WithLabelValues(provider, string(result)).Inc()
	p.generationTime.WithLabelValues(provider).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncProvisioning(result ResultLabel) {
	if p == nil {
		return
	}
	p.provisioning.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncSubmitOutcome(outcome string) {
	if p == nil {
		return
	}
	p.submitOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveSubmitDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.submitDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetProbeUp(up bool) {
	if p == nil {
		return
	}
	if up {
		p.probeUp.Set(1)
		return
	}
	p.probeUp.Set(0)
}
