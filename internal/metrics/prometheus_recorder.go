package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitebuild"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg           *prom.Registry
	stageDuration *prom.HistogramVec
	stageResults  *prom.CounterVec
	runDuration   *prom.HistogramVec
	lastOutcome   *prom.GaugeVec
	lastExitCode  *prom.GaugeVec
	lastRun       *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual pipeline stages",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"stage"})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.runDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Total run duration by action",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"action"})
	pr.lastOutcome = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_outcome",
		Help:      "Set to 1 for the outcome of the last run of an action",
	}, []string{"action", "outcome"})
	pr.lastExitCode = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_exit_code",
		Help:      "Exit code of the last run of an action",
	}, []string{"action"})
	pr.lastRun = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run of an action finished",
	}, []string{"action"})
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.runDuration, pr.lastOutcome, pr.lastExitCode, pr.lastRun)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(action string, d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.WithLabelValues(action).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetRunOutcome(action, outcome string, exitCode int, at time.Time) {
	if p == nil || p.lastOutcome == nil {
		return
	}
	p.lastOutcome.WithLabelValues(action, outcome).Set(1)
	p.lastExitCode.WithLabelValues(action).Set(float64(exitCode))
	p.lastRun.WithLabelValues(action).Set(float64(at.Unix()))
}

// WriteTextfile writes all registered metrics to path atomically, in the
// text exposition format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}
