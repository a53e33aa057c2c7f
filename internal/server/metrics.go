package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/visiongraph/pkg/observability"
)

const namespace = "visiongraph"

var (
	lockWaitHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting to acquire the pipeline lock.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	lockHeldHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lock_held_seconds",
		Help:      "Time the pipeline lock was held per acquisition.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	lockContendedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lock_contended_total",
		Help:      "The total number of pipeline lock acquisitions that had to queue.",
	})

	exportCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "nodetree_exports_total",
		Help:      "The total number of nodetree exports.",
	})

	importCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "nodetree_imports_total",
		Help:      "The total number of nodetree imports by result.",
	}, []string{"result"})

	importDurationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "nodetree_import_duration_seconds",
		Help:      "Time taken to reconcile the pipeline with an imported nodetree.",
		Buckets:   prometheus.DefBuckets,
	})

	settingsFallbackCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settings_fallback_total",
		Help:      "The total number of imported nodes whose settings fell back to defaults.",
	}, []string{"type"})

	cycleDurationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_cycle_duration_seconds",
		Help:      "Time taken by one execution cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	pipelineNodesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pipeline_nodes",
		Help:      "Number of nodes in the pipeline during the last cycle.",
	})

	pipelineFailedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pipeline_failed_nodes",
		Help:      "Number of nodes that failed in the last cycle.",
	})

	storeOpsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "The total number of persistence operations.",
	}, []string{"op", "kind", "result"})

	profileGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_profile",
		Help:      "The active persistence profile.",
	})
)

// InstallMetrics routes engine hooks to the Prometheus collectors served on
// /metrics.
func InstallMetrics(profile int) {
	h := metricsHooks{}
	observability.SetLockHooks(h)
	observability.SetNodeTreeHooks(h)
	observability.SetPipelineHooks(h)
	observability.SetStoreHooks(h)
	profileGauge.Set(float64(profile))
}

type metricsHooks struct{}

func (metricsHooks) OnAcquire(wait time.Duration, queued bool) {
	lockWaitHistogram.Observe(wait.Seconds())
	if queued {
		lockContendedCounter.Inc()
	}
}

func (metricsHooks) OnRelease(held time.Duration) {
	lockHeldHistogram.Observe(held.Seconds())
}

func (metricsHooks) OnExport(context.Context, int, time.Duration) {
	exportCounter.Inc()
}

func (metricsHooks) OnImport(_ context.Context, _, _ int, dur time.Duration, err error) {
	importCounter.WithLabelValues(result(err)).Inc()
	importDurationHistogram.Observe(dur.Seconds())
}

func (metricsHooks) OnSettingsFallback(_ context.Context, nodeType string) {
	settingsFallbackCounter.WithLabelValues(nodeType).Inc()
}

func (metricsHooks) OnCycle(_ context.Context, nodes, failed int, dur time.Duration) {
	cycleDurationHistogram.Observe(dur.Seconds())
	pipelineNodesGauge.Set(float64(nodes))
	pipelineFailedGauge.Set(float64(failed))
}

func (metricsHooks) OnLoad(kind string, fromCache bool, err error) {
	op := "load"
	if fromCache {
		op = "load_cached"
	}
	storeOpsCounter.WithLabelValues(op, kind, result(err)).Inc()
}

func (metricsHooks) OnSave(kind string, _ int, err error) {
	storeOpsCounter.WithLabelValues("save", kind, result(err)).Inc()
}

func (metricsHooks) OnProfileSwitch(_, to int) {
	profileGauge.Set(float64(to))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
