package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const metricsNamespace = "ghreport"

var (
	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "step_duration_seconds",
		Help:      "Duration of pipeline steps",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 180, 600, 1200},
	}, []string{"step", "status"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "runs_total",
		Help:      "Pipeline runs by final status",
	}, []string{"status", "trigger"})

	provisionPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "provision_polls_total",
		Help:      "Engine state polls while waiting for provisioning",
	}, []string{"state"})

	lastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run",
	})

	fetchedRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "fetched_records",
		Help:      "Records written per batch in the last pull",
	}, []string{"batch"})
)

// ObserveStep записывает длительность шага.
func ObserveStep(step, status string, d time.Duration) {
	stepDuration.WithLabelValues(step, status).Observe(d.Seconds())
}

// ObserveRun учитывает завершённый run.
func ObserveRun(status, trigger string, finishedAt time.Time, succeeded bool) {
	runsTotal.WithLabelValues(status, trigger).Inc()
	if succeeded {
		lastSuccess.Set(float64(finishedAt.Unix()))
	}
}

// ObserveProvisionPoll учитывает одну проверку состояния engine.
func ObserveProvisionPoll(state string) {
	provisionPolls.WithLabelValues(state).Inc()
}

// ObserveFetched записывает количество записей batch.
func ObserveFetched(batch string, n int) {
	fetchedRecords.WithLabelValues(batch).Set(float64(n))
}

// PushMetrics отправляет метрики процесса в Pushgateway.
// Пустой url — ничего не делает.
func PushMetrics(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}

	err := push.New(url, job).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
