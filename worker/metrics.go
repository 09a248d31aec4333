package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Task outcomes, used as metric label values and log fields.
const (
	OutcomeBpmnError    = "bpmn_error"
	OutcomeCompleted    = "completed"
	OutcomeFailure      = "failure"
	OutcomeUnknownTopic = "unknown_topic"
)

type metrics struct {
	tasksFetched    *prometheus.CounterVec
	tasksHandled    *prometheus.CounterVec
	fetchErrors     *prometheus.CounterVec
	reportErrors    *prometheus.CounterVec
	leasesExpired   *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := metrics{
		tasksFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bey_worker_tasks_fetched_total",
			Help: "Total number of fetched and locked tasks by topic.",
		}, []string{"topic"}),
		tasksHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bey_worker_tasks_handled_total",
			Help: "Total number of handled tasks by topic and outcome.",
		}, []string{"topic", "outcome"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bey_worker_fetch_errors_total",
			Help: "Total number of failed fetch and lock requests by topic.",
		}, []string{"topic"}),
		reportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bey_worker_report_errors_total",
			Help: "Total number of outcomes, which could not be reported, by topic and outcome.",
		}, []string{"topic", "outcome"}),
		leasesExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bey_worker_leases_expired_total",
			Help: "Total number of tasks, whose lock expired before the outcome was reported, by topic.",
		}, []string{"topic"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bey_worker_handler_duration_seconds",
			Help:    "Duration of handler executions by topic.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"topic"}),
	}

	if registerer == nil {
		return &m, nil
	}

	collectors := []prometheus.Collector{
		m.tasksFetched,
		m.tasksHandled,
		m.fetchErrors,
		m.reportErrors,
		m.leasesExpired,
		m.handlerDuration,
	}
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}

	return &m, nil
}
