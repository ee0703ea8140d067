package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobsworth"

// Metrics holds the service collectors on a private registry so tests can
// build as many instances as they need.
type Metrics struct {
	registry *prometheus.Registry

	TasksScored      *prometheus.CounterVec
	HideUntilExpired prometheus.Counter
	SweepRuns        *prometheus.CounterVec
	MarkersUnread    prometheus.Counter
	Notifications    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TasksScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_scored_total",
			Help:      "Task weight recomputations, by whether the task was scoreable.",
		}, []string{"scoreable"}),
		HideUntilExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hide_until_expired_total",
			Help:      "Tasks whose hide_until date was cleared by the sweep.",
		}),
		SweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hide_until_sweeps_total",
			Help:      "Hide-until sweep runs, by result.",
		}, []string{"result"}),
		MarkersUnread: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markers_marked_unread_total",
			Help:      "Watcher and owner markers flagged unread.",
		}),
		Notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Task notifications resolved.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TasksScored,
		m.HideUntilExpired,
		m.SweepRuns,
		m.MarkersUnread,
		m.Notifications,
	)
	return m
}

// ObserveScore counts one weight recomputation. Safe on a nil receiver.
func (m *Metrics) ObserveScore(scoreable bool) {
	if m == nil {
		return
	}
	if scoreable {
		m.TasksScored.WithLabelValues("true").Inc()
	} else {
		m.TasksScored.WithLabelValues("false").Inc()
	}
}

// ObserveSweep records the outcome of one hide-until sweep. Safe on a nil receiver.
func (m *Metrics) ObserveSweep(expired int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SweepRuns.WithLabelValues("error").Inc()
		return
	}
	m.SweepRuns.WithLabelValues("ok").Inc()
	m.HideUntilExpired.Add(float64(expired))
}

// ObserveNotify counts a resolved notification and the markers it flagged.
// Safe on a nil receiver.
func (m *Metrics) ObserveNotify(markers int64) {
	if m == nil {
		return
	}
	m.Notifications.Inc()
	m.MarkersUnread.Add(float64(markers))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
