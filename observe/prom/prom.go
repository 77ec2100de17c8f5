// Package prom exports task group activity as Prometheus metrics.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer implements task.Observer on top of Prometheus collectors.
// One Observer may be shared by any number of groups.
type Observer struct {
	groupsCreated   prometheus.Counter
	groupsCancelled prometheus.Counter
	joins           prometheus.Counter
	joinWait        prometheus.Histogram

	activeTasks   prometheus.Gauge
	tasksStarted  prometheus.Counter
	tasksErrored  prometheus.Counter
	tasksPanicked prometheus.Counter
	taskDuration  prometheus.Histogram
}

// New creates an Observer and registers its collectors on reg. It
// panics on registration conflicts, matching promauto conventions.
func New(reg prometheus.Registerer) *Observer {
	o := &Observer{
		groupsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nursery", Name: "groups_created_total",
			Help: "Task groups created.",
		}),
		groupsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nursery", Name: "groups_cancelled_total",
			Help: "Task groups that were cancelled.",
		}),
		joins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nursery", Name: "group_joins_total",
			Help: "Completed group joins.",
		}),
		joinWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nursery", Name: "group_join_wait_seconds",
			Help:    "Time spent waiting for a group's tasks at join.",
			Buckets: prometheus.DefBuckets,
		}),
		activeTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nursery", Name: "active_tasks",
			Help: "Tasks currently executing.",
		}),
		tasksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nursery", Name: "tasks_started_total",
			Help: "Tasks that began executing.",
		}),
		tasksErrored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nursery", Name: "tasks_errored_total",
			Help: "Tasks that finished with an error.",
		}),
		tasksPanicked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nursery", Name: "tasks_panicked_total",
			Help: "Tasks that panicked.",
		}),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nursery", Name: "task_duration_seconds",
			Help:    "Task wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		o.groupsCreated, o.groupsCancelled, o.joins, o.joinWait,
		o.activeTasks, o.tasksStarted, o.tasksErrored, o.tasksPanicked,
		o.taskDuration,
	)
	return o
}

func (o *Observer) GroupCreated(context.Context) { o.groupsCreated.Inc() }

func (o *Observer) GroupCancelled(context.Context, error) { o.groupsCancelled.Inc() }

func (o *Observer) GroupJoined(_ context.Context, wait time.Duration) {
	o.joins.Inc()
	o.joinWait.Observe(wait.Seconds())
}

func (o *Observer) TaskStarted(context.Context, string) {
	o.activeTasks.Inc()
	o.tasksStarted.Inc()
}

func (o *Observer) TaskFinished(_ context.Context, _ string, dur time.Duration, err error, panicked bool) {
	o.activeTasks.Dec()
	o.taskDuration.Observe(dur.Seconds())
	if err != nil {
		o.tasksErrored.Inc()
	}
	if panicked {
		o.tasksPanicked.Inc()
	}
}
