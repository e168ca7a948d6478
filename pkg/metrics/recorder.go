package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/remindkit/pkg/broadcast"
	"github.com/dmitrymomot/remindkit/pkg/queue"
)

const namespace = "remindkit"

// Recorder owns every collector of the service.
type Recorder struct {
	QueueEvents      *prometheus.CounterVec
	QueueDurable     prometheus.Gauge
	QueueDeadJobs    prometheus.Gauge
	BatchDuration    prometheus.Histogram
	RemindersFired   prometheus.Counter
	RemindersSkipped prometheus.Counter
	RemindersFailed  prometheus.Counter
	Deliveries       *prometheus.CounterVec
	DeliveryDuration *prometheus.HistogramVec
}

// NewRecorder creates and registers the collectors on reg.
// A nil reg registers nothing, which keeps the Recorder usable in tests.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		QueueEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "queue",
				Name:      "events_total",
				Help:      "Queue lifecycle events by type and mode",
			},
			[]string{"event", "mode"},
		),
		QueueDurable: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "durable",
			Help:      "1 while the queue runs in durable mode, 0 in immediate mode",
		}),
		QueueDeadJobs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "dead_jobs",
			Help:      "Jobs parked in the dead state at the last audit",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "batch_duration_seconds",
			Help:      "Duration of one due-reminder processing run",
			Buckets:   prometheus.DefBuckets,
		}),
		RemindersFired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "fired_total",
			Help:      "Reminders marked sent by the processor",
		}),
		RemindersSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "skipped_total",
			Help:      "Due reminders already handled by a concurrent run",
		}),
		RemindersFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "failed_total",
			Help:      "Reminders whose processing returned an error",
		}),
		Deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "delivery",
				Name:      "attempts_total",
				Help:      "Transport calls by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		DeliveryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "delivery",
				Name:      "duration_seconds",
				Help:      "Transport call latency by channel",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"channel"},
		),
	}
}

// ObserveBatch records one processor run.
func (r *Recorder) ObserveBatch(fired, skipped, failed int, d time.Duration) {
	r.BatchDuration.Observe(d.Seconds())
	r.RemindersFired.Add(float64(fired))
	r.RemindersSkipped.Add(float64(skipped))
	r.RemindersFailed.Add(float64(failed))
}

// ObserveDelivery records one transport call.
func (r *Recorder) ObserveDelivery(channel string, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.Deliveries.WithLabelValues(channel, outcome).Inc()
	r.DeliveryDuration.WithLabelValues(channel).Observe(d.Seconds())
}

// SetDeadJobs records the dead-letter backlog.
func (r *Recorder) SetDeadJobs(n int) {
	r.QueueDeadJobs.Set(float64(n))
}

// SetQueueMode records the current queue mode.
func (r *Recorder) SetQueueMode(mode queue.Mode) {
	if mode == queue.ModeDurable {
		r.QueueDurable.Set(1)
		return
	}
	r.QueueDurable.Set(0)
}

// ObserveQueueEvent counts e and tracks the mode switch on fallback.
func (r *Recorder) ObserveQueueEvent(e queue.Event) {
	r.QueueEvents.WithLabelValues(string(e.Type), string(e.Mode)).Inc()
	switch e.Type {
	case queue.EventReady:
		r.SetQueueMode(queue.ModeDurable)
	case queue.EventFallback:
		r.SetQueueMode(queue.ModeImmediate)
	}
}

// Consume records queue events until the subscription closes or ctx is done.
func (r *Recorder) Consume(ctx context.Context, sub *broadcast.Subscription[queue.Event]) {
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			r.ObserveQueueEvent(e)
		}
	}
}
