// Package metrics exposes Prometheus collectors for reminder processing,
// notification delivery and the notification queue.
//
// A Recorder registers its collectors on the given registerer, so tests can
// use a private prometheus.NewRegistry while the host process serves the
// default registry through promhttp:
//
//	rec := metrics.NewRecorder(prometheus.DefaultRegisterer)
//	go rec.Consume(ctx, queueService.Subscribe(ctx))
package metrics
