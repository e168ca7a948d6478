// Package httpserver runs an http.Server bound to a context.
//
// Run listens, serves until the context is cancelled and then shuts down
// gracefully within the configured timeout. The server never installs its
// own signal handlers; the host process owns signal handling and cancels the
// context:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    log.Error("ops server stopped", logger.Error(err))
//	}
//
// HealthHandler reports named dependency checks as JSON for liveness and
// readiness probes.
package httpserver
