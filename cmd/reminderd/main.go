// Command reminderd fires due reminders and delivers the resulting
// notifications over email, SMS and the in-app inbox.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/remindkit/pkg/broadcast"
	"github.com/dmitrymomot/remindkit/pkg/config"
	"github.com/dmitrymomot/remindkit/pkg/correlation"
	"github.com/dmitrymomot/remindkit/pkg/httpserver"
	"github.com/dmitrymomot/remindkit/pkg/logger"
	"github.com/dmitrymomot/remindkit/pkg/metrics"
	"github.com/dmitrymomot/remindkit/pkg/mongo"
	"github.com/dmitrymomot/remindkit/pkg/queue"
	redisconn "github.com/dmitrymomot/remindkit/pkg/redis"
	"github.com/dmitrymomot/remindkit/pkg/scheduler"
	"github.com/dmitrymomot/remindkit/pkg/transport"
	"github.com/dmitrymomot/remindkit/svc/delivery"
	"github.com/dmitrymomot/remindkit/svc/directory"
	"github.com/dmitrymomot/remindkit/svc/reminder"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	if err := config.Load(&cfg, config.WithEnvFiles(".env")); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextExtractors(correlation.LoggerExtractor()),
	)
	slog.SetDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("reminderd stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("reminderd stopped")
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	db, err := mongo.NewWithDatabase(ctx, cfg.Mongo, "")
	if err != nil {
		return err
	}
	defer func() {
		if err := mongo.Disconnect(db.Client(), 10*time.Second); err != nil {
			log.Error("failed to disconnect from mongo", logger.Error(err))
		}
	}()

	reminders := reminder.NewMongoStorage(db, cfg.Collection)
	if err := reminders.EnsureIndexes(ctx); err != nil {
		return err
	}
	dir := directory.NewMongo(db, directory.WithCollections(cfg.UsersCollection, cfg.GoalsCollection))

	email, err := transport.NewEmailSender(ctx, cfg.Transport)
	if err != nil {
		return err
	}
	sms, err := transport.NewSMSSender(ctx, cfg.Transport)
	if err != nil {
		return err
	}
	inbox := transport.NewInboxSender(db.Collection(cfg.Transport.InboxCollection))

	rec := metrics.NewRecorder(prometheus.DefaultRegisterer)

	worker := delivery.NewWorker(
		delivery.FromConfig(cfg.Delivery),
		delivery.WithSender(directory.ChannelEmail, email),
		delivery.WithSender(directory.ChannelSMS, sms),
		delivery.WithSender(directory.ChannelApp, inbox),
		delivery.WithObserver(rec),
		delivery.WithLogger(log),
	)
	log.Info("delivery channels ready", slog.Any("channels", worker.Channels()))

	events := broadcast.New[queue.Event](128)
	q, err := queue.Open(ctx, cfg.Queue, worker.Handler(),
		queue.WithLogger(log),
		queue.WithEvents(events),
	)
	if err != nil {
		return err
	}
	rec.SetQueueMode(q.Mode())

	processor := reminder.NewProcessor(reminders, dir, q,
		reminder.WithProcessorLogger(log),
		reminder.WithBatchSize(cfg.BatchSize),
		reminder.WithConcurrency(cfg.Concurrency),
		reminder.WithFallbackDeliverer(worker),
		reminder.WithBatchObserver(rec),
	)

	sched := scheduler.New(scheduler.WithLogger(log), scheduler.WithRunTimeout(cfg.RunTimeout))
	if err := sched.AddJob("process-due-reminders", scheduler.EveryInterval(cfg.PollInterval),
		processor.Run, scheduler.RunOnStart()); err != nil {
		return err
	}
	if err := sched.AddJob("audit-dead-letters", scheduler.EveryInterval(cfg.DeadAuditInterval),
		auditDeadLetters(q, rec), scheduler.RunOnStart()); err != nil {
		return err
	}

	checks := map[string]httpserver.CheckFunc{
		"mongo": mongo.Healthcheck(db.Client()),
	}
	if cfg.Queue.RedisURL != "" && !cfg.Queue.Disabled {
		opts, err := goredis.ParseURL(cfg.Queue.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_REDIS_URL: %w", err)
		}
		probe := goredis.NewClient(opts)
		defer probe.Close()
		checks["redis"] = redisconn.Healthcheck(probe)
	}
	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec.Consume(gctx, q.Subscribe(gctx))
		return nil
	})
	g.Go(func() error {
		if err := sched.Start(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx, newOpsRouter(log, q, cfg.HealthCheckTimeout, checks))
	})

	runErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Queue.ShutdownTimeout)
	defer cancel()
	return errors.Join(runErr, q.Shutdown(shutdownCtx))
}

// auditDeadLetters refreshes the dead-letter gauge. Immediate mode keeps no
// dead letters, so the gauge is reset to zero there.
func auditDeadLetters(q deadCounter, rec *metrics.Recorder) scheduler.JobFunc {
	return func(ctx context.Context) error {
		n, err := q.CountDead(ctx)
		if errors.Is(err, queue.ErrNotConfigured) {
			rec.SetDeadJobs(0)
			return nil
		}
		if err != nil {
			return err
		}
		rec.SetDeadJobs(n)
		return nil
	}
}
