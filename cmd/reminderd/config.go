package main

import (
	"time"

	"github.com/dmitrymomot/remindkit/pkg/httpserver"
	"github.com/dmitrymomot/remindkit/pkg/mongo"
	"github.com/dmitrymomot/remindkit/pkg/queue"
	"github.com/dmitrymomot/remindkit/pkg/transport"
	"github.com/dmitrymomot/remindkit/svc/delivery"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"reminderd"`

	Collection         string        `env:"REMINDER_COLLECTION" envDefault:"reminders"`
	UsersCollection    string        `env:"USERS_COLLECTION" envDefault:"users"`
	GoalsCollection    string        `env:"GOALS_COLLECTION" envDefault:"goals"`
	PollInterval       time.Duration `env:"REMINDER_POLL_INTERVAL" envDefault:"1m"`
	BatchSize          int           `env:"REMINDER_BATCH_SIZE" envDefault:"100"`
	Concurrency        int           `env:"REMINDER_CONCURRENCY" envDefault:"4"`
	RunTimeout         time.Duration `env:"REMINDER_RUN_TIMEOUT" envDefault:"5m"`
	DeadAuditInterval  time.Duration `env:"QUEUE_DEAD_AUDIT_INTERVAL" envDefault:"5m"`
	HealthCheckTimeout time.Duration `env:"HEALTHCHECK_TIMEOUT" envDefault:"2s"`

	Mongo     mongo.Config
	Queue     queue.Config
	Transport transport.Config
	Delivery  delivery.Config
	HTTP      httpserver.Config
}
