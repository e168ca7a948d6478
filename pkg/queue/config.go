package queue

import "time"

// Config selects and tunes the queue mode. Zero values fall back to the
// defaults listed in the envDefault tags.
type Config struct {
	Disabled        bool          `env:"QUEUE_DISABLED" envDefault:"false"`
	RedisURL        string        `env:"QUEUE_REDIS_URL"`
	Prefix          string        `env:"QUEUE_PREFIX" envDefault:"remindkit:queue"`
	Concurrency     int           `env:"QUEUE_CONCURRENCY" envDefault:"4"`
	PollInterval    time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"1s"`
	LockTimeout     time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"1m"`
	ReapInterval    time.Duration `env:"QUEUE_REAP_INTERVAL" envDefault:"30s"`
	MaxAttempts     int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`
	BackoffBase     time.Duration `env:"QUEUE_BACKOFF_BASE" envDefault:"2s"`
	MaxBackoff      time.Duration `env:"QUEUE_MAX_BACKOFF" envDefault:"10m"`
	ConnectTimeout  time.Duration `env:"QUEUE_CONNECT_TIMEOUT" envDefault:"5s"`
	ConnectRetries  int           `env:"QUEUE_CONNECT_RETRIES" envDefault:"2"`
	ShutdownTimeout time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}
