package redis

import "time"

// Config describes how to reach Redis.
type Config struct {
	// ConnectionURL has the form redis://:password@localhost:6379/0.
	ConnectionURL string `env:"REDIS_URL"`
	// RetryAttempts is the number of connection attempts before giving up.
	RetryAttempts int `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	// RetryInterval is the pause between attempts.
	RetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	// ConnectTimeout bounds the whole Connect call.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}
