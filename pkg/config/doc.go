// Package config fills configuration structs from environment variables.
//
// Fields are described with caarlos0/env struct tags. Before parsing, Load reads
// optional dotenv files (".env" by default) without overriding variables that
// are already set in the process environment.
//
//	type QueueConfig struct {
//		RedisURL string `env:"REDIS_URL"`
//		Disabled bool   `env:"QUEUE_DISABLED" envDefault:"false"`
//	}
//
//	var cfg QueueConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
