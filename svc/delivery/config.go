package delivery

import "time"

type Config struct {
	// RatePerSecond limits sends per channel. Zero disables throttling.
	RatePerSecond float64 `env:"DELIVERY_RATE_PER_SECOND" envDefault:"10"`
	// Burst is the number of sends allowed at once per channel.
	Burst int `env:"DELIVERY_BURST" envDefault:"5"`
	// SendTimeout bounds a single transport call.
	SendTimeout time.Duration `env:"DELIVERY_SEND_TIMEOUT" envDefault:"15s"`
}
