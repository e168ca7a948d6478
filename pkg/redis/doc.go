// Package redis connects to a Redis server with retries and exposes a health
// check for the ops endpoints.
//
// The durable notification queue stores its jobs in Redis; this package only
// owns the connection lifecycle:
//
//	client, err := redis.Connect(ctx, redis.Config{
//		ConnectionURL:  "redis://localhost:6379/0",
//		RetryAttempts:  3,
//		RetryInterval:  time.Second,
//		ConnectTimeout: 10 * time.Second,
//	})
//	if err != nil {
//		// fall back or terminate
//	}
//	defer client.Close()
//
// All returned errors wrap one of the package sentinels with errors.Join.
package redis
