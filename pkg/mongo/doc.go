// Package mongo creates MongoDB clients with connection retries and exposes a
// health check suitable for readiness probes.
//
// Reminders, users, goals and in-app notifications all live in MongoDB. The
// package wraps go.mongodb.org/mongo-driver/v2:
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "remindkit")
//	if err != nil {
//		return err
//	}
//	defer mongo.Disconnect(db.Client(), 5*time.Second)
//
// Config fields are read from MONGODB_* environment variables.
package mongo
