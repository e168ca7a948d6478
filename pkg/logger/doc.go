// Package logger builds the *slog.Logger used across remindkit services.
//
// New returns a logger configured through functional options: output format
// (JSON or text), level, static attributes and context extractors that copy
// request-scoped values such as a batch or job id into every record.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "reminderd"),
//		logger.WithContextValue("batch_id", batchKey{}),
//	)
//	log.InfoContext(ctx, "reminder fired",
//		logger.ReminderID(r.ID),
//		logger.Channel(string(r.Type)),
//	)
//
// Attribute helpers keep key names consistent between packages. Helpers that
// take an error or an optional id return an empty slog.Attr for nil input, which
// slog drops, so callers can log unconditionally.
package logger
