// Package correlation tags a unit of work with an opaque ID so that every log
// record it produces can be grouped together.
//
// A unit of work is either an ops HTTP request or a single run of a periodic
// job. Middleware reuses a well-formed X-Request-ID header or generates a new
// ID; the scheduler calls WithID before each run. LoggerExtractor plugs into
// logger.WithContextExtractors:
//
//	log := logger.New(logger.WithContextExtractors(correlation.LoggerExtractor()))
//	router.Use(correlation.Middleware)
package correlation
