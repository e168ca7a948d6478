package scheduler

import "errors"

var (
	// ErrNoJobs is returned by Start when nothing was registered.
	ErrNoJobs = errors.New("scheduler has no registered jobs")

	// ErrJobAlreadyRegistered is returned when a job name is reused.
	ErrJobAlreadyRegistered = errors.New("job already registered")

	// ErrInvalidJob is returned for an empty name, nil schedule or nil func.
	ErrInvalidJob = errors.New("job requires a name, a schedule and a function")
)
