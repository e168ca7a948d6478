// Package scheduler runs periodic jobs inside the process.
//
// Jobs never overlap with themselves or with each other: the scheduler runs
// due jobs one after another on a single goroutine and computes the next
// occurrence from the moment a run finishes. A run that overshoots its
// interval delays the next one instead of piling up.
//
//	s := scheduler.New(scheduler.WithLogger(log))
//	_ = s.AddJob("process-due-reminders", scheduler.EveryInterval(time.Minute), processor.Run,
//		scheduler.RunOnStart())
//	_ = s.AddJob("dead-letter-audit", scheduler.DailyAt(8, 0), audit)
//
//	if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
//		return err
//	}
package scheduler
