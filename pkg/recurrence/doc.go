// Package recurrence computes the next occurrence of a repeating reminder.
//
// Rules are calendar based: daily and weekly rules add whole days, monthly rules
// keep the day of month and move to the next month. Wall-clock time is preserved
// in the location of the input timestamp, so a 09:00 reminder stays at 09:00
// across daylight saving changes.
//
// Monthly rules clamp to the last day of shorter months:
//
//	next, ok := recurrence.Next(time.Date(2025, time.January, 31, 9, 0, 0, 0, time.UTC), recurrence.Monthly, nil)
//	// next == 2025-02-28 09:00, ok == true
//
// A nil endRepeat means the lineage repeats forever. When the next occurrence is
// after endRepeat, Next reports false and the lineage stops.
package recurrence
