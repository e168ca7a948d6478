// Package reminder owns the reminder entity: its lifecycle, user-facing
// CRUD, generation from goal due dates and the batch processor that fires
// due reminders onto the notification queue.
//
// Firing follows an at-most-one-visible-notification policy. The processor
// atomically marks a reminder sent before dispatching it, so a reminder is
// never delivered twice even if two batches overlap, and a failed delivery is
// retried only by the queue, never by firing the reminder again. Recurring
// reminders spawn exactly one successor per firing until their end date.
package reminder
