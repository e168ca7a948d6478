package reminder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/remindkit/svc/reminder"
)

func TestTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from  reminder.State
		event reminder.Event
		to    reminder.State
		ok    bool
	}{
		{reminder.StateScheduled, reminder.EventArrive, reminder.StateDue, true},
		{reminder.StateDue, reminder.EventFire, reminder.StateSent, true},
		{reminder.StateSent, reminder.EventExpire, reminder.StateExpired, true},
		{reminder.StateScheduled, reminder.EventCancel, reminder.StateCancelled, true},
		{reminder.StateDue, reminder.EventCancel, reminder.StateCancelled, true},
		{reminder.StateScheduled, reminder.EventUpdate, reminder.StateScheduled, true},
		{reminder.StateDue, reminder.EventUpdate, reminder.StateScheduled, true},
		{reminder.StateScheduled, reminder.EventFire, "", false},
		{reminder.StateSent, reminder.EventUpdate, "", false},
		{reminder.StateSent, reminder.EventCancel, "", false},
		{reminder.StateExpired, reminder.EventUpdate, "", false},
		{reminder.StateCancelled, reminder.EventUpdate, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.ok, reminder.CanTransition(tt.from, tt.event))

			to, err := reminder.Transition(tt.from, tt.event)
			if !tt.ok {
				assert.ErrorIs(t, err, reminder.ErrInvalidState)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, reminder.IsTerminal(reminder.StateExpired))
	assert.True(t, reminder.IsTerminal(reminder.StateCancelled))
	assert.False(t, reminder.IsTerminal(reminder.StateSent))
	assert.False(t, reminder.IsTerminal(reminder.StateScheduled))
}

func TestReminder_State(t *testing.T) {
	t.Parallel()

	now := baseTime
	end := now.Add(48 * time.Hour)
	lateEnd := now.Add(-time.Hour)

	tests := []struct {
		name string
		r    reminder.Reminder
		at   time.Time
		want reminder.State
	}{
		{
			name: "future",
			r:    reminder.Reminder{IsActive: true, RemindAt: now.Add(time.Hour), Recurrence: "none"},
			want: reminder.StateScheduled,
		},
		{
			name: "due at exactly now",
			r:    reminder.Reminder{IsActive: true, RemindAt: now, Recurrence: "none"},
			want: reminder.StateDue,
		},
		{
			name: "inactive",
			r:    reminder.Reminder{IsActive: false, RemindAt: now.Add(-time.Hour), Recurrence: "none"},
			want: reminder.StateCancelled,
		},
		{
			name: "sent once",
			r:    reminder.Reminder{IsActive: true, IsSent: true, RemindAt: now, Recurrence: "none"},
			want: reminder.StateSent,
		},
		{
			name: "sent recurring with successor",
			r:    reminder.Reminder{IsActive: true, IsSent: true, RemindAt: now, Recurrence: "daily", EndRepeat: &end},
			want: reminder.StateSent,
		},
		{
			name: "sent recurring past end",
			r:    reminder.Reminder{IsActive: true, IsSent: true, RemindAt: now, Recurrence: "weekly", EndRepeat: &end},
			want: reminder.StateExpired,
		},
		{
			name: "sent late with missed occurrences past end",
			r: reminder.Reminder{
				IsActive: true, IsSent: true, SentAt: &now,
				RemindAt: now.Add(-3*24*time.Hour - time.Hour), Recurrence: "daily", EndRepeat: &lateEnd,
			},
			want: reminder.StateExpired,
		},
		{
			name: "sent recurring read long after firing",
			r:    reminder.Reminder{IsActive: true, IsSent: true, SentAt: &now, RemindAt: now, Recurrence: "daily", EndRepeat: &end},
			at:   now.Add(30 * 24 * time.Hour),
			want: reminder.StateSent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			at := now
			if !tt.at.IsZero() {
				at = tt.at
			}
			assert.Equal(t, tt.want, tt.r.State(at))
		})
	}
}
