package reminder

import (
	"time"

	"github.com/dmitrymomot/remindkit/pkg/recurrence"
)

// Type is the delivery channel of a reminder.
type Type string

const (
	TypeEmail Type = "email"
	TypeSMS   Type = "sms"
	TypeApp   Type = "app"
)

func (t Type) Valid() bool {
	switch t {
	case TypeEmail, TypeSMS, TypeApp:
		return true
	}
	return false
}

// Source records what created a reminder.
type Source string

const (
	SourceManual  Source = "manual"
	SourceGoalDue Source = "goal_due"
)

type Reminder struct {
	ID            string          `bson:"_id" json:"id"`
	UserID        string          `bson:"user_id" json:"user_id"`
	GoalID        string          `bson:"goal_id,omitempty" json:"goal_id,omitempty"`
	ParentID      string          `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Message       string          `bson:"message" json:"message"`
	RemindAt      time.Time       `bson:"remind_at" json:"remind_at"`
	Type          Type            `bson:"reminder_type" json:"reminder_type"`
	Recurrence    recurrence.Rule `bson:"recurrence" json:"recurrence"`
	EndRepeat     *time.Time      `bson:"end_repeat,omitempty" json:"end_repeat,omitempty"`
	IsActive      bool            `bson:"is_active" json:"is_active"`
	IsSent        bool            `bson:"is_sent" json:"is_sent"`
	EmailSnapshot string          `bson:"email_snapshot,omitempty" json:"email_snapshot,omitempty"`
	Source        Source          `bson:"source" json:"source"`
	SentAt        *time.Time      `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	CreatedAt     time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `bson:"updated_at" json:"updated_at"`
}

// State derives the lifecycle state of r at now. A sent recurring reminder
// is expired when no occurrence after its send time fits before EndRepeat,
// the same rule the processor applies when deciding on a successor.
func (r Reminder) State(now time.Time) State {
	switch {
	case r.IsSent:
		if r.Recurrence.Repeats() {
			firedAt := now
			if r.SentAt != nil {
				firedAt = *r.SentAt
			}
			if _, ok := recurrence.NextAfter(r.RemindAt, r.Recurrence, r.EndRepeat, firedAt); !ok {
				return StateExpired
			}
		}
		return StateSent
	case !r.IsActive:
		return StateCancelled
	case !r.RemindAt.After(now):
		return StateDue
	default:
		return StateScheduled
	}
}

// successor returns the next reminder in r's recurring lineage.
func (r Reminder) successor(remindAt, now time.Time) Reminder {
	next := r
	next.ID = successorID(r.ID)
	next.ParentID = r.ID
	next.RemindAt = remindAt
	next.IsActive = true
	next.IsSent = false
	next.SentAt = nil
	next.CreatedAt = now
	next.UpdatedAt = now
	return next
}
