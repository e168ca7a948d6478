package directory

import "time"

// Notification channels a user can toggle.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelApp   = "app"
)

// Notifications holds per-channel opt-ins. A missing value means enabled.
type Notifications struct {
	Email *bool `bson:"email,omitempty" json:"email,omitempty"`
	SMS   *bool `bson:"sms,omitempty" json:"sms,omitempty"`
}

type Settings struct {
	Notifications Notifications `bson:"notifications" json:"notifications"`
}

type User struct {
	ID       string   `bson:"_id" json:"id"`
	Email    string   `bson:"email" json:"email"`
	Phone    string   `bson:"phone,omitempty" json:"phone,omitempty"`
	Settings Settings `bson:"settings" json:"settings"`
}

// Enabled reports whether the user accepts notifications on channel.
// In-app notifications cannot be switched off.
func (u User) Enabled(channel string) bool {
	n := u.Settings.Notifications
	switch channel {
	case ChannelEmail:
		return n.Email == nil || *n.Email
	case ChannelSMS:
		return n.SMS == nil || *n.SMS
	case ChannelApp:
		return true
	default:
		return false
	}
}

type Goal struct {
	ID      string     `bson:"_id" json:"id"`
	UserID  string     `bson:"user_id" json:"user_id"`
	Title   string     `bson:"title" json:"title"`
	DueDate *time.Time `bson:"due_date,omitempty" json:"due_date,omitempty"`
}
