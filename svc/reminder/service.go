package reminder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/remindkit/pkg/logger"
	"github.com/dmitrymomot/remindkit/pkg/recurrence"
	"github.com/dmitrymomot/remindkit/pkg/validator"
	"github.com/dmitrymomot/remindkit/svc/directory"
)

const maxMessageLength = 1000

// Service implements user-facing reminder operations.
type Service struct {
	repo     Repository
	users    UserStore
	goals    GoalStore
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
	grace    time.Duration
	goalHour int
}

func NewService(repo Repository, users UserStore, goals GoalStore, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		users:    users,
		goals:    goals,
		logger:   slog.Default(),
		loc:      time.UTC,
		now:      time.Now,
		grace:    time.Minute,
		goalHour: 9,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("reminder"))
	return s
}

type CreateParams struct {
	GoalID     string
	Message    string
	RemindAt   time.Time
	Type       Type
	Recurrence recurrence.Rule
	EndRepeat  *time.Time
}

// Create validates p, checks goal ownership and snapshots the owner's email.
func (s *Service) Create(ctx context.Context, userID string, p CreateParams) (Reminder, error) {
	now := s.now()
	if p.Recurrence == "" {
		p.Recurrence = recurrence.None
	}
	if p.Type == "" {
		p.Type = TypeEmail
	}

	if err := validator.Apply(
		validator.UUID("user_id", userID),
		validator.When(p.GoalID != "", validator.UUID("goal_id", p.GoalID)),
		validator.Required("message", p.Message),
		validator.MaxLen("message", p.Message, maxMessageLength),
		validator.OneOf("reminder_type", p.Type, TypeEmail, TypeSMS, TypeApp),
		validator.OneOf("recurrence", p.Recurrence, recurrence.None, recurrence.Daily, recurrence.Weekly, recurrence.Monthly),
		validator.NotZeroTime("remind_at", p.RemindAt),
		validator.FutureTime("remind_at", p.RemindAt, now, s.grace),
		validator.When(p.EndRepeat != nil, validator.NotBefore("end_repeat", deref(p.EndRepeat), p.RemindAt)),
	); err != nil {
		return Reminder{}, errors.Join(ErrValidation, err)
	}

	if p.GoalID != "" {
		if err := s.checkGoal(ctx, p.GoalID, userID); err != nil {
			return Reminder{}, err
		}
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return Reminder{}, err
	}

	r := Reminder{
		ID:            newID(),
		UserID:        userID,
		GoalID:        p.GoalID,
		Message:       p.Message,
		RemindAt:      p.RemindAt,
		Type:          p.Type,
		Recurrence:    p.Recurrence,
		EndRepeat:     p.EndRepeat,
		IsActive:      true,
		EmailSnapshot: user.Email,
		Source:        SourceManual,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return Reminder{}, err
	}

	s.logger.DebugContext(ctx, "reminder created",
		logger.ReminderID(r.ID),
		logger.UserID(userID),
		slog.Time("remind_at", r.RemindAt),
	)
	return r, nil
}

// Get returns the reminder if userID owns it.
func (s *Service) Get(ctx context.Context, userID, id string) (Reminder, error) {
	if err := validator.Apply(
		validator.UUID("user_id", userID),
		validator.UUID("id", id),
	); err != nil {
		return Reminder{}, errors.Join(ErrValidation, err)
	}

	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return Reminder{}, err
	}
	if r.UserID != userID {
		return Reminder{}, ErrNotFound
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Reminder, error) {
	if err := validator.Apply(validator.UUID("user_id", userID)); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	return s.repo.ListByUser(ctx, userID)
}

// UpdateParams holds optional changes. Nil fields are left untouched.
type UpdateParams struct {
	Message        *string
	RemindAt       *time.Time
	Type           *Type
	Recurrence     *recurrence.Rule
	EndRepeat      *time.Time
	ClearEndRepeat bool
	IsActive       *bool
}

// Update applies p to a reminder owned by userID. Sent, expired and
// cancelled reminders cannot change; deactivating cancels the reminder.
func (s *Service) Update(ctx context.Context, userID, id string, p UpdateParams) (Reminder, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return Reminder{}, err
	}

	now := s.now()
	event := EventUpdate
	if p.IsActive != nil && !*p.IsActive {
		event = EventCancel
	}
	if _, err := Transition(r.State(now), event); err != nil {
		return Reminder{}, err
	}

	if p.Message != nil {
		r.Message = *p.Message
	}
	if p.RemindAt != nil {
		r.RemindAt = *p.RemindAt
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Recurrence != nil {
		r.Recurrence = *p.Recurrence
	}
	if p.ClearEndRepeat {
		r.EndRepeat = nil
	} else if p.EndRepeat != nil {
		r.EndRepeat = p.EndRepeat
	}
	if event == EventCancel {
		r.IsActive = false
	}

	if err := validator.Apply(
		validator.Required("message", r.Message),
		validator.MaxLen("message", r.Message, maxMessageLength),
		validator.OneOf("reminder_type", r.Type, TypeEmail, TypeSMS, TypeApp),
		validator.OneOf("recurrence", r.Recurrence, recurrence.None, recurrence.Daily, recurrence.Weekly, recurrence.Monthly),
		validator.When(p.RemindAt != nil, validator.FutureTime("remind_at", r.RemindAt, now, s.grace)),
		validator.When(r.EndRepeat != nil, validator.NotBefore("end_repeat", deref(r.EndRepeat), r.RemindAt)),
	); err != nil {
		return Reminder{}, errors.Join(ErrValidation, err)
	}

	r.UpdatedAt = now
	if err := s.repo.Update(ctx, r); err != nil {
		if errors.Is(err, ErrConflict) {
			return Reminder{}, errors.Join(ErrInvalidState, err)
		}
		return Reminder{}, err
	}
	return r, nil
}

// Delete removes a reminder owned by userID in any state.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// DeleteByGoal removes every reminder attached to goalID and returns how many were deleted.
func (s *Service) DeleteByGoal(ctx context.Context, goalID string) (int, error) {
	if err := validator.Apply(validator.UUID("goal_id", goalID)); err != nil {
		return 0, errors.Join(ErrValidation, err)
	}

	n, err := s.repo.DeleteByGoal(ctx, goalID)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "goal reminders deleted", logger.GoalID(goalID), logger.Count(n))
	return n, nil
}

func (s *Service) checkGoal(ctx context.Context, goalID, userID string) error {
	if _, err := s.goals.FindOwnedGoal(ctx, goalID, userID); err != nil {
		if errors.Is(err, directory.ErrGoalNotFound) {
			return errors.Join(ErrValidation, err)
		}
		return err
	}
	return nil
}

func (s *Service) findUser(ctx context.Context, userID string) (directory.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, directory.ErrUserNotFound) {
		return directory.User{}, errors.Join(ErrNotFound, err)
	}
	return user, err
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
