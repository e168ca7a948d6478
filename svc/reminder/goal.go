package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/remindkit/pkg/logger"
	"github.com/dmitrymomot/remindkit/pkg/recurrence"
	"github.com/dmitrymomot/remindkit/pkg/validator"
	"github.com/dmitrymomot/remindkit/svc/directory"
)

// goalOffsets are the days before a goal's due date that reminders fire.
var goalOffsets = []int{1, 3, 7}

// CreateGoalReminders schedules email reminders one, three and seven days
// before the goal's due date at the configured local hour. Times already in
// the past are skipped. Nothing is created for goals without a due date or
// when the owner has email notifications disabled. Calling it again for the
// same due date does not create duplicates.
func (s *Service) CreateGoalReminders(ctx context.Context, userID, goalID string) ([]Reminder, error) {
	if err := validator.Apply(
		validator.UUID("user_id", userID),
		validator.UUID("goal_id", goalID),
	); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}

	goal, err := s.goals.FindOwnedGoal(ctx, goalID, userID)
	if err != nil {
		if errors.Is(err, directory.ErrGoalNotFound) {
			return nil, errors.Join(ErrValidation, err)
		}
		return nil, err
	}
	if goal.DueDate == nil {
		return nil, nil
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Enabled(directory.ChannelEmail) {
		s.logger.DebugContext(ctx, "email notifications disabled, no goal reminders",
			logger.UserID(userID), logger.GoalID(goalID))
		return nil, nil
	}

	now := s.now()
	due := goal.DueDate.In(s.loc)

	var created []Reminder
	for _, days := range goalOffsets {
		day := due.AddDate(0, 0, -days)
		at := time.Date(day.Year(), day.Month(), day.Day(), s.goalHour, 0, 0, 0, s.loc)
		if !at.After(now) {
			continue
		}

		r := Reminder{
			ID:            goalReminderID(goalID, goal.DueDate.Unix(), days),
			UserID:        userID,
			GoalID:        goalID,
			Message:       goalMessage(goal.Title, days),
			RemindAt:      at,
			Type:          TypeEmail,
			Recurrence:    recurrence.None,
			IsActive:      true,
			EmailSnapshot: user.Email,
			Source:        SourceGoalDue,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Create(ctx, r); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				continue
			}
			return created, err
		}
		created = append(created, r)
	}

	s.logger.InfoContext(ctx, "goal reminders created",
		logger.GoalID(goalID),
		logger.Count(len(created)),
		slog.Time("due_date", *goal.DueDate),
	)
	return created, nil
}

func goalMessage(title string, days int) string {
	if days == 1 {
		return fmt.Sprintf("Your goal %q is due tomorrow.", title)
	}
	return fmt.Sprintf("Your goal %q is due in %d days.", title, days)
}
