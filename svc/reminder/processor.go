package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/remindkit/pkg/logger"
	"github.com/dmitrymomot/remindkit/pkg/queue"
	"github.com/dmitrymomot/remindkit/pkg/recurrence"
	"github.com/dmitrymomot/remindkit/svc/directory"
)

type outcome int

const (
	outcomeFired      outcome = iota // marked and handed to the queue
	outcomeSuppressed                // marked, channel disabled by the user
	outcomeHandled                   // already marked by another run
	outcomeFailed                    // marked but dispatch failed
	outcomeUnmarked                  // marking failed, left for the next run
)

// Processor fires due reminders.
type Processor struct {
	repo        Repository
	users       UserStore
	queue       Enqueuer
	fallback    Deliverer
	observer    BatchObserver
	logger      *slog.Logger
	now         func() time.Time
	subject     func(Reminder) string
	batchSize   int
	concurrency int
}

func NewProcessor(repo Repository, users UserStore, q Enqueuer, opts ...ProcessorOption) *Processor {
	p := &Processor{
		repo:        repo,
		users:       users,
		queue:       q,
		logger:      slog.Default(),
		now:         time.Now,
		subject:     defaultSubject,
		batchSize:   100,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.Component("reminder_processor"))
	return p
}

// ProcessDueReminders fires every active, unsent reminder whose time has
// come and returns how many this run marked sent, whether delivered,
// suppressed by the owner's preferences or failed after marking. Reminders
// another run already marked, and those this run failed to mark, are not
// counted. A failure on one reminder is logged and does not stop the others;
// only a failure to load the batch is returned.
//
// Each reminder is first marked sent with a conditional update. A reminder
// another run already marked is skipped entirely, so overlapping runs never
// deliver it twice. Marking is final: if dispatch then fails, the queue's own
// retry policy is the only retry.
func (p *Processor) ProcessDueReminders(ctx context.Context) (int, error) {
	began := time.Now()
	now := p.now()

	due, err := p.repo.FindDue(ctx, now, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("find due reminders: %w", err)
	}
	if len(due) == 0 {
		p.observe(0, 0, 0, time.Since(began))
		return 0, nil
	}

	var processed, fired, skipped, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for _, r := range due {
		g.Go(func() error {
			switch p.process(ctx, r, now) {
			case outcomeFired:
				processed.Add(1)
				fired.Add(1)
			case outcomeSuppressed:
				processed.Add(1)
				skipped.Add(1)
			case outcomeHandled:
				skipped.Add(1)
			case outcomeFailed:
				processed.Add(1)
				failed.Add(1)
			case outcomeUnmarked:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	d := time.Since(began)
	p.observe(int(fired.Load()), int(skipped.Load()), int(failed.Load()), d)
	p.logger.InfoContext(ctx, "due reminders processed",
		logger.Count(len(due)),
		slog.Int64("fired", fired.Load()),
		slog.Int64("skipped", skipped.Load()),
		slog.Int64("failed", failed.Load()),
		logger.Duration(d),
	)
	return int(processed.Load()), nil
}

// Run is ProcessDueReminders shaped for periodic schedulers.
func (p *Processor) Run(ctx context.Context) error {
	_, err := p.ProcessDueReminders(ctx)
	return err
}

func (p *Processor) process(ctx context.Context, r Reminder, now time.Time) (res outcome) {
	log := p.logger.With(logger.ReminderID(r.ID), logger.UserID(r.UserID))
	res = outcomeUnmarked
	defer func() {
		if rec := recover(); rec != nil {
			log.ErrorContext(ctx, "reminder processing panicked", slog.Any("panic", rec))
			if res != outcomeUnmarked {
				res = outcomeFailed
			}
		}
	}()

	marked, err := p.repo.MarkSent(ctx, r.ID, now)
	if err != nil {
		log.ErrorContext(ctx, "failed to mark reminder sent", logger.Error(err))
		return outcomeUnmarked
	}
	if !marked {
		log.DebugContext(ctx, "reminder already handled by another run")
		return outcomeHandled
	}

	res = outcomeFired
	dispatched, err := p.safeDispatch(ctx, r)
	switch {
	case err != nil:
		log.ErrorContext(ctx, "reminder dispatch failed", logger.Channel(string(r.Type)), logger.Error(err))
		res = outcomeFailed
	case !dispatched:
		log.DebugContext(ctx, "channel disabled by user, reminder not sent", logger.Channel(string(r.Type)))
		res = outcomeSuppressed
	}

	if err := p.spawnSuccessor(ctx, r, now); err != nil {
		log.ErrorContext(ctx, "failed to schedule next occurrence", logger.Error(err))
		res = outcomeFailed
	}
	return res
}

func (p *Processor) safeDispatch(ctx context.Context, r Reminder) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("dispatch panicked: %v", rec)
		}
	}()
	return p.dispatch(ctx, r)
}

// dispatch reads the owner's live preferences and enqueues the notification.
// It reports false when the user disabled the reminder's channel.
func (p *Processor) dispatch(ctx context.Context, r Reminder) (bool, error) {
	user, err := p.users.FindByID(ctx, r.UserID)
	if err != nil {
		return false, fmt.Errorf("find owner: %w", err)
	}
	if !user.Enabled(string(r.Type)) {
		return false, nil
	}

	payload, err := p.payload(r, user)
	if err != nil {
		return false, err
	}

	_, err = p.queue.Enqueue(ctx, payload, queue.WithPriority(priorityFor(r)))
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, queue.ErrDeliveryFailed) || p.fallback == nil {
		return false, err
	}

	p.logger.WarnContext(ctx, "queued delivery failed, attempting direct delivery",
		logger.ReminderID(r.ID), logger.Error(err))
	if ferr := p.fallback.Deliver(ctx, payload); ferr != nil {
		return false, errors.Join(err, ferr)
	}
	return true, nil
}

func (p *Processor) payload(r Reminder, user directory.User) (queue.Payload, error) {
	var to string
	switch r.Type {
	case TypeEmail:
		to = r.EmailSnapshot
		if to == "" {
			to = user.Email
		}
	case TypeSMS:
		to = user.Phone
	case TypeApp:
		to = r.UserID
	}
	if to == "" {
		return queue.Payload{}, fmt.Errorf("%w: %s", ErrNoRecipient, r.Type)
	}

	return queue.Payload{
		Channel: string(r.Type),
		To:      to,
		Subject: p.subject(r),
		Body:    r.Message,
	}, nil
}

func (p *Processor) spawnSuccessor(ctx context.Context, r Reminder, now time.Time) error {
	if !r.Recurrence.Repeats() {
		return nil
	}

	next, ok := recurrence.NextAfter(r.RemindAt, r.Recurrence, r.EndRepeat, now)
	if !ok {
		p.logger.DebugContext(ctx, "recurring reminder reached its end", logger.ReminderID(r.ID))
		return nil
	}

	s := r.successor(next, now)
	if err := p.repo.Create(ctx, s); err != nil && !errors.Is(err, ErrAlreadyExists) {
		return err
	}
	return nil
}

func (p *Processor) observe(fired, skipped, failed int, d time.Duration) {
	if p.observer != nil {
		p.observer.ObserveBatch(fired, skipped, failed, d)
	}
}

func defaultSubject(r Reminder) string {
	if r.Source == SourceGoalDue {
		return "Goal deadline reminder"
	}
	return "Reminder"
}

func priorityFor(r Reminder) queue.Priority {
	switch r.Type {
	case TypeSMS:
		return queue.PriorityHigh
	case TypeApp:
		return queue.PriorityLow
	default:
		return queue.PriorityDefault
	}
}
