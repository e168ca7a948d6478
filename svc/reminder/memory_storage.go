package reminder

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStorage is a Repository kept in process memory.
type MemoryStorage struct {
	mu        sync.RWMutex
	reminders map[string]Reminder
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{reminders: make(map[string]Reminder)}
}

func (s *MemoryStorage) Create(_ context.Context, r Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reminders[r.ID]; ok {
		return ErrAlreadyExists
	}
	s.reminders[r.ID] = r
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, id string) (Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reminders[id]
	if !ok {
		return Reminder{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStorage) Update(_ context.Context, r Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.reminders[r.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.IsSent {
		return ErrConflict
	}
	s.reminders[r.ID] = r
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reminders[id]; !ok {
		return ErrNotFound
	}
	delete(s.reminders, id)
	return nil
}

func (s *MemoryStorage) DeleteByGoal(_ context.Context, goalID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, r := range s.reminders {
		if r.GoalID != "" && r.GoalID == goalID {
			delete(s.reminders, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStorage) ListByUser(_ context.Context, userID string) ([]Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Reminder
	for _, r := range s.reminders {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sortByRemindAt(out)
	return out, nil
}

func (s *MemoryStorage) FindDue(_ context.Context, now time.Time, limit int) ([]Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Reminder
	for _, r := range s.reminders {
		if r.IsActive && !r.IsSent && !r.RemindAt.After(now) {
			out = append(out, r)
		}
	}
	sortByRemindAt(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStorage) MarkSent(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok || r.IsSent {
		return false, nil
	}
	r.IsSent = true
	r.SentAt = &at
	r.UpdatedAt = at
	s.reminders[id] = r
	return true, nil
}

// Len returns the number of stored reminders.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reminders)
}

func sortByRemindAt(rs []Reminder) {
	slices.SortFunc(rs, func(a, b Reminder) int {
		if c := a.RemindAt.Compare(b.RemindAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
