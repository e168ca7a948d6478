package directory

import (
	"context"
	"sync"
)

// Memory is an in-process directory for tests and local runs.
type Memory struct {
	mu    sync.RWMutex
	users map[string]User
	goals map[string]Goal
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]User),
		goals: make(map[string]Goal),
	}
}

func (m *Memory) PutUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *Memory) PutGoal(g Goal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[g.ID] = g
}

func (m *Memory) FindByID(_ context.Context, userID string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *Memory) FindOwnedGoal(_ context.Context, goalID, userID string) (Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.goals[goalID]
	if !ok || g.UserID != userID {
		return Goal{}, ErrGoalNotFound
	}
	return g, nil
}
