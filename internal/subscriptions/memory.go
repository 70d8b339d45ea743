// Package subscriptions provides anonymized user, goal, and category views
// for the analysis engine.
package subscriptions

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"example.com/analysisengine/internal/domain"
)

// Memory stores users, goals, and categories in memory. It backs local
// development and tests; production wiring uses the Postgres provider.
type Memory struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]domain.UserAnonymized
	goals      map[uuid.UUID]map[uuid.UUID]domain.Goal
	categories map[uuid.UUID]domain.ActivityCategory
}

// NewMemory constructs an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{
		users:      make(map[uuid.UUID]domain.UserAnonymized),
		goals:      make(map[uuid.UUID]map[uuid.UUID]domain.Goal),
		categories: make(map[uuid.UUID]domain.ActivityCategory),
	}
}

// PutUser registers or replaces an anonymized user view.
func (m *Memory) PutUser(user domain.UserAnonymized) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

// PutGoal registers a goal entity for the user.
func (m *Memory) PutGoal(userAnonymizedID uuid.UUID, goal domain.Goal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byGoal, ok := m.goals[userAnonymizedID]
	if !ok {
		byGoal = make(map[uuid.UUID]domain.Goal)
		m.goals[userAnonymizedID] = byGoal
	}
	byGoal[goal.ID] = goal
}

// PutCategory registers an activity category.
func (m *Memory) PutCategory(category domain.ActivityCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[category.ID] = category
}

// GetUserAnonymized implements domain.UserAnonymizedProvider.
func (m *Memory) GetUserAnonymized(ctx context.Context, id uuid.UUID) (*domain.UserAnonymized, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserAnonymizedNotFound, id)
	}
	return &user, nil
}

// GetGoal implements domain.GoalProvider.
func (m *Memory) GetGoal(ctx context.Context, userAnonymizedID, goalID uuid.UUID) (*domain.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	goal, ok := m.goals[userAnonymizedID][goalID]
	if !ok {
		return nil, nil
	}
	return &goal, nil
}

// GetAllActivityCategories implements domain.ActivityCategoryProvider.
func (m *Memory) GetAllActivityCategories(ctx context.Context) ([]domain.ActivityCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ActivityCategory, 0, len(m.categories))
	for _, category := range m.categories {
		out = append(out, category)
	}
	return out, nil
}
