package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GoalInfo is the lightweight goal reference carried on the anonymized user
// view. The full Goal entity is resolved through the GoalProvider.
type GoalInfo struct {
	ID                 uuid.UUID
	ActivityCategoryID uuid.UUID
}

// UserAnonymized is the analysis-facing identity of a user, decoupled from
// directly identifying data.
type UserAnonymized struct {
	ID   uuid.UUID
	Zone *time.Location
	// Goals lists the user's configured goals by id and category.
	Goals []GoalInfo
	// AnonymousDestination addresses the user's anonymous message inbox.
	AnonymousDestination uuid.UUID
}

// UserAnonymizedProvider resolves anonymized user views.
type UserAnonymizedProvider interface {
	// GetUserAnonymized returns ErrUserAnonymizedNotFound (wrapped) for unknown ids.
	GetUserAnonymized(ctx context.Context, id uuid.UUID) (*UserAnonymized, error)
}

// GoalProvider resolves full goal entities for a user. A nil result without
// error means the goal does not exist.
type GoalProvider interface {
	GetGoal(ctx context.Context, userAnonymizedID, goalID uuid.UUID) (*Goal, error)
}

// ActivityCategoryProvider exposes the full category configuration.
type ActivityCategoryProvider interface {
	GetAllActivityCategories(ctx context.Context) ([]ActivityCategory, error)
}
