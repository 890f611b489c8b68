package out

import (
	"context"

	"studyhub/internal/modules/goal/domain"
	weekdomain "studyhub/internal/modules/week/domain"
)

// GoalRepository is backed by the remote store. Every mutation returns the
// server's post-mutation WeeklyGoal, which callers adopt wholesale.
type GoalRepository interface {
	ListByWeek(ctx context.Context, userID string, window weekdomain.Window) ([]domain.WeeklyGoal, error)
	ListAll(ctx context.Context, userID string) ([]domain.WeeklyGoal, error)
	Create(ctx context.Context, goal domain.NewGoal) (domain.WeeklyGoal, error)
	Update(ctx context.Context, goalID, subject, color string) (domain.WeeklyGoal, error)
	Delete(ctx context.Context, goalID string) error
	AddTopic(ctx context.Context, goalID, title string) (domain.WeeklyGoal, error)
	ToggleTopic(ctx context.Context, goalID, topicID string) (domain.WeeklyGoal, error)
	DeleteTopic(ctx context.Context, goalID, topicID string) (domain.WeeklyGoal, error)
}

type WeekExporter interface {
	Export(ctx context.Context, window weekdomain.Window, goals []domain.WeeklyGoal) (string, error)
}

// Identity resolves the signed-in user.
type Identity interface {
	UserID(ctx context.Context) (string, error)
}
