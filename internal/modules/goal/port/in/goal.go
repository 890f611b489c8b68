package in

import (
	"context"

	"studyhub/internal/modules/goal/dto"
)

type Usecase interface {
	Week(ctx context.Context, input dto.WeekInput) (dto.WeekOutput, error)
	Strip(ctx context.Context, input dto.StripInput) ([]dto.SummaryOutput, error)
	Create(ctx context.Context, input dto.CreateGoalInput) (dto.GoalOutput, error)
	Update(ctx context.Context, input dto.UpdateGoalInput) (dto.GoalOutput, error)
	Delete(ctx context.Context, goalID string) error
	AddTopic(ctx context.Context, input dto.AddTopicInput) (dto.GoalOutput, error)
	ToggleTopic(ctx context.Context, input dto.TopicRefInput) (dto.GoalOutput, error)
	DeleteTopic(ctx context.Context, input dto.TopicRefInput) (dto.GoalOutput, error)
	Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error)
}
