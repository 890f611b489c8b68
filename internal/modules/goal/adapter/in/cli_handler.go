package in

import (
	"context"
	"time"

	"studyhub/internal/modules/goal/dto"
	goalin "studyhub/internal/modules/goal/port/in"
)

type CLIHandler struct {
	usecase goalin.Usecase
}

func NewCLIHandler(usecase goalin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Week(ctx context.Context, day time.Time) (dto.WeekOutput, error) {
	return h.usecase.Week(ctx, dto.WeekInput{Day: day})
}

func (h CLIHandler) Strip(ctx context.Context, day time.Time, before, after int) ([]dto.SummaryOutput, error) {
	return h.usecase.Strip(ctx, dto.StripInput{Day: day, Before: before, After: after})
}

func (h CLIHandler) Create(ctx context.Context, subject, color string, day time.Time, topics []string) (dto.GoalOutput, error) {
	return h.usecase.Create(ctx, dto.CreateGoalInput{Subject: subject, Color: color, Day: day, Topics: topics})
}

func (h CLIHandler) Update(ctx context.Context, goalID, subject, color string) (dto.GoalOutput, error) {
	return h.usecase.Update(ctx, dto.UpdateGoalInput{GoalID: goalID, Subject: subject, Color: color})
}

func (h CLIHandler) Delete(ctx context.Context, goalID string) error {
	return h.usecase.Delete(ctx, goalID)
}

func (h CLIHandler) AddTopic(ctx context.Context, goalID, title string) (dto.GoalOutput, error) {
	return h.usecase.AddTopic(ctx, dto.AddTopicInput{GoalID: goalID, Title: title})
}

func (h CLIHandler) ToggleTopic(ctx context.Context, goalID, topicID string) (dto.GoalOutput, error) {
	return h.usecase.ToggleTopic(ctx, dto.TopicRefInput{GoalID: goalID, TopicID: topicID})
}

func (h CLIHandler) DeleteTopic(ctx context.Context, goalID, topicID string) (dto.GoalOutput, error) {
	return h.usecase.DeleteTopic(ctx, dto.TopicRefInput{GoalID: goalID, TopicID: topicID})
}

func (h CLIHandler) Export(ctx context.Context, day time.Time) (dto.ExportOutput, error) {
	return h.usecase.Export(ctx, dto.ExportInput{Day: day})
}
