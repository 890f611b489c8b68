package usecase

import (
	"context"
	"fmt"

	"studyhub/internal/modules/goal/domain"
	"studyhub/internal/modules/goal/dto"
	goalin "studyhub/internal/modules/goal/port/in"
	goalout "studyhub/internal/modules/goal/port/out"
	"studyhub/internal/modules/goal/service"
	weekdomain "studyhub/internal/modules/week/domain"
)

type Interactor struct {
	svc      *service.GoalService
	identity goalout.Identity
}

func NewInteractor(svc *service.GoalService, identity goalout.Identity) goalin.Usecase {
	return &Interactor{svc: svc, identity: identity}
}

func (i *Interactor) Week(ctx context.Context, input dto.WeekInput) (dto.WeekOutput, error) {
	userID, err := i.userID(ctx)
	if err != nil {
		return dto.WeekOutput{}, err
	}
	window, goals, err := i.svc.Week(ctx, userID, input.Day)
	if err != nil {
		return dto.WeekOutput{}, err
	}
	out := dto.WeekOutput{
		Start:   window.Start,
		End:     window.End,
		Label:   window.Label(),
		Key:     window.Key(),
		Goals:   make([]dto.GoalOutput, 0, len(goals)),
		Summary: toSummaryOutput(window, domain.WeekSummary(goals, window.Start)),
	}
	for _, g := range goals {
		out.Goals = append(out.Goals, toGoalOutput(g))
	}
	return out, nil
}

func (i *Interactor) Strip(ctx context.Context, input dto.StripInput) ([]dto.SummaryOutput, error) {
	userID, err := i.userID(ctx)
	if err != nil {
		return nil, err
	}
	windows, summaries, err := i.svc.Strip(ctx, userID, input.Day, input.Before, input.After)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SummaryOutput, 0, len(summaries))
	for idx, s := range summaries {
		out = append(out, toSummaryOutput(windows[idx], s))
	}
	return out, nil
}

func (i *Interactor) Create(ctx context.Context, input dto.CreateGoalInput) (dto.GoalOutput, error) {
	userID, err := i.userID(ctx)
	if err != nil {
		return dto.GoalOutput{}, err
	}
	goal, err := i.svc.Create(ctx, userID, input.Subject, input.Color, input.Day, input.Topics)
	if err != nil {
		return dto.GoalOutput{}, err
	}
	return toGoalOutput(goal), nil
}

func (i *Interactor) Update(ctx context.Context, input dto.UpdateGoalInput) (dto.GoalOutput, error) {
	if _, err := i.userID(ctx); err != nil {
		return dto.GoalOutput{}, err
	}
	goal, err := i.svc.Update(ctx, input.GoalID, input.Subject, input.Color)
	if err != nil {
		return dto.GoalOutput{}, err
	}
	return toGoalOutput(goal), nil
}

func (i *Interactor) Delete(ctx context.Context, goalID string) error {
	if _, err := i.userID(ctx); err != nil {
		return err
	}
	return i.svc.Delete(ctx, goalID)
}

func (i *Interactor) AddTopic(ctx context.Context, input dto.AddTopicInput) (dto.GoalOutput, error) {
	if _, err := i.userID(ctx); err != nil {
		return dto.GoalOutput{}, err
	}
	goal, err := i.svc.AddTopic(ctx, input.GoalID, input.Title)
	if err != nil {
		return dto.GoalOutput{}, err
	}
	return toGoalOutput(goal), nil
}

func (i *Interactor) ToggleTopic(ctx context.Context, input dto.TopicRefInput) (dto.GoalOutput, error) {
	if _, err := i.userID(ctx); err != nil {
		return dto.GoalOutput{}, err
	}
	goal, err := i.svc.ToggleTopic(ctx, input.GoalID, input.TopicID)
	if err != nil {
		return dto.GoalOutput{}, err
	}
	return toGoalOutput(goal), nil
}

func (i *Interactor) DeleteTopic(ctx context.Context, input dto.TopicRefInput) (dto.GoalOutput, error) {
	if _, err := i.userID(ctx); err != nil {
		return dto.GoalOutput{}, err
	}
	goal, err := i.svc.DeleteTopic(ctx, input.GoalID, input.TopicID)
	if err != nil {
		return dto.GoalOutput{}, err
	}
	return toGoalOutput(goal), nil
}

func (i *Interactor) Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error) {
	userID, err := i.userID(ctx)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	window, count, path, err := i.svc.Export(ctx, userID, input.Day)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	return dto.ExportOutput{Path: path, Key: window.Key(), Count: count}, nil
}

func (i *Interactor) userID(ctx context.Context) (string, error) {
	if i.identity == nil {
		return "", fmt.Errorf("identity is not configured")
	}
	return i.identity.UserID(ctx)
}

func toGoalOutput(g domain.WeeklyGoal) dto.GoalOutput {
	out := dto.GoalOutput{
		ID:        g.ID,
		Subject:   g.Subject,
		Color:     g.Color,
		WeekStart: g.WeekStart,
		WeekEnd:   g.WeekEnd,
		Progress:  domain.Progress(g),
		Topics:    make([]dto.GoalTopicOutput, 0, len(g.Topics)),
	}
	for _, t := range g.Topics {
		out.Topics = append(out.Topics, dto.GoalTopicOutput{ID: t.ID, Title: t.Title, Completed: t.Completed})
	}
	return out
}

func toSummaryOutput(window weekdomain.Window, s domain.Summary) dto.SummaryOutput {
	return dto.SummaryOutput{
		WeekStart:       window.Start,
		Label:           window.Label(),
		Count:           s.Count,
		CompletedTopics: s.CompletedTopics,
		TotalTopics:     s.TotalTopics,
	}
}
