package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studyhub/internal/modules/goal/domain"
	goalout "studyhub/internal/modules/goal/port/out"
	weekdomain "studyhub/internal/modules/week/domain"
	"studyhub/internal/platform/clock"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/keylock"
)

const DefaultColor = "#3b82f6"

type GoalService struct {
	clock    clock.Clock
	repo     goalout.GoalRepository
	exporter goalout.WeekExporter
	locks    *keylock.Locker
}

func NewGoalService(clock clock.Clock, repo goalout.GoalRepository, exporter goalout.WeekExporter) *GoalService {
	return &GoalService{clock: clock, repo: repo, exporter: exporter, locks: keylock.New()}
}

// Week fetches the goals of day's week. The server filters by window, and the
// result is filtered again by calendar week so timestamp jitter cannot leak
// goals from neighbouring weeks.
func (s *GoalService) Week(ctx context.Context, userID string, day time.Time) (weekdomain.Window, []domain.WeeklyGoal, error) {
	window := s.windowOf(day)
	goals, err := s.repo.ListByWeek(ctx, userID, window)
	if err != nil {
		return window, nil, err
	}
	return window, domain.GoalsInWeek(goals, window.Start), nil
}

func (s *GoalService) Strip(ctx context.Context, userID string, day time.Time, before, after int) ([]weekdomain.Window, []domain.Summary, error) {
	if before < 0 || after < 0 {
		return nil, nil, fmt.Errorf("%w: strip bounds must be non-negative", apperrors.ErrInvalidInput)
	}
	center := s.windowOf(day)
	windows := make([]weekdomain.Window, 0, before+after+1)
	for i := -before; i <= after; i++ {
		windows = append(windows, center.Shift(i))
	}
	goals, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return windows, domain.Summaries(goals, windows), nil
}

func (s *GoalService) Create(ctx context.Context, userID, subject, color string, day time.Time, topics []string) (domain.WeeklyGoal, error) {
	window := s.windowOf(day)
	if strings.TrimSpace(color) == "" {
		color = DefaultColor
	}
	draft := domain.NewGoal{
		UserID:    userID,
		Subject:   strings.TrimSpace(subject),
		Color:     color,
		WeekStart: window.Start,
		WeekEnd:   window.End,
		Topics:    trimAll(topics),
	}
	if err := draft.Validate(); err != nil {
		return domain.WeeklyGoal{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return s.repo.Create(ctx, draft)
}

func (s *GoalService) Update(ctx context.Context, goalID, subject, color string) (domain.WeeklyGoal, error) {
	if err := requireText("goal id", goalID, "subject", subject); err != nil {
		return domain.WeeklyGoal{}, err
	}
	return s.mutate(ctx, goalID, func(ctx context.Context) (domain.WeeklyGoal, error) {
		return s.repo.Update(ctx, goalID, strings.TrimSpace(subject), strings.TrimSpace(color))
	})
}

func (s *GoalService) Delete(ctx context.Context, goalID string) error {
	if err := requireText("goal id", goalID); err != nil {
		return err
	}
	return s.locks.Within(ctx, lockKey(goalID), func(ctx context.Context) error {
		return s.repo.Delete(ctx, goalID)
	})
}

func (s *GoalService) AddTopic(ctx context.Context, goalID, title string) (domain.WeeklyGoal, error) {
	if err := requireText("goal id", goalID, "topic title", title); err != nil {
		return domain.WeeklyGoal{}, err
	}
	return s.mutate(ctx, goalID, func(ctx context.Context) (domain.WeeklyGoal, error) {
		return s.repo.AddTopic(ctx, goalID, strings.TrimSpace(title))
	})
}

func (s *GoalService) ToggleTopic(ctx context.Context, goalID, topicID string) (domain.WeeklyGoal, error) {
	if err := requireText("goal id", goalID, "topic id", topicID); err != nil {
		return domain.WeeklyGoal{}, err
	}
	return s.mutate(ctx, goalID, func(ctx context.Context) (domain.WeeklyGoal, error) {
		return s.repo.ToggleTopic(ctx, goalID, topicID)
	})
}

func (s *GoalService) DeleteTopic(ctx context.Context, goalID, topicID string) (domain.WeeklyGoal, error) {
	if err := requireText("goal id", goalID, "topic id", topicID); err != nil {
		return domain.WeeklyGoal{}, err
	}
	return s.mutate(ctx, goalID, func(ctx context.Context) (domain.WeeklyGoal, error) {
		return s.repo.DeleteTopic(ctx, goalID, topicID)
	})
}

func (s *GoalService) Export(ctx context.Context, userID string, day time.Time) (weekdomain.Window, int, string, error) {
	if s.exporter == nil {
		return weekdomain.Window{}, 0, "", fmt.Errorf("week exporter is not configured")
	}
	window, goals, err := s.Week(ctx, userID, day)
	if err != nil {
		return window, 0, "", err
	}
	path, err := s.exporter.Export(ctx, window, goals)
	if err != nil {
		return window, 0, "", err
	}
	return window, len(goals), path, nil
}

// mutate runs fn with the goal's lock held, so two edits of the same goal
// reach the server one after the other.
func (s *GoalService) mutate(ctx context.Context, goalID string, fn func(context.Context) (domain.WeeklyGoal, error)) (domain.WeeklyGoal, error) {
	var out domain.WeeklyGoal
	err := s.locks.Within(ctx, lockKey(goalID), func(ctx context.Context) error {
		g, err := fn(ctx)
		if err != nil {
			return err
		}
		out = g
		return nil
	})
	return out, err
}

func (s *GoalService) windowOf(day time.Time) weekdomain.Window {
	if day.IsZero() {
		day = s.clock.Now()
	}
	return weekdomain.WindowOf(day)
}

func lockKey(goalID string) string {
	return "goal:" + goalID
}

// requireText takes (field, value) pairs.
func requireText(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := domain.RequireText(pairs[i], pairs[i+1]); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
		}
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
