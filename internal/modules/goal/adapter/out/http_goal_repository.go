package out

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"studyhub/internal/modules/goal/domain"
	goalout "studyhub/internal/modules/goal/port/out"
	weekdomain "studyhub/internal/modules/week/domain"
	"studyhub/internal/platform/restclient"
)

const resource = "weekly-goals"

// isoMillis matches the timestamps the API stores and filters on.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type goalTopicPayload struct {
	ID        string `json:"_id,omitempty"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type goalPayload struct {
	ID        string             `json:"_id,omitempty"`
	UserID    string             `json:"userId"`
	Subject   string             `json:"subject"`
	Color     string             `json:"color"`
	WeekStart time.Time          `json:"weekStart"`
	WeekEnd   time.Time          `json:"weekEnd"`
	Topics    []goalTopicPayload `json:"topics"`
}

type HTTPGoalRepository struct {
	client *restclient.Client
}

func NewHTTPGoalRepository(client *restclient.Client) goalout.GoalRepository {
	return &HTTPGoalRepository{client: client}
}

func (r *HTTPGoalRepository) ListByWeek(ctx context.Context, userID string, window weekdomain.Window) ([]domain.WeeklyGoal, error) {
	query := url.Values{}
	query.Set("weekStart", window.Start.UTC().Format(isoMillis))
	query.Set("weekEnd", window.End.UTC().Format(isoMillis))
	return r.list(ctx, userID, query)
}

func (r *HTTPGoalRepository) ListAll(ctx context.Context, userID string) ([]domain.WeeklyGoal, error) {
	return r.list(ctx, userID, nil)
}

func (r *HTTPGoalRepository) list(ctx context.Context, userID string, query url.Values) ([]domain.WeeklyGoal, error) {
	var payload []goalPayload
	err := r.client.Do(ctx, restclient.Request{
		Method:   http.MethodGet,
		Path:     []string{resource, userID},
		Query:    query,
		Fallback: "Failed to fetch weekly goals",
	}, &payload)
	if err != nil {
		return nil, err
	}
	out := make([]domain.WeeklyGoal, 0, len(payload))
	for _, p := range payload {
		out = append(out, p.toDomain())
	}
	return out, nil
}

func (r *HTTPGoalRepository) Create(ctx context.Context, goal domain.NewGoal) (domain.WeeklyGoal, error) {
	body := goalPayload{
		UserID:    goal.UserID,
		Subject:   goal.Subject,
		Color:     goal.Color,
		WeekStart: goal.WeekStart,
		WeekEnd:   goal.WeekEnd,
		Topics:    make([]goalTopicPayload, 0, len(goal.Topics)),
	}
	for _, title := range goal.Topics {
		body.Topics = append(body.Topics, goalTopicPayload{Title: title})
	}
	return r.mutate(ctx, restclient.Request{
		Method:   http.MethodPost,
		Path:     []string{resource},
		Body:     body,
		Fallback: "Failed to create weekly goal",
	})
}

func (r *HTTPGoalRepository) Update(ctx context.Context, goalID, subject, color string) (domain.WeeklyGoal, error) {
	body := map[string]string{"subject": subject}
	if color != "" {
		body["color"] = color
	}
	return r.mutate(ctx, restclient.Request{
		Method:   http.MethodPut,
		Path:     []string{resource, goalID},
		Body:     body,
		Fallback: "Failed to update weekly goal",
	})
}

func (r *HTTPGoalRepository) Delete(ctx context.Context, goalID string) error {
	return r.client.Do(ctx, restclient.Request{
		Method:   http.MethodDelete,
		Path:     []string{resource, goalID},
		Fallback: "Failed to delete weekly goal",
	}, nil)
}

func (r *HTTPGoalRepository) AddTopic(ctx context.Context, goalID, title string) (domain.WeeklyGoal, error) {
	return r.mutate(ctx, restclient.Request{
		Method:   http.MethodPost,
		Path:     []string{resource, goalID, "topics"},
		Body:     map[string]string{"title": title},
		Fallback: "Failed to add topic",
	})
}

func (r *HTTPGoalRepository) ToggleTopic(ctx context.Context, goalID, topicID string) (domain.WeeklyGoal, error) {
	return r.mutate(ctx, restclient.Request{
		Method:   http.MethodPut,
		Path:     []string{resource, goalID, "topics", topicID, "toggle"},
		Fallback: "Failed to toggle topic",
	})
}

func (r *HTTPGoalRepository) DeleteTopic(ctx context.Context, goalID, topicID string) (domain.WeeklyGoal, error) {
	return r.mutate(ctx, restclient.Request{
		Method:   http.MethodDelete,
		Path:     []string{resource, goalID, "topics", topicID},
		Fallback: "Failed to delete topic",
	})
}

func (r *HTTPGoalRepository) mutate(ctx context.Context, req restclient.Request) (domain.WeeklyGoal, error) {
	var payload goalPayload
	if err := r.client.Do(ctx, req, &payload); err != nil {
		return domain.WeeklyGoal{}, err
	}
	return payload.toDomain(), nil
}

// toDomain converts timestamps to local time; week arithmetic is local.
func (p goalPayload) toDomain() domain.WeeklyGoal {
	g := domain.WeeklyGoal{
		ID:        p.ID,
		UserID:    p.UserID,
		Subject:   p.Subject,
		Color:     p.Color,
		WeekStart: p.WeekStart.Local(),
		WeekEnd:   p.WeekEnd.Local(),
		Topics:    make([]domain.GoalTopic, 0, len(p.Topics)),
	}
	for _, t := range p.Topics {
		g.Topics = append(g.Topics, domain.GoalTopic{ID: t.ID, Title: t.Title, Completed: t.Completed})
	}
	return g
}
