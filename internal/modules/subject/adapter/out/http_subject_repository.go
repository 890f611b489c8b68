package out

import (
	"context"
	"net/http"
	"time"

	"studyhub/internal/modules/subject/domain"
	subjectout "studyhub/internal/modules/subject/port/out"
	"studyhub/internal/platform/restclient"
)

const resource = "subject-topics"

type topicPayload struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type sectionPayload struct {
	ID     string         `json:"_id"`
	Name   string         `json:"name"`
	Topics []topicPayload `json:"topics"`
}

type subjectPayload struct {
	ID       string           `json:"_id"`
	UserID   string           `json:"userId"`
	Name     string           `json:"name"`
	Color    string           `json:"color"`
	Sections []sectionPayload `json:"sections"`
}

type HTTPSubjectRepository struct {
	client *restclient.Client
}

func NewHTTPSubjectRepository(client *restclient.Client) subjectout.SubjectRepository {
	return &HTTPSubjectRepository{client: client}
}

func (r *HTTPSubjectRepository) List(ctx context.Context, userID string) ([]domain.Subject, error) {
	var payload []subjectPayload
	err := r.client.Do(ctx, restclient.Request{
		Method:   http.MethodGet,
		Path:     []string{resource, userID},
		Fallback: "Failed to fetch subjects",
	}, &payload)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Subject, 0, len(payload))
	for _, p := range payload {
		out = append(out, p.toDomain())
	}
	return out, nil
}

func (r *HTTPSubjectRepository) Create(ctx context.Context, userID, name, color string) (domain.Subject, error) {
	return r.mutate(ctx, restclient.Request{
		Method:   http.MethodPost,
		Path:     []string{resource},
		Body:     map[string]string{"userId": userID, "name": name, "color": color},
		Fallback: "Failed to create subject",
	})
}

func (r *HTTPSubjectRepository) Delete(ctx context.Context, subjectID string) error {
	return r.client.Do(ctx, restclient.Request{
		Method:   http.MethodDelete,
		Path:     []string{resource, subjectID},
		Fallback: "Failed to delete subject",
	}, nil)
}

func (r *HTTPSubjectRepository) UpdateColor(ctx context.Context, subjectID, color string) (domain.Subject, error) {
	return r.mutate(ctx, restclient.Request{
		Method:   http.MethodPatch,
		Path:     []string{resource, subjectID, "color"},
		Body:     map[string]string{"color": color},
		Fallback: "Failed to update subject color",
	})
}

func (r *HTTPSubjectRepository) AddSection(ctx context.Context, subjectID, name string) (domain.Subject, error) {
	return r.mutate(ctx, restclient.Request{
		Method:   http.MethodPost,
		Path:     []string{resource, subjectID, "sections"},
		Body:     map[string]string{"name": name},
		Fallback: "Failed to add section",
	})
}

func (r *HTTPSubjectRepository) DeleteSection(ctx context.Context, subjectID, sectionID string) (domain.Subject, error) {
	return r.mutate(ctx, restclient.Request{
		Method:   http.MethodDelete,
		Path:     []string{resource, subjectID, "sections", sectionID},
		Fallback: "Failed to delete section",
	})
}

func (r *HTTPSubjectRepository) AddTopic(ctx context.Context, subjectID, sectionID, name string) (domain.Subject, error) {
	return r.mutate(ctx, restclient.Request{
		Method:   http.MethodPost,
		Path:     []string{resource, subjectID, "sections", sectionID, "topics"},
		Body:     map[string]string{"name": name},
		Fallback: "Failed to add topic",
	})
}

func (r *HTTPSubjectRepository) DeleteTopic(ctx context.Context, subjectID, sectionID, topicID string) (domain.Subject, error) {
	return r.mutate(ctx, restclient.Request{
		Method:   http.MethodDelete,
		Path:     []string{resource, subjectID, "sections", sectionID, "topics", topicID},
		Fallback: "Failed to delete topic",
	})
}

func (r *HTTPSubjectRepository) mutate(ctx context.Context, req restclient.Request) (domain.Subject, error) {
	var payload subjectPayload
	if err := r.client.Do(ctx, req, &payload); err != nil {
		return domain.Subject{}, err
	}
	return payload.toDomain(), nil
}

func (p subjectPayload) toDomain() domain.Subject {
	s := domain.Subject{
		ID:       p.ID,
		UserID:   p.UserID,
		Name:     p.Name,
		Color:    p.Color,
		Sections: make([]domain.Section, 0, len(p.Sections)),
	}
	for _, sec := range p.Sections {
		ds := domain.Section{ID: sec.ID, Name: sec.Name, Topics: make([]domain.Topic, 0, len(sec.Topics))}
		for _, t := range sec.Topics {
			ds.Topics = append(ds.Topics, domain.Topic{ID: t.ID, Name: t.Name, Notes: t.Notes, CreatedAt: t.CreatedAt.Local()})
		}
		s.Sections = append(s.Sections, ds)
	}
	return s
}
