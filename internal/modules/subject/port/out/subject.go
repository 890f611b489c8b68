package out

import (
	"context"

	"studyhub/internal/modules/subject/domain"
)

// SubjectRepository returns the full Subject after every mutation; callers
// adopt it wholesale.
type SubjectRepository interface {
	List(ctx context.Context, userID string) ([]domain.Subject, error)
	Create(ctx context.Context, userID, name, color string) (domain.Subject, error)
	Delete(ctx context.Context, subjectID string) error
	UpdateColor(ctx context.Context, subjectID, color string) (domain.Subject, error)
	AddSection(ctx context.Context, subjectID, name string) (domain.Subject, error)
	DeleteSection(ctx context.Context, subjectID, sectionID string) (domain.Subject, error)
	AddTopic(ctx context.Context, subjectID, sectionID, name string) (domain.Subject, error)
	DeleteTopic(ctx context.Context, subjectID, sectionID, topicID string) (domain.Subject, error)
}

// NoteExporter writes a subject outline to a Markdown note and returns
// its path.
type NoteExporter interface {
	Export(ctx context.Context, subject domain.Subject) (string, error)
}

type Identity interface {
	UserID(ctx context.Context) (string, error)
}
