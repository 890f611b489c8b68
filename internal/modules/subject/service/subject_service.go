package service

import (
	"context"
	"fmt"
	"strings"

	"studyhub/internal/modules/subject/domain"
	subjectout "studyhub/internal/modules/subject/port/out"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/keylock"
)

type SubjectService struct {
	repo     subjectout.SubjectRepository
	exporter subjectout.NoteExporter
	locks    *keylock.Locker
}

func NewSubjectService(repo subjectout.SubjectRepository, exporter subjectout.NoteExporter) *SubjectService {
	return &SubjectService{repo: repo, exporter: exporter, locks: keylock.New()}
}

func (s *SubjectService) List(ctx context.Context, userID string) ([]domain.Subject, error) {
	if err := requireText("user id", userID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

func (s *SubjectService) Create(ctx context.Context, userID, name, color string) (domain.Subject, error) {
	if err := requireText("user id", userID, "subject name", name); err != nil {
		return domain.Subject{}, err
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = domain.Palette[0]
	}
	return s.repo.Create(ctx, userID, strings.TrimSpace(name), color)
}

func (s *SubjectService) Delete(ctx context.Context, subjectID string) error {
	if err := requireText("subject id", subjectID); err != nil {
		return err
	}
	return s.locks.Within(ctx, lockKey(subjectID), func(ctx context.Context) error {
		return s.repo.Delete(ctx, subjectID)
	})
}

// UpdateColor sets color, or the palette colour after current when color is
// empty.
func (s *SubjectService) UpdateColor(ctx context.Context, subjectID, color, current string) (domain.Subject, error) {
	if err := requireText("subject id", subjectID); err != nil {
		return domain.Subject{}, err
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = domain.NextColor(current)
	}
	return s.mutate(ctx, subjectID, func(ctx context.Context) (domain.Subject, error) {
		return s.repo.UpdateColor(ctx, subjectID, color)
	})
}

func (s *SubjectService) AddSection(ctx context.Context, subjectID, name string) (domain.Subject, error) {
	if err := requireText("subject id", subjectID, "section name", name); err != nil {
		return domain.Subject{}, err
	}
	return s.mutate(ctx, subjectID, func(ctx context.Context) (domain.Subject, error) {
		return s.repo.AddSection(ctx, subjectID, strings.TrimSpace(name))
	})
}

func (s *SubjectService) DeleteSection(ctx context.Context, subjectID, sectionID string) (domain.Subject, error) {
	if err := requireText("subject id", subjectID, "section id", sectionID); err != nil {
		return domain.Subject{}, err
	}
	return s.mutate(ctx, subjectID, func(ctx context.Context) (domain.Subject, error) {
		return s.repo.DeleteSection(ctx, subjectID, sectionID)
	})
}

func (s *SubjectService) AddTopic(ctx context.Context, subjectID, sectionID, name string) (domain.Subject, error) {
	if err := requireText("subject id", subjectID, "section id", sectionID, "topic name", name); err != nil {
		return domain.Subject{}, err
	}
	return s.mutate(ctx, subjectID, func(ctx context.Context) (domain.Subject, error) {
		return s.repo.AddTopic(ctx, subjectID, sectionID, strings.TrimSpace(name))
	})
}

func (s *SubjectService) DeleteTopic(ctx context.Context, subjectID, sectionID, topicID string) (domain.Subject, error) {
	if err := requireText("subject id", subjectID, "section id", sectionID, "topic id", topicID); err != nil {
		return domain.Subject{}, err
	}
	return s.mutate(ctx, subjectID, func(ctx context.Context) (domain.Subject, error) {
		return s.repo.DeleteTopic(ctx, subjectID, sectionID, topicID)
	})
}

// Export writes the latest server copy of one subject.
func (s *SubjectService) Export(ctx context.Context, userID, subjectID string) (domain.Subject, string, error) {
	if s.exporter == nil {
		return domain.Subject{}, "", fmt.Errorf("subject exporter is not configured")
	}
	subjects, err := s.List(ctx, userID)
	if err != nil {
		return domain.Subject{}, "", err
	}
	for _, subject := range subjects {
		if subject.ID == subjectID {
			path, err := s.exporter.Export(ctx, subject)
			return subject, path, err
		}
	}
	return domain.Subject{}, "", fmt.Errorf("%w: subject %s", apperrors.ErrNotFound, subjectID)
}

// mutate holds the subject's lock for the round trip. Sections and topics
// share their subject's lock since every change rewrites the whole tree.
func (s *SubjectService) mutate(ctx context.Context, subjectID string, fn func(context.Context) (domain.Subject, error)) (domain.Subject, error) {
	var out domain.Subject
	err := s.locks.Within(ctx, lockKey(subjectID), func(ctx context.Context) error {
		subject, err := fn(ctx)
		if err != nil {
			return err
		}
		out = subject
		return nil
	})
	return out, err
}

func lockKey(subjectID string) string {
	return "subject:" + subjectID
}

func requireText(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s is required", apperrors.ErrInvalidInput, pairs[i])
		}
	}
	return nil
}
