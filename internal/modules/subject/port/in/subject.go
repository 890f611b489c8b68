package in

import (
	"context"

	"studyhub/internal/modules/subject/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.SubjectOutput, error)
	Create(ctx context.Context, input dto.CreateSubjectInput) (dto.SubjectOutput, error)
	Delete(ctx context.Context, subjectID string) error
	UpdateColor(ctx context.Context, input dto.ColorInput) (dto.SubjectOutput, error)
	AddSection(ctx context.Context, input dto.AddSectionInput) (dto.SubjectOutput, error)
	DeleteSection(ctx context.Context, input dto.SectionRefInput) (dto.SubjectOutput, error)
	AddTopic(ctx context.Context, input dto.AddTopicInput) (dto.SubjectOutput, error)
	DeleteTopic(ctx context.Context, input dto.TopicRefInput) (dto.SubjectOutput, error)
	Export(ctx context.Context, subjectID string) (dto.ExportOutput, error)
}
