package in

import (
	"context"

	"studyhub/internal/modules/subject/dto"
	subjectin "studyhub/internal/modules/subject/port/in"
)

type CLIHandler struct {
	usecase subjectin.Usecase
}

func NewCLIHandler(usecase subjectin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.SubjectOutput, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Create(ctx context.Context, name, color string) (dto.SubjectOutput, error) {
	return h.usecase.Create(ctx, dto.CreateSubjectInput{Name: name, Color: color})
}

func (h CLIHandler) Delete(ctx context.Context, subjectID string) error {
	return h.usecase.Delete(ctx, subjectID)
}

func (h CLIHandler) SetColor(ctx context.Context, subjectID, color, current string) (dto.SubjectOutput, error) {
	return h.usecase.UpdateColor(ctx, dto.ColorInput{SubjectID: subjectID, Color: color, Current: current})
}

func (h CLIHandler) AddSection(ctx context.Context, subjectID, name string) (dto.SubjectOutput, error) {
	return h.usecase.AddSection(ctx, dto.AddSectionInput{SubjectID: subjectID, Name: name})
}

func (h CLIHandler) DeleteSection(ctx context.Context, subjectID, sectionID string) (dto.SubjectOutput, error) {
	return h.usecase.DeleteSection(ctx, dto.SectionRefInput{SubjectID: subjectID, SectionID: sectionID})
}

func (h CLIHandler) AddTopic(ctx context.Context, subjectID, sectionID, name string) (dto.SubjectOutput, error) {
	return h.usecase.AddTopic(ctx, dto.AddTopicInput{SubjectID: subjectID, SectionID: sectionID, Name: name})
}

func (h CLIHandler) DeleteTopic(ctx context.Context, subjectID, sectionID, topicID string) (dto.SubjectOutput, error) {
	return h.usecase.DeleteTopic(ctx, dto.TopicRefInput{SubjectID: subjectID, SectionID: sectionID, TopicID: topicID})
}

func (h CLIHandler) Export(ctx context.Context, subjectID string) (dto.ExportOutput, error) {
	return h.usecase.Export(ctx, subjectID)
}
