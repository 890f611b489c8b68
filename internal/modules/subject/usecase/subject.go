package usecase

import (
	"context"
	"fmt"

	"studyhub/internal/modules/subject/domain"
	"studyhub/internal/modules/subject/dto"
	subjectin "studyhub/internal/modules/subject/port/in"
	subjectout "studyhub/internal/modules/subject/port/out"
	"studyhub/internal/modules/subject/service"
)

type Interactor struct {
	svc      *service.SubjectService
	identity subjectout.Identity
}

func NewInteractor(svc *service.SubjectService, identity subjectout.Identity) subjectin.Usecase {
	return &Interactor{svc: svc, identity: identity}
}

func (i *Interactor) List(ctx context.Context) ([]dto.SubjectOutput, error) {
	userID, err := i.userID(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := i.svc.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SubjectOutput, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, toOutput(s))
	}
	return out, nil
}

func (i *Interactor) Create(ctx context.Context, input dto.CreateSubjectInput) (dto.SubjectOutput, error) {
	userID, err := i.userID(ctx)
	if err != nil {
		return dto.SubjectOutput{}, err
	}
	return i.adopt(i.svc.Create(ctx, userID, input.Name, input.Color))
}

func (i *Interactor) Delete(ctx context.Context, subjectID string) error {
	if _, err := i.userID(ctx); err != nil {
		return err
	}
	return i.svc.Delete(ctx, subjectID)
}

func (i *Interactor) UpdateColor(ctx context.Context, input dto.ColorInput) (dto.SubjectOutput, error) {
	if _, err := i.userID(ctx); err != nil {
		return dto.SubjectOutput{}, err
	}
	return i.adopt(i.svc.UpdateColor(ctx, input.SubjectID, input.Color, input.Current))
}

func (i *Interactor) AddSection(ctx context.Context, input dto.AddSectionInput) (dto.SubjectOutput, error) {
	if _, err := i.userID(ctx); err != nil {
		return dto.SubjectOutput{}, err
	}
	return i.adopt(i.svc.AddSection(ctx, input.SubjectID, input.Name))
}

func (i *Interactor) DeleteSection(ctx context.Context, input dto.SectionRefInput) (dto.SubjectOutput, error) {
	if _, err := i.userID(ctx); err != nil {
		return dto.SubjectOutput{}, err
	}
	return i.adopt(i.svc.DeleteSection(ctx, input.SubjectID, input.SectionID))
}

func (i *Interactor) AddTopic(ctx context.Context, input dto.AddTopicInput) (dto.SubjectOutput, error) {
	if _, err := i.userID(ctx); err != nil {
		return dto.SubjectOutput{}, err
	}
	return i.adopt(i.svc.AddTopic(ctx, input.SubjectID, input.SectionID, input.Name))
}

func (i *Interactor) DeleteTopic(ctx context.Context, input dto.TopicRefInput) (dto.SubjectOutput, error) {
	if _, err := i.userID(ctx); err != nil {
		return dto.SubjectOutput{}, err
	}
	return i.adopt(i.svc.DeleteTopic(ctx, input.SubjectID, input.SectionID, input.TopicID))
}

func (i *Interactor) Export(ctx context.Context, subjectID string) (dto.ExportOutput, error) {
	userID, err := i.userID(ctx)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	subject, path, err := i.svc.Export(ctx, userID, subjectID)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	return dto.ExportOutput{Path: path, TopicCount: subject.TopicCount()}, nil
}

func (i *Interactor) adopt(subject domain.Subject, err error) (dto.SubjectOutput, error) {
	if err != nil {
		return dto.SubjectOutput{}, err
	}
	return toOutput(subject), nil
}

func (i *Interactor) userID(ctx context.Context) (string, error) {
	if i.identity == nil {
		return "", fmt.Errorf("identity is not configured")
	}
	return i.identity.UserID(ctx)
}

func toOutput(s domain.Subject) dto.SubjectOutput {
	out := dto.SubjectOutput{
		ID:         s.ID,
		Name:       s.Name,
		Color:      s.Color,
		TopicCount: s.TopicCount(),
		Sections:   make([]dto.SectionOutput, 0, len(s.Sections)),
	}
	for _, sec := range s.Sections {
		so := dto.SectionOutput{ID: sec.ID, Name: sec.Name, Topics: make([]dto.TopicOutput, 0, len(sec.Topics))}
		for _, t := range sec.Topics {
			so.Topics = append(so.Topics, dto.TopicOutput{ID: t.ID, Name: t.Name, Notes: t.Notes, CreatedAt: t.CreatedAt})
		}
		out.Sections = append(out.Sections, so)
	}
	return out
}
