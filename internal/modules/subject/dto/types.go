package dto

import "time"

type CreateSubjectInput struct {
	Name  string
	Color string
}

type ColorInput struct {
	SubjectID string
	// Color empty means advance from Current to the next palette colour.
	Color   string
	Current string
}

type AddSectionInput struct {
	SubjectID string
	Name      string
}

type SectionRefInput struct {
	SubjectID string
	SectionID string
}

type AddTopicInput struct {
	SubjectID string
	SectionID string
	Name      string
}

type TopicRefInput struct {
	SubjectID string
	SectionID string
	TopicID   string
}

type TopicOutput struct {
	ID        string
	Name      string
	Notes     string
	CreatedAt time.Time
}

type SectionOutput struct {
	ID     string
	Name   string
	Topics []TopicOutput
}

type SubjectOutput struct {
	ID         string
	Name       string
	Color      string
	TopicCount int
	Sections   []SectionOutput
}

type ExportOutput struct {
	Path       string
	TopicCount int
}
