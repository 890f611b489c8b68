package dto

import "time"

type CreateGoalInput struct {
	Subject string
	Color   string
	// Day is any instant inside the target week.
	Day    time.Time
	Topics []string
}

type UpdateGoalInput struct {
	GoalID  string
	Subject string
	Color   string
}

type AddTopicInput struct {
	GoalID string
	Title  string
}

type TopicRefInput struct {
	GoalID  string
	TopicID string
}

type WeekInput struct {
	Day time.Time
}

type StripInput struct {
	Day    time.Time
	Before int
	After  int
}

type ExportInput struct {
	Day time.Time
}

type GoalTopicOutput struct {
	ID        string
	Title     string
	Completed bool
}

type GoalOutput struct {
	ID        string
	Subject   string
	Color     string
	WeekStart time.Time
	WeekEnd   time.Time
	Progress  int
	Topics    []GoalTopicOutput
}

type SummaryOutput struct {
	WeekStart       time.Time
	Label           string
	Count           int
	CompletedTopics int
	TotalTopics     int
}

type WeekOutput struct {
	Start   time.Time
	End     time.Time
	Label   string
	Key     string
	Goals   []GoalOutput
	Summary SummaryOutput
}

type ExportOutput struct {
	Path  string
	Key   string
	Count int
}
