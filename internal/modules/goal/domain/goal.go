package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	weekdomain "studyhub/internal/modules/week/domain"
)

const SchemaVersion = 1

// WeeklyGoal is the aggregate root returned by every goal mutation.
type WeeklyGoal struct {
	ID        string
	UserID    string
	Subject   string
	Color     string
	WeekStart time.Time
	WeekEnd   time.Time
	Topics    []GoalTopic
}

type GoalTopic struct {
	ID        string
	Title     string
	Completed bool
}

// NewGoal is what a client sends to create a goal; the server assigns IDs.
type NewGoal struct {
	UserID    string
	Subject   string
	Color     string
	WeekStart time.Time
	WeekEnd   time.Time
	Topics    []string
}

// Summary is the at-a-glance strip entry for one week.
type Summary struct {
	WeekStart       time.Time
	Count           int
	CompletedTopics int
	TotalTopics     int
}

func (g WeeklyGoal) CompletedTopics() int {
	n := 0
	for _, t := range g.Topics {
		if t.Completed {
			n++
		}
	}
	return n
}

// Progress is the rounded completion percentage; 0 for a goal with no topics.
func Progress(g WeeklyGoal) int {
	if len(g.Topics) == 0 {
		return 0
	}
	return int(math.Round(float64(g.CompletedTopics()) * 100 / float64(len(g.Topics))))
}

// GoalsInWeek keeps the goals whose week starts on monday's week, in input
// order. Weeks are compared in monday's location.
func GoalsInWeek(goals []WeeklyGoal, monday time.Time) []WeeklyGoal {
	out := make([]WeeklyGoal, 0, len(goals))
	for _, g := range goals {
		if weekdomain.SameWeekIn(g.WeekStart, monday, monday.Location()) {
			out = append(out, g)
		}
	}
	return out
}

func WeekSummary(goals []WeeklyGoal, monday time.Time) Summary {
	s := Summary{WeekStart: weekdomain.MondayOf(monday)}
	for _, g := range GoalsInWeek(goals, monday) {
		s.Count++
		s.CompletedTopics += g.CompletedTopics()
		s.TotalTopics += len(g.Topics)
	}
	return s
}

// Summaries computes one Summary per window, in window order.
func Summaries(goals []WeeklyGoal, windows []weekdomain.Window) []Summary {
	out := make([]Summary, 0, len(windows))
	for _, w := range windows {
		out = append(out, WeekSummary(goals, w.Start))
	}
	return out
}

// RequireText rejects blank values; it is the only validation the client does.
func RequireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func (n NewGoal) Validate() error {
	if err := RequireText("user id", n.UserID); err != nil {
		return err
	}
	if err := RequireText("subject", n.Subject); err != nil {
		return err
	}
	if n.WeekStart.IsZero() || n.WeekEnd.Before(n.WeekStart) {
		return fmt.Errorf("week window is invalid")
	}
	for _, t := range n.Topics {
		if err := RequireText("topic title", t); err != nil {
			return err
		}
	}
	return nil
}
