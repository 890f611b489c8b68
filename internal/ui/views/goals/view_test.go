package goals_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	goaldto "studyhub/internal/modules/goal/dto"
	weekdomain "studyhub/internal/modules/week/domain"
	"studyhub/internal/platform/clock"
	"studyhub/internal/platform/logging"
	"studyhub/internal/ui/views/goals"
)

var today = time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)

type fakePort struct {
	goals     []goaldto.GoalOutput
	weekCalls []time.Time
	stripHits int
	nextID    int
}

func (f *fakePort) Week(_ context.Context, day time.Time) (goaldto.WeekOutput, error) {
	f.weekCalls = append(f.weekCalls, day)
	w := weekdomain.WindowOf(day)
	out := goaldto.WeekOutput{Start: w.Start, End: w.End, Label: w.Label(), Key: w.Key()}
	for _, g := range f.goals {
		if weekdomain.SameWeekIn(g.WeekStart, w.Start, w.Start.Location()) {
			out.Goals = append(out.Goals, g)
		}
	}
	return out, nil
}

func (f *fakePort) Strip(_ context.Context, day time.Time, before, after int) ([]goaldto.SummaryOutput, error) {
	f.stripHits++
	w := weekdomain.WindowOf(day)
	var out []goaldto.SummaryOutput
	for i := -before; i <= after; i++ {
		s := w.Shift(i)
		out = append(out, goaldto.SummaryOutput{WeekStart: s.Start, Label: s.Label()})
	}
	return out, nil
}

func (f *fakePort) Create(_ context.Context, subject, color string, day time.Time, topics []string) (goaldto.GoalOutput, error) {
	f.nextID++
	w := weekdomain.WindowOf(day)
	g := goaldto.GoalOutput{ID: fmt.Sprintf("g-%d", f.nextID), Subject: subject, WeekStart: w.Start, WeekEnd: w.End}
	for i, title := range topics {
		g.Topics = append(g.Topics, goaldto.GoalTopicOutput{ID: fmt.Sprintf("%s-t%d", g.ID, i), Title: title})
	}
	f.goals = append(f.goals, g)
	return g, nil
}

func (f *fakePort) Update(_ context.Context, goalID, subject, color string) (goaldto.GoalOutput, error) {
	return f.edit(goalID, func(g *goaldto.GoalOutput) { g.Subject = subject })
}

func (f *fakePort) Delete(context.Context, string) error { return nil }

func (f *fakePort) AddTopic(_ context.Context, goalID, title string) (goaldto.GoalOutput, error) {
	return f.edit(goalID, func(g *goaldto.GoalOutput) {
		g.Topics = append(g.Topics, goaldto.GoalTopicOutput{ID: "new", Title: title})
	})
}

func (f *fakePort) ToggleTopic(_ context.Context, goalID, topicID string) (goaldto.GoalOutput, error) {
	return f.edit(goalID, func(g *goaldto.GoalOutput) {
		done := 0
		for i := range g.Topics {
			if g.Topics[i].ID == topicID {
				g.Topics[i].Completed = !g.Topics[i].Completed
			}
			if g.Topics[i].Completed {
				done++
			}
		}
		g.Progress = done * 100 / len(g.Topics)
	})
}

func (f *fakePort) DeleteTopic(context.Context, string, string) (goaldto.GoalOutput, error) {
	return goaldto.GoalOutput{}, errors.New("Failed to delete topic")
}

func (f *fakePort) Export(context.Context, time.Time) (goaldto.ExportOutput, error) {
	return goaldto.ExportOutput{}, nil
}

func (f *fakePort) edit(id string, fn func(*goaldto.GoalOutput)) (goaldto.GoalOutput, error) {
	for i := range f.goals {
		if f.goals[i].ID == id {
			fn(&f.goals[i])
			return f.goals[i], nil
		}
	}
	return goaldto.GoalOutput{}, errors.New("Weekly goal not found")
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if _, ok := msg.(spinner.TickMsg); ok {
		return nil
	}
	return []tea.Msg{msg}
}

func settle(m goals.Model, cmd tea.Cmd) goals.Model {
	queue := run(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		var next tea.Cmd
		m, next = m.Update(msg)
		queue = append(queue, run(next)...)
	}
	return m
}

func press(m goals.Model, keys string) (goals.Model, tea.Cmd) {
	if keys == " " {
		return m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	}
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func withGoal() *fakePort {
	w := weekdomain.WindowOf(today)
	return &fakePort{goals: []goaldto.GoalOutput{{
		ID: "g1", Subject: "DSA", WeekStart: w.Start, WeekEnd: w.End,
		Topics: []goaldto.GoalTopicOutput{{ID: "t1", Title: "Heaps"}, {ID: "t2", Title: "Tries"}},
	}}}
}

func loaded(t *testing.T, port *fakePort) goals.Model {
	t.Helper()
	m := goals.New(port, clock.Fixed{At: today}, logging.Discard())
	m = settle(m, m.Init())
	if m.Loading() {
		t.Fatalf("expected ready state after load")
	}
	return m
}

func TestLoadsCurrentWeekAndStrip(t *testing.T) {
	t.Parallel()
	m := loaded(t, withGoal())
	if m.Week().Key != "2026-W42" || len(m.Week().Goals) != 1 {
		t.Fatalf("unexpected week: %+v", m.Week())
	}
	strip := m.Strip()
	if len(strip) != 4 {
		t.Fatalf("expected previous, current and two next weeks, got %d", len(strip))
	}
	if !strip[1].WeekStart.Equal(m.Week().Start) {
		t.Fatalf("current week should be second in the strip")
	}
}

func TestToggleAdoptsSnapshotAndRefreshesStrip(t *testing.T) {
	t.Parallel()
	port := withGoal()
	m := loaded(t, port)
	stripBefore := port.stripHits

	m, _ = press(m, "j")
	m, cmd := press(m, " ")
	if !m.Pending("t1") {
		t.Fatalf("expected topic t1 pending")
	}
	m = settle(m, cmd)
	g := m.Week().Goals[0]
	if !g.Topics[0].Completed || g.Progress != 50 {
		t.Fatalf("snapshot not adopted: %+v", g)
	}
	if port.stripHits != stripBefore+1 {
		t.Fatalf("strip should reload after a mutation")
	}

	m, cmd = press(m, " ")
	m = settle(m, cmd)
	if g := m.Week().Goals[0]; g.Topics[0].Completed || g.Progress != 0 {
		t.Fatalf("second toggle should restore the topic: %+v", g)
	}
}

func TestToggleIgnoredWhilePending(t *testing.T) {
	t.Parallel()
	m := loaded(t, withGoal())
	m, _ = press(m, "j")
	m, first := press(m, " ")
	m, second := press(m, " ")
	if second != nil {
		t.Fatalf("toggle must be disabled while in flight")
	}
	m = settle(m, first)
	if !m.Week().Goals[0].Topics[0].Completed {
		t.Fatalf("first toggle lost")
	}
}

func TestStaleWeekResultIsDropped(t *testing.T) {
	t.Parallel()
	port := withGoal()
	m := loaded(t, port)

	m, next := m.NextWeek()
	m, back := m.PrevWeek()
	m = settle(m, next)
	if !m.Loading() {
		t.Fatalf("answer for an abandoned week must be ignored")
	}
	m = settle(m, back)
	if m.Week().Key != "2026-W42" || len(m.Week().Goals) != 1 {
		t.Fatalf("unexpected week after navigating back: %+v", m.Week())
	}
}

func TestAddGoalLandsInDisplayedWeek(t *testing.T) {
	t.Parallel()
	port := &fakePort{}
	m := loaded(t, port)
	m, cmd := m.NextWeek()
	m = settle(m, cmd)

	m, cmd = m.AddGoal("Networks: TCP, UDP")
	m = settle(m, cmd)
	goalsInWeek := m.Week().Goals
	if len(goalsInWeek) != 1 || goalsInWeek[0].Subject != "Networks" || len(goalsInWeek[0].Topics) != 2 {
		t.Fatalf("unexpected goals: %+v", goalsInWeek)
	}
	if m.Week().Key != "2026-W43" || !weekdomain.SameWeekIn(goalsInWeek[0].WeekStart, today.AddDate(0, 0, 7), time.UTC) {
		t.Fatalf("goal created outside the displayed week: %+v", goalsInWeek[0])
	}
}

func TestFailedTopicDeleteKeepsState(t *testing.T) {
	t.Parallel()
	m := loaded(t, withGoal())
	m, _ = press(m, "j")
	m, cmd := press(m, "d")
	m = settle(m, cmd)
	if len(m.Week().Goals[0].Topics) != 2 || m.Pending("t1") {
		t.Fatalf("failed delete must leave the goal untouched: %+v", m.Week().Goals[0])
	}
}

func TestTodayReturnsToClockWeek(t *testing.T) {
	t.Parallel()
	port := withGoal()
	m := loaded(t, port)
	m, cmd := press(m, "]")
	m = settle(m, cmd)
	m, cmd = press(m, "t")
	m = settle(m, cmd)
	if m.Week().Key != "2026-W42" {
		t.Fatalf("today should return to the clock's week, got %s", m.Week().Key)
	}
}

func TestParseGoalInput(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in      string
		subject string
		topics  []string
	}{
		{"DSA: heaps, tries", "DSA", []string{"heaps", "tries"}},
		{"  OS  ", "OS", nil},
		{"Math: , limits,", "Math", []string{"limits"}},
	}
	for _, tc := range cases {
		subject, topics := goals.ParseGoalInput(tc.in)
		if subject != tc.subject || !reflect.DeepEqual(topics, tc.topics) {
			t.Fatalf("ParseGoalInput(%q) = %q %v", tc.in, subject, topics)
		}
	}
}
