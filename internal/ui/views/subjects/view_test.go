package subjects_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	subjectdto "studyhub/internal/modules/subject/dto"
	"studyhub/internal/platform/logging"
	"studyhub/internal/ui/components"
	"studyhub/internal/ui/views/subjects"
)

type fakePort struct {
	mu        sync.Mutex
	subjects  []subjectdto.SubjectOutput
	colorHits int
	deleteErr error
	nextID    int
}

func (f *fakePort) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakePort) List(context.Context) ([]subjectdto.SubjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]subjectdto.SubjectOutput(nil), f.subjects...), nil
}

func (f *fakePort) Create(_ context.Context, name, color string) (subjectdto.SubjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := subjectdto.SubjectOutput{ID: f.id("s"), Name: name, Color: "#3b82f6"}
	f.subjects = append(f.subjects, s)
	return s, nil
}

func (f *fakePort) Delete(_ context.Context, subjectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteErr
}

func (f *fakePort) SetColor(_ context.Context, subjectID, color, current string) (subjectdto.SubjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.colorHits++
	return f.edit(subjectID, func(s *subjectdto.SubjectOutput) { s.Color = "#10b981" })
}

func (f *fakePort) AddSection(_ context.Context, subjectID, name string) (subjectdto.SubjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("sec")
	return f.edit(subjectID, func(s *subjectdto.SubjectOutput) {
		s.Sections = append(s.Sections, subjectdto.SectionOutput{ID: id, Name: name})
	})
}

func (f *fakePort) DeleteSection(_ context.Context, subjectID, sectionID string) (subjectdto.SubjectOutput, error) {
	return subjectdto.SubjectOutput{}, errors.New("not used")
}

func (f *fakePort) AddTopic(_ context.Context, subjectID, sectionID, name string) (subjectdto.SubjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("t")
	return f.edit(subjectID, func(s *subjectdto.SubjectOutput) {
		for i := range s.Sections {
			if s.Sections[i].ID == sectionID {
				s.Sections[i].Topics = append(s.Sections[i].Topics, subjectdto.TopicOutput{ID: id, Name: name})
				s.TopicCount++
			}
		}
	})
}

func (f *fakePort) DeleteTopic(_ context.Context, subjectID, sectionID, topicID string) (subjectdto.SubjectOutput, error) {
	return subjectdto.SubjectOutput{}, errors.New("not used")
}

func (f *fakePort) Export(_ context.Context, subjectID string) (subjectdto.ExportOutput, error) {
	return subjectdto.ExportOutput{Path: "/tmp/" + subjectID + ".md"}, nil
}

func (f *fakePort) edit(id string, fn func(*subjectdto.SubjectOutput)) (subjectdto.SubjectOutput, error) {
	for i := range f.subjects {
		if f.subjects[i].ID == id {
			fn(&f.subjects[i])
			return f.subjects[i], nil
		}
	}
	return subjectdto.SubjectOutput{}, errors.New("Subject not found")
}

// run executes cmd and flattens batches. Spinner ticks are dropped so that
// nothing schedules a timer.
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

func settle(m subjects.Model, cmd tea.Cmd) subjects.Model {
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

func press(m subjects.Model, keys string) (subjects.Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func loaded(t *testing.T, port *fakePort) subjects.Model {
	t.Helper()
	m := subjects.New(port, logging.Discard())
	m = settle(m, m.Init())
	if m.Loading() {
		t.Fatalf("expected ready state after load")
	}
	return m
}

func TestAddSectionAdoptsServerSnapshot(t *testing.T) {
	t.Parallel()
	port := &fakePort{subjects: []subjectdto.SubjectOutput{{ID: "s1", Name: "DSA", Color: "#3b82f6"}}}
	m := loaded(t, port)

	m, cmd := m.Update(components.PromptSubmitMsg{Owner: "subjects", Purpose: "section", Target: "s1", Value: "Arrays"})
	if !m.Pending("s1") {
		t.Fatalf("expected s1 to be pending while the request is in flight")
	}
	m = settle(m, cmd)
	if m.Pending("s1") {
		t.Fatalf("pending flag not cleared")
	}
	got := m.Subjects()[0]
	if len(got.Sections) != 1 || got.Sections[0].Name != "Arrays" || len(got.Sections[0].Topics) != 0 {
		t.Fatalf("unexpected subject after add: %+v", got)
	}
}

func TestListOlderThanAdoptedSnapshotIsDropped(t *testing.T) {
	t.Parallel()
	port := &fakePort{subjects: []subjectdto.SubjectOutput{{ID: "s1", Name: "DSA", Color: "#3b82f6"}}}
	m := loaded(t, port)

	m, addCmd := m.Update(components.PromptSubmitMsg{Owner: "subjects", Purpose: "section", Target: "s1", Value: "Arrays"})
	m, reloadCmd := m.Reload()
	// The reload is answered before the section lands on the server.
	stale := run(reloadCmd)
	for _, msg := range run(addCmd) {
		m, _ = m.Update(msg)
	}
	if len(m.Subjects()[0].Sections) != 1 {
		t.Fatalf("mutation snapshot not adopted: %+v", m.Subjects())
	}

	var refetch tea.Cmd
	for _, msg := range stale {
		m, refetch = m.Update(msg)
	}
	if got := m.Subjects()[0]; len(got.Sections) != 1 || got.Sections[0].Name != "Arrays" {
		t.Fatalf("stale list overwrote the adopted snapshot: %+v", got)
	}
	if !m.Loading() || refetch == nil {
		t.Fatalf("a dropped reload should be issued again")
	}
	m = settle(m, refetch)
	if m.Loading() || len(m.Subjects()[0].Sections) != 1 {
		t.Fatalf("refetched list should settle with the section, got %+v", m.Subjects())
	}
}

func TestSameEntityMutationIsDisabledWhileInFlight(t *testing.T) {
	t.Parallel()
	port := &fakePort{subjects: []subjectdto.SubjectOutput{{ID: "s1", Name: "DSA", Color: "#3b82f6"}}}
	m := loaded(t, port)

	m, first := press(m, "c")
	m, second := press(m, "c")
	if second != nil {
		t.Fatalf("second colour change must be ignored while the first is pending")
	}
	m = settle(m, first)
	if port.colorHits != 1 {
		t.Fatalf("expected one colour request, got %d", port.colorHits)
	}
	if m.Subjects()[0].Color != "#10b981" {
		t.Fatalf("colour not adopted: %+v", m.Subjects()[0])
	}
}

func TestDifferentEntitiesProceedIndependently(t *testing.T) {
	t.Parallel()
	port := &fakePort{subjects: []subjectdto.SubjectOutput{
		{ID: "s1", Name: "DSA", Color: "#3b82f6"},
		{ID: "s2", Name: "OS", Color: "#3b82f6"},
	}}
	m := loaded(t, port)

	m, first := press(m, "c")
	m, _ = press(m, "j")
	m, second := press(m, "c")
	if !m.Pending("s1") || !m.Pending("s2") {
		t.Fatalf("expected both subjects pending")
	}
	// Completions may arrive in either order.
	m = settle(m, second)
	m = settle(m, first)
	for _, s := range m.Subjects() {
		if s.Color != "#10b981" {
			t.Fatalf("subject %s not updated: %+v", s.ID, s)
		}
	}
}

func TestFailedMutationLeavesStateAndLogs(t *testing.T) {
	t.Parallel()
	port := &fakePort{
		subjects:  []subjectdto.SubjectOutput{{ID: "s1", Name: "DSA"}},
		deleteErr: errors.New("Failed to delete subject"),
	}
	var buf bytes.Buffer
	m := subjects.New(port, logging.Setup(&buf, "info"))
	m = settle(m, m.Init())

	m, cmd := press(m, "d")
	m = settle(m, cmd)
	if len(m.Subjects()) != 1 {
		t.Fatalf("failed delete must keep the subject, got %+v", m.Subjects())
	}
	if m.Pending("s1") {
		t.Fatalf("pending flag not cleared after failure")
	}
	if !strings.Contains(buf.String(), "subject mutation failed") || !strings.Contains(buf.String(), "Failed to delete subject") {
		t.Fatalf("failure not logged: %s", buf.String())
	}
}

func TestDeleteRemovesSubject(t *testing.T) {
	t.Parallel()
	port := &fakePort{subjects: []subjectdto.SubjectOutput{{ID: "s1", Name: "DSA"}, {ID: "s2", Name: "OS"}}}
	m := loaded(t, port)

	m, cmd := press(m, "d")
	m = settle(m, cmd)
	if len(m.Subjects()) != 1 || m.Subjects()[0].ID != "s2" {
		t.Fatalf("unexpected subjects after delete: %+v", m.Subjects())
	}
}

func TestAddTopicThroughTree(t *testing.T) {
	t.Parallel()
	port := &fakePort{subjects: []subjectdto.SubjectOutput{{
		ID: "s1", Name: "DSA",
		Sections: []subjectdto.SectionOutput{{ID: "sec-a", Name: "Arrays"}},
	}}}
	m := loaded(t, port)

	m, _ = press(m, "l")
	m, _ = press(m, "j")
	m, cmd := m.AddTopic("Two pointers")
	if !m.Pending("sec-a") {
		t.Fatalf("expected the section to be pending")
	}
	m = settle(m, cmd)
	got := m.Subjects()[0]
	if got.TopicCount != 1 || got.Sections[0].Topics[0].Name != "Two pointers" {
		t.Fatalf("unexpected subject: %+v", got)
	}
	if !strings.Contains(m.View(), "Two pointers") {
		t.Fatalf("expanded section should render its topic")
	}
}

func TestAddSubjectAppends(t *testing.T) {
	t.Parallel()
	m := loaded(t, &fakePort{})
	m, cmd := m.AddSubject("Networks")
	m = settle(m, cmd)
	if len(m.Subjects()) != 1 || m.Subjects()[0].Name != "Networks" {
		t.Fatalf("unexpected subjects: %+v", m.Subjects())
	}
}
