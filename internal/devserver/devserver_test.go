package devserver_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"studyhub/internal/devserver"
	accountout "studyhub/internal/modules/account/adapter/out"
	"studyhub/internal/modules/account/domain"
	goalout "studyhub/internal/modules/goal/adapter/out"
	goaldomain "studyhub/internal/modules/goal/domain"
	subjectout "studyhub/internal/modules/subject/adapter/out"
	weekdomain "studyhub/internal/modules/week/domain"
	"studyhub/internal/platform/clock"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/id"
	"studyhub/internal/platform/logging"
	"studyhub/internal/platform/restclient"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newServer(t *testing.T, burst int) *httptest.Server {
	t.Helper()
	store, err := devserver.OpenStore(context.Background(), filepath.Join(t.TempDir(), "api.db"), id.UUID{}, clock.SystemClock{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	srv := httptest.NewServer(devserver.NewHandler(devserver.Options{
		Store:      store,
		Prefix:     "/api",
		Logger:     logging.Discard(),
		BcryptCost: bcrypt.MinCost,
		AuthRate:   rate.Every(time.Hour),
		AuthBurst:  burst,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func client(srv *httptest.Server, token string) *restclient.Client {
	var tokens restclient.TokenSource
	if token != "" {
		tokens = staticToken(token)
	}
	return restclient.New(srv.URL+"/api", srv.Client(), tokens, logging.Discard())
}

func register(t *testing.T, srv *httptest.Server, email string) domain.Session {
	t.Helper()
	session, err := accountout.NewHTTPAuthAPI(client(srv, "")).Register(context.Background(), domain.Credentials{
		Name: "Ada", Email: email, Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !session.Authenticated() {
		t.Fatalf("register returned incomplete session %+v", session)
	}
	return session
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()
	srv := newServer(t, 20)
	auth := accountout.NewHTTPAuthAPI(client(srv, ""))
	ctx := context.Background()

	first := register(t, srv, "ada@example.com")

	if _, err := auth.Register(ctx, domain.Credentials{Name: "Ada", Email: "ADA@example.com", Password: "x"}); err == nil || err.Error() != "User already exists" {
		t.Fatalf("expected duplicate registration message, got %v", err)
	}
	_, err := auth.Login(ctx, domain.Credentials{Email: "ada@example.com", Password: "wrong"})
	if err == nil || err.Error() != "Invalid email or password" {
		t.Fatalf("expected verbatim login failure, got %v", err)
	}
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("login failure should classify as unauthorized, got %v", err)
	}

	again, err := auth.Login(ctx, domain.Credentials{Email: "ada@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if again.User.ID != first.User.ID || again.Token == first.Token {
		t.Fatalf("login should issue a fresh token for the same user: %+v vs %+v", again, first)
	}
}

func TestSubjectRoundTrip(t *testing.T) {
	t.Parallel()
	srv := newServer(t, 20)
	session := register(t, srv, "ada@example.com")
	repo := subjectout.NewHTTPSubjectRepository(client(srv, session.Token))
	ctx := context.Background()

	created, err := repo.Create(ctx, session.User.ID, "DSA", "#3b82f6")
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	subjects, err := repo.List(ctx, session.User.ID)
	if err != nil {
		t.Fatalf("list subjects: %v", err)
	}
	if len(subjects) != 1 || subjects[0].ID == "" || subjects[0].ID != created.ID || len(subjects[0].Sections) != 0 {
		t.Fatalf("created subject not listed as expected: %+v", subjects)
	}

	withSection, err := repo.AddSection(ctx, created.ID, "Arrays")
	if err != nil {
		t.Fatalf("add section: %v", err)
	}
	if len(withSection.Sections) != 1 || withSection.Sections[0].Name != "Arrays" || len(withSection.Sections[0].Topics) != 0 {
		t.Fatalf("unexpected subject after add section: %+v", withSection)
	}
	sectionID := withSection.Sections[0].ID

	withTopic, err := repo.AddTopic(ctx, created.ID, sectionID, "Two pointers")
	if err != nil {
		t.Fatalf("add topic: %v", err)
	}
	topic := withTopic.Sections[0].Topics[0]
	if topic.Name != "Two pointers" || topic.CreatedAt.IsZero() {
		t.Fatalf("unexpected topic %+v", topic)
	}

	emptied, err := repo.DeleteTopic(ctx, created.ID, sectionID, topic.ID)
	if err != nil {
		t.Fatalf("delete topic: %v", err)
	}
	if len(emptied.Sections) != 1 || len(emptied.Sections[0].Topics) != 0 {
		t.Fatalf("deleting the last topic must keep the section: %+v", emptied)
	}

	recoloured, err := repo.UpdateColor(ctx, created.ID, "#10b981")
	if err != nil || recoloured.Color != "#10b981" {
		t.Fatalf("update colour: %+v %v", recoloured, err)
	}

	if _, err := repo.DeleteSection(ctx, created.ID, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found for unknown section, got %v", err)
	}
	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete subject: %v", err)
	}
	subjects, err = repo.List(ctx, session.User.ID)
	if err != nil || len(subjects) != 0 {
		t.Fatalf("expected no subjects after delete, got %+v %v", subjects, err)
	}
}

func TestGoalRoundTrip(t *testing.T) {
	t.Parallel()
	srv := newServer(t, 20)
	session := register(t, srv, "ada@example.com")
	repo := goalout.NewHTTPGoalRepository(client(srv, session.Token))
	ctx := context.Background()
	window := weekdomain.WindowOf(time.Date(2024, 12, 31, 10, 0, 0, 0, time.Local))

	goal, err := repo.Create(ctx, goaldomain.NewGoal{
		UserID:    session.User.ID,
		Subject:   "DSA",
		Color:     "#3b82f6",
		WeekStart: window.Start,
		WeekEnd:   window.End,
		Topics:    []string{"Heaps", "Tries"},
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if len(goal.Topics) != 2 || goal.Topics[0].Completed {
		t.Fatalf("unexpected goal %+v", goal)
	}
	if !goal.WeekStart.Equal(window.Start) || !goal.WeekEnd.Equal(window.End) {
		t.Fatalf("window not preserved: %v–%v", goal.WeekStart, goal.WeekEnd)
	}

	steps := []struct {
		topic    int
		progress int
	}{{0, 50}, {1, 100}, {1, 50}}
	for _, step := range steps {
		goal, err = repo.ToggleTopic(ctx, goal.ID, goal.Topics[step.topic].ID)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if got := goaldomain.Progress(goal); got != step.progress {
			t.Fatalf("expected %d%%, got %d", step.progress, got)
		}
	}
	if goal.Topics[1].Completed {
		t.Fatalf("toggling twice must restore the original value")
	}

	inWeek, err := repo.ListByWeek(ctx, session.User.ID, window)
	if err != nil {
		t.Fatalf("list week: %v", err)
	}
	if len(inWeek) != 1 || inWeek[0].ID != goal.ID {
		t.Fatalf("expected the goal in its week, got %+v", inWeek)
	}
	nextWeek, err := repo.ListByWeek(ctx, session.User.ID, window.Next())
	if err != nil || len(nextWeek) != 0 {
		t.Fatalf("expected empty next week, got %+v %v", nextWeek, err)
	}

	goal, err = repo.AddTopic(ctx, goal.ID, "Segment trees")
	if err != nil || len(goal.Topics) != 3 {
		t.Fatalf("add topic: %+v %v", goal, err)
	}
	goal, err = repo.DeleteTopic(ctx, goal.ID, goal.Topics[0].ID)
	if err != nil || len(goal.Topics) != 2 || goal.Topics[0].Title != "Tries" {
		t.Fatalf("delete topic: %+v %v", goal, err)
	}
	goal, err = repo.Update(ctx, goal.ID, "Algorithms", "")
	if err != nil || goal.Subject != "Algorithms" || goal.Color != "#3b82f6" {
		t.Fatalf("update: %+v %v", goal, err)
	}
	if err := repo.Delete(ctx, goal.ID); err != nil {
		t.Fatalf("delete goal: %v", err)
	}
	if _, err := repo.ToggleTopic(ctx, goal.ID, goal.Topics[0].ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestUsersCannotSeeEachOther(t *testing.T) {
	t.Parallel()
	srv := newServer(t, 20)
	ada := register(t, srv, "ada@example.com")
	bob := register(t, srv, "bob@example.com")
	ctx := context.Background()

	subject, err := subjectout.NewHTTPSubjectRepository(client(srv, ada.Token)).Create(ctx, ada.User.ID, "DSA", "#fff")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bobRepo := subjectout.NewHTTPSubjectRepository(client(srv, bob.Token))
	if _, err := bobRepo.List(ctx, ada.User.ID); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected forbidden listing another user, got %v", err)
	}
	if _, err := bobRepo.AddSection(ctx, subject.ID, "Arrays"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found editing another user's subject, got %v", err)
	}
}

func TestMissingTokenIsRejected(t *testing.T) {
	t.Parallel()
	srv := newServer(t, 20)
	_, err := subjectout.NewHTTPSubjectRepository(client(srv, "")).List(context.Background(), "u1")
	if err == nil || err.Error() != "Not authorized, no token" {
		t.Fatalf("expected no-token message, got %v", err)
	}
	_, err = subjectout.NewHTTPSubjectRepository(client(srv, "bogus")).List(context.Background(), "u1")
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for bogus token, got %v", err)
	}
}

func TestAuthIsRateLimited(t *testing.T) {
	t.Parallel()
	srv := newServer(t, 1)
	auth := accountout.NewHTTPAuthAPI(client(srv, ""))
	creds := domain.Credentials{Email: "ada@example.com", Password: "x"}

	_, _ = auth.Login(context.Background(), creds)
	_, err := auth.Login(context.Background(), creds)
	var restErr *restclient.Error
	if !errors.As(err, &restErr) || restErr.Status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	srv := newServer(t, 20)
	register(t, srv, "ada@example.com")

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	if !strings.Contains(text, "studyhub_http_requests_total{") || !strings.Contains(text, `status="201"`) {
		t.Fatalf("register request not counted:\n%s", text)
	}
}
