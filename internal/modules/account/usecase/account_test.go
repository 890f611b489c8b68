package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	accountout "studyhub/internal/modules/account/adapter/out"
	"studyhub/internal/modules/account/domain"
	"studyhub/internal/modules/account/dto"
	accountport "studyhub/internal/modules/account/port/out"
	"studyhub/internal/modules/account/service"
	"studyhub/internal/modules/account/usecase"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/restclient"
)

type fakeAuth struct {
	session domain.Session
	err     error
	calls   int
}

func (f *fakeAuth) Register(_ context.Context, creds domain.Credentials) (domain.Session, error) {
	f.calls++
	if f.err != nil {
		return domain.Session{}, f.err
	}
	s := f.session
	s.User.Name = creds.Name
	return s, nil
}

func (f *fakeAuth) Login(context.Context, domain.Credentials) (domain.Session, error) {
	f.calls++
	if f.err != nil {
		return domain.Session{}, f.err
	}
	return f.session, nil
}

func newInteractor(t *testing.T, auth *fakeAuth) (string, *usecase.Interactor) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	svc := service.NewSessionService(auth, accountout.NewFileCredentialStore(path))
	return path, usecase.NewInteractor(svc).(*usecase.Interactor)
}

var ada = domain.Session{User: domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}, Token: "tok-1"}

func TestLoginPersistsAndRestores(t *testing.T) {
	t.Parallel()
	auth := &fakeAuth{session: ada}
	path, uc := newInteractor(t, auth)
	ctx := context.Background()

	if _, err := uc.Current(ctx); !errors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Fatalf("expected signed out before login, got %v", err)
	}
	user, err := uc.Login(ctx, dto.LoginInput{Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != "u1" || uc.Token() != "tok-1" {
		t.Fatalf("unexpected session %+v %q", user, uc.Token())
	}

	// A fresh process sharing the same file.
	restored := usecase.NewInteractor(service.NewSessionService(auth, accountout.NewFileCredentialStore(path)))
	out, err := restored.Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !out.Authenticated || out.User.Email != "ada@example.com" || restored.Token() != "tok-1" {
		t.Fatalf("unexpected restore %+v", out)
	}
}

func TestRestoreDiscardsHalfSession(t *testing.T) {
	t.Parallel()
	path, uc := newInteractor(t, &fakeAuth{})
	if err := os.WriteFile(path, []byte(`{"user":{"_id":"u1","name":"Ada","email":"a@b"}}`), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := uc.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if out.Authenticated {
		t.Fatalf("user without token must not restore")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("half session file must be removed, stat err = %v", err)
	}
}

func TestRestoreDiscardsCorruptFile(t *testing.T) {
	t.Parallel()
	path, uc := newInteractor(t, &fakeAuth{})
	if err := os.WriteFile(path, []byte(`{not json`), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out, err := uc.Restore(context.Background())
	if err != nil || out.Authenticated {
		t.Fatalf("expected signed-out restore, got %+v %v", out, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("corrupt file must be removed")
	}
}

type unreadableStore struct {
	err     error
	cleared int
}

func (s *unreadableStore) Save(context.Context, domain.Session) error { return nil }

func (s *unreadableStore) Load(context.Context) (domain.Session, error) {
	return domain.Session{}, s.err
}

func (s *unreadableStore) Clear(context.Context) error {
	s.cleared++
	return nil
}

var _ accountport.CredentialStore = (*unreadableStore)(nil)

func TestRestoreKeepsStoredSessionOnReadFailure(t *testing.T) {
	t.Parallel()
	store := &unreadableStore{err: fmt.Errorf("read credentials: %w", os.ErrPermission)}
	uc := usecase.NewInteractor(service.NewSessionService(&fakeAuth{}, store))

	out, err := uc.Restore(context.Background())
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected read failure to surface, got %+v %v", out, err)
	}
	if store.cleared != 0 {
		t.Fatalf("a read failure must not clear the stored session")
	}
	if _, err := uc.Current(context.Background()); !errors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Fatalf("expected signed out after failed restore, got %v", err)
	}

	store.err = fmt.Errorf("%w: bad json", accountport.ErrCorruptCredentials)
	if _, err := uc.Restore(context.Background()); err != nil {
		t.Fatalf("corrupt copy should restore as signed out, got %v", err)
	}
	if store.cleared != 1 {
		t.Fatalf("corrupt copy should be cleared once, cleared %d", store.cleared)
	}
}

func TestLoginSurfacesServerMessageVerbatim(t *testing.T) {
	t.Parallel()
	auth := &fakeAuth{err: &restclient.Error{Status: 401, Message: "Invalid email or password"}}
	path, uc := newInteractor(t, auth)

	_, err := uc.Login(context.Background(), dto.LoginInput{Email: "ada@example.com", Password: "bad"})
	if err == nil || err.Error() != "Invalid email or password" {
		t.Fatalf("expected verbatim message, got %v", err)
	}
	if uc.Token() != "" {
		t.Fatalf("failed login must not set a token")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("failed login must not persist anything")
	}
}

func TestLoginValidatesBeforeCallingServer(t *testing.T) {
	t.Parallel()
	auth := &fakeAuth{session: ada}
	_, uc := newInteractor(t, auth)

	if _, err := uc.Login(context.Background(), dto.LoginInput{Email: " "}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := uc.Register(context.Background(), dto.RegisterInput{Email: "a@b", Password: "pw"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if auth.calls != 0 {
		t.Fatalf("server must not be called for invalid input")
	}
}

func TestRegisterThenLogoutClearsEverything(t *testing.T) {
	t.Parallel()
	path, uc := newInteractor(t, &fakeAuth{session: ada})
	ctx := context.Background()

	user, err := uc.Register(ctx, dto.RegisterInput{Name: "Grace", Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Name != "Grace" {
		t.Fatalf("unexpected user %+v", user)
	}
	if err := uc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if uc.Token() != "" {
		t.Fatalf("token must be cleared")
	}
	if _, err := uc.Current(ctx); !errors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Fatalf("user must be cleared, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("stored session must be removed")
	}
}

func TestInteractorIsTokenSource(t *testing.T) {
	t.Parallel()
	_, uc := newInteractor(t, &fakeAuth{})
	var _ restclient.TokenSource = uc
}
