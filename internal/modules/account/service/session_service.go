package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"studyhub/internal/modules/account/domain"
	accountout "studyhub/internal/modules/account/port/out"
	apperrors "studyhub/internal/platform/errors"
)

// SessionService owns the in-memory session. Writers are serialised by
// writeMu and may block on the network; readers only take mu.
type SessionService struct {
	auth  accountout.AuthAPI
	store accountout.CredentialStore

	writeMu sync.Mutex
	mu      sync.RWMutex
	session domain.Session
}

func NewSessionService(auth accountout.AuthAPI, store accountout.CredentialStore) *SessionService {
	return &SessionService{auth: auth, store: store}
}

// Restore loads the persisted session. A corrupt or half stored session is
// removed and reported as signed out. Other read failures are returned and
// leave the stored copy in place.
func (s *SessionService) Restore(ctx context.Context) (domain.Session, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	loaded, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		loaded = domain.Session{}
	case errors.Is(err, accountout.ErrCorruptCredentials), err == nil && !loaded.Authenticated():
		loaded = domain.Session{}
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			return domain.Session{}, fmt.Errorf("discard stored session: %w", clearErr)
		}
	case err != nil:
		return domain.Session{}, fmt.Errorf("restore session: %w", err)
	}
	s.set(loaded)
	return loaded, nil
}

func (s *SessionService) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if err := creds.ValidateLogin(); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return s.signIn(ctx, func(ctx context.Context) (domain.Session, error) {
		return s.auth.Login(ctx, creds)
	})
}

func (s *SessionService) Register(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if err := creds.ValidateRegister(); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return s.signIn(ctx, func(ctx context.Context) (domain.Session, error) {
		return s.auth.Register(ctx, creds)
	})
}

// Logout drops the in-memory session even when removing the stored copy
// fails; the stored copy is a single file so it is never left half cleared.
func (s *SessionService) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.set(domain.Session{})
	return s.store.Clear(ctx)
}

func (s *SessionService) Current() (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.session.Authenticated() {
		return domain.User{}, apperrors.ErrNotAuthenticated
	}
	return s.session.User, nil
}

func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// signIn persists before publishing so memory never holds a session the
// next start cannot restore.
func (s *SessionService) signIn(ctx context.Context, call func(context.Context) (domain.Session, error)) (domain.Session, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	session, err := call(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if !session.Authenticated() {
		return domain.Session{}, fmt.Errorf("auth response is missing user or token")
	}
	if err := s.store.Save(ctx, session); err != nil {
		return domain.Session{}, err
	}
	s.set(session)
	return session, nil
}

func (s *SessionService) set(session domain.Session) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
}
