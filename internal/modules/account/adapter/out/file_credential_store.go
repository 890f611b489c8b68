package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"studyhub/internal/modules/account/domain"
	accountout "studyhub/internal/modules/account/port/out"
	apperrors "studyhub/internal/platform/errors"
)

type storedUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// storedSession keeps both entries in one file so they are written and
// removed together.
type storedSession struct {
	User  *storedUser `json:"user,omitempty"`
	Token string      `json:"token,omitempty"`
}

type FileCredentialStore struct {
	path string
}

func NewFileCredentialStore(path string) accountout.CredentialStore {
	return &FileCredentialStore{path: path}
}

func (s *FileCredentialStore) Save(_ context.Context, session domain.Session) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	payload, err := json.MarshalIndent(storedSession{
		User:  &storedUser{ID: session.User.ID, Name: session.User.Name, Email: session.User.Email},
		Token: session.Token,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("create credential temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	return nil
}

// Load returns whatever is stored, including half sessions; the caller
// decides what an incomplete session means.
func (s *FileCredentialStore) Load(_ context.Context) (domain.Session, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Session{}, apperrors.ErrNotAuthenticated
		}
		return domain.Session{}, fmt.Errorf("read credentials: %w", err)
	}
	stored := storedSession{}
	if err := json.Unmarshal(payload, &stored); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", accountout.ErrCorruptCredentials, err)
	}
	session := domain.Session{Token: stored.Token}
	if stored.User != nil {
		session.User = domain.User{ID: stored.User.ID, Name: stored.User.Name, Email: stored.User.Email}
	}
	return session, nil
}

func (s *FileCredentialStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
