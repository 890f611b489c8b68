package out

import (
	"context"
	"errors"

	"studyhub/internal/modules/account/domain"
)

// AuthAPI exchanges credentials for a session.
type AuthAPI interface {
	Register(ctx context.Context, creds domain.Credentials) (domain.Session, error)
	Login(ctx context.Context, creds domain.Credentials) (domain.Session, error)
}

// ErrCorruptCredentials marks a stored session that exists but cannot be
// decoded.
var ErrCorruptCredentials = errors.New("stored credentials are corrupt")

// CredentialStore persists the user and token together. Load returns
// apperrors.ErrNotAuthenticated when nothing is stored and
// ErrCorruptCredentials when the stored copy cannot be decoded.
type CredentialStore interface {
	Save(ctx context.Context, session domain.Session) error
	Load(ctx context.Context) (domain.Session, error)
	Clear(ctx context.Context) error
}
