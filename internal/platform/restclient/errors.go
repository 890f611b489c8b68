package restclient

import (
	"errors"
	"net/http"

	apperrors "studyhub/internal/platform/errors"
)

// Error is the single error shape surfaced by the REST layer. Status is 0
// for transport failures, in which case Err holds the cause.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers match REST failures against the shared sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case apperrors.ErrNotFound:
		return e.Status == http.StatusNotFound
	case apperrors.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case apperrors.ErrInvalidInput:
		return e.Status == http.StatusBadRequest
	case apperrors.ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// IsTransport reports whether err is a REST failure that never got an
// HTTP response.
func IsTransport(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Status == 0
}
