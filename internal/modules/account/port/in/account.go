package in

import (
	"context"

	"studyhub/internal/modules/account/dto"
)

// Usecase is the session context shared by every feature module. Only
// Login, Register and Logout change it.
type Usecase interface {
	Restore(ctx context.Context) (dto.RestoreOutput, error)
	Login(ctx context.Context, input dto.LoginInput) (dto.UserOutput, error)
	Register(ctx context.Context, input dto.RegisterInput) (dto.UserOutput, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (dto.UserOutput, error)
	Token() string
}
