package in

import (
	"context"

	"studyhub/internal/modules/account/dto"
	accountin "studyhub/internal/modules/account/port/in"
)

type CLIHandler struct {
	usecase accountin.Usecase
}

func NewCLIHandler(usecase accountin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Login(ctx context.Context, email, password string) (dto.UserOutput, error) {
	return h.usecase.Login(ctx, dto.LoginInput{Email: email, Password: password})
}

func (h CLIHandler) Register(ctx context.Context, name, email, password string) (dto.UserOutput, error) {
	return h.usecase.Register(ctx, dto.RegisterInput{Name: name, Email: email, Password: password})
}

func (h CLIHandler) Logout(ctx context.Context) error {
	return h.usecase.Logout(ctx)
}

func (h CLIHandler) WhoAmI(ctx context.Context) (dto.UserOutput, error) {
	return h.usecase.Current(ctx)
}

// Restore loads the persisted session. Commands call it before anything
// that needs the current identity.
func (h CLIHandler) Restore(ctx context.Context) (dto.RestoreOutput, error) {
	return h.usecase.Restore(ctx)
}
