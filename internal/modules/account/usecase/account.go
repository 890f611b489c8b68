package usecase

import (
	"context"

	"studyhub/internal/modules/account/domain"
	"studyhub/internal/modules/account/dto"
	accountin "studyhub/internal/modules/account/port/in"
	"studyhub/internal/modules/account/service"
)

type Interactor struct {
	svc *service.SessionService
}

// NewInteractor returns the session context. The result also satisfies
// restclient.TokenSource.
func NewInteractor(svc *service.SessionService) accountin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Restore(ctx context.Context) (dto.RestoreOutput, error) {
	session, err := i.svc.Restore(ctx)
	if err != nil {
		return dto.RestoreOutput{}, err
	}
	return dto.RestoreOutput{Authenticated: session.Authenticated(), User: toUserOutput(session.User)}, nil
}

func (i *Interactor) Login(ctx context.Context, input dto.LoginInput) (dto.UserOutput, error) {
	session, err := i.svc.Login(ctx, domain.Credentials{Email: input.Email, Password: input.Password})
	if err != nil {
		return dto.UserOutput{}, err
	}
	return toUserOutput(session.User), nil
}

func (i *Interactor) Register(ctx context.Context, input dto.RegisterInput) (dto.UserOutput, error) {
	session, err := i.svc.Register(ctx, domain.Credentials{Name: input.Name, Email: input.Email, Password: input.Password})
	if err != nil {
		return dto.UserOutput{}, err
	}
	return toUserOutput(session.User), nil
}

func (i *Interactor) Logout(ctx context.Context) error {
	return i.svc.Logout(ctx)
}

func (i *Interactor) Current(_ context.Context) (dto.UserOutput, error) {
	user, err := i.svc.Current()
	if err != nil {
		return dto.UserOutput{}, err
	}
	return toUserOutput(user), nil
}

func (i *Interactor) Token() string {
	return i.svc.Token()
}

func toUserOutput(u domain.User) dto.UserOutput {
	return dto.UserOutput{ID: u.ID, Name: u.Name, Email: u.Email}
}
