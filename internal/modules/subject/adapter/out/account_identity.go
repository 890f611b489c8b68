package out

import (
	"context"

	accountin "studyhub/internal/modules/account/port/in"
	subjectout "studyhub/internal/modules/subject/port/out"
)

type AccountIdentity struct {
	account accountin.Usecase
}

func NewAccountIdentity(account accountin.Usecase) subjectout.Identity {
	return &AccountIdentity{account: account}
}

func (a *AccountIdentity) UserID(ctx context.Context) (string, error) {
	current, err := a.account.Current(ctx)
	if err != nil {
		return "", err
	}
	return current.ID, nil
}
