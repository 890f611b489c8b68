package out

import (
	"context"

	accountin "studyhub/internal/modules/account/port/in"
	goalout "studyhub/internal/modules/goal/port/out"
)

// AccountIdentity reads the signed-in user from the session store.
type AccountIdentity struct {
	account accountin.Usecase
}

func NewAccountIdentity(account accountin.Usecase) goalout.Identity {
	return &AccountIdentity{account: account}
}

func (a *AccountIdentity) UserID(ctx context.Context) (string, error) {
	current, err := a.account.Current(ctx)
	if err != nil {
		return "", err
	}
	return current.ID, nil
}
