package domain_test

import (
	"testing"

	"studyhub/internal/modules/account/domain"
)

func TestSessionNeedsUserAndToken(t *testing.T) {
	t.Parallel()
	cases := []struct {
		session domain.Session
		want    bool
	}{
		{domain.Session{}, false},
		{domain.Session{User: domain.User{ID: "u1"}}, false},
		{domain.Session{Token: "tok"}, false},
		{domain.Session{User: domain.User{ID: "u1"}, Token: "tok"}, true},
	}
	for _, tc := range cases {
		if got := tc.session.Authenticated(); got != tc.want {
			t.Errorf("Authenticated(%+v) = %v want %v", tc.session, got, tc.want)
		}
	}
}

func TestCredentialValidation(t *testing.T) {
	t.Parallel()
	if err := (domain.Credentials{Email: "a@b.c"}).ValidateLogin(); err == nil {
		t.Fatalf("missing password must fail")
	}
	if err := (domain.Credentials{Email: "a@b.c", Password: "pw"}).ValidateRegister(); err == nil {
		t.Fatalf("register without name must fail")
	}
	if err := (domain.Credentials{Name: "Ada", Email: "a@b.c", Password: "pw"}).ValidateRegister(); err != nil {
		t.Fatalf("valid registration rejected: %v", err)
	}
}
