package domain

import (
	"fmt"
	"strings"
)

type User struct {
	ID    string
	Name  string
	Email string
}

// Credentials carry what the auth endpoints accept. Name is only used when
// registering.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// Session pairs the signed-in user with the bearer token. The token is kept
// apart from User so identity can be handed to views without it.
type Session struct {
	User  User
	Token string
}

// Authenticated requires both halves; a user without a token or a token
// without a user is not a session.
func (s Session) Authenticated() bool {
	return s.User.ID != "" && s.Token != ""
}

func (c Credentials) ValidateLogin() error {
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

func (c Credentials) ValidateRegister() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return c.ValidateLogin()
}
