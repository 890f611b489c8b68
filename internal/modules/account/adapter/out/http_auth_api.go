package out

import (
	"context"
	"net/http"

	"studyhub/internal/modules/account/domain"
	accountout "studyhub/internal/modules/account/port/out"
	"studyhub/internal/platform/restclient"
)

type authResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// HTTPAuthAPI must be built on a client without a token source; auth calls
// are anonymous.
type HTTPAuthAPI struct {
	client *restclient.Client
}

func NewHTTPAuthAPI(client *restclient.Client) accountout.AuthAPI {
	return &HTTPAuthAPI{client: client}
}

func (a *HTTPAuthAPI) Register(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	return a.exchange(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   []string{"register"},
		Body: map[string]string{
			"name":     creds.Name,
			"email":    creds.Email,
			"password": creds.Password,
		},
		Fallback: "Registration failed",
	})
}

func (a *HTTPAuthAPI) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	return a.exchange(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   []string{"login"},
		Body: map[string]string{
			"email":    creds.Email,
			"password": creds.Password,
		},
		Fallback: "Login failed",
	})
}

func (a *HTTPAuthAPI) exchange(ctx context.Context, req restclient.Request) (domain.Session, error) {
	var resp authResponse
	if err := a.client.Do(ctx, req, &resp); err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		User:  domain.User{ID: resp.ID, Name: resp.Name, Email: resp.Email},
		Token: resp.Token,
	}, nil
}
