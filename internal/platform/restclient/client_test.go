package restclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/restclient"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestDoSendsJSONAndBearer(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.EscapedPath() != "/api/subject-topics/abc%20d/sections" {
			t.Errorf("unexpected path %q", r.URL.EscapedPath())
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var in map[string]string
		if err := json.Unmarshal(body, &in); err != nil || in["name"] != "Arrays" {
			t.Errorf("unexpected body %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id":"s1","name":"DSA"}`))
	}))
	defer server.Close()

	c := restclient.New(server.URL+"/api/", server.Client(), staticToken("tok-1"), nil)
	var out struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}
	err := c.Do(context.Background(), restclient.Request{
		Method:   http.MethodPost,
		Path:     []string{"subject-topics", "abc d", "sections"},
		Body:     map[string]string{"name": "Arrays"},
		Fallback: "failed to add section",
	}, &out)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if out.ID != "s1" || out.Name != "DSA" {
		t.Fatalf("unexpected decode: %+v", out)
	}
}

func TestDoOmitsAuthorizationWithoutToken(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("authorization must be absent")
		}
		if r.URL.Query().Get("weekStart") != "2026-10-12" {
			t.Errorf("query not forwarded: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := restclient.New(server.URL, server.Client(), staticToken(""), nil)
	var out []map[string]any
	err := c.Do(context.Background(), restclient.Request{
		Method: http.MethodGet,
		Path:   []string{"weekly-goals", "u1"},
		Query:  url.Values{"weekStart": []string{"2026-10-12"}},
	}, &out)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
}

func TestDoUsesServerMessage(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))
	defer server.Close()

	c := restclient.New(server.URL, server.Client(), nil, nil)
	err := c.Do(context.Background(), restclient.Request{Method: http.MethodPost, Path: []string{"login"}, Fallback: "Login failed"}, nil)
	var re *restclient.Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *restclient.Error, got %T %v", err, err)
	}
	if re.Status != http.StatusBadRequest || re.Error() != "Invalid credentials" {
		t.Fatalf("unexpected error %+v", re)
	}
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("400 should match ErrInvalidInput")
	}
}

func TestDoFallsBackWithoutMessage(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	c := restclient.New(server.URL, server.Client(), nil, nil)
	err := c.Do(context.Background(), restclient.Request{Method: http.MethodDelete, Path: []string{"weekly-goals", "g1"}, Fallback: "Failed to delete goal"}, nil)
	if err == nil || err.Error() != "Failed to delete goal" {
		t.Fatalf("expected fallback message, got %v", err)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("404 should match ErrNotFound")
	}
	if restclient.IsTransport(err) {
		t.Fatalf("http failure is not a transport failure")
	}
}

func TestDoTransportFailure(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := server.URL
	server.Close()

	c := restclient.New(addr, nil, nil, nil)
	err := c.Do(context.Background(), restclient.Request{Method: http.MethodGet, Path: []string{"subject-topics", "u1"}, Fallback: "Failed to fetch subjects"}, nil)
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if !restclient.IsTransport(err) {
		t.Fatalf("expected transport classification, got %v", err)
	}
	if err.Error() != "Failed to fetch subjects" {
		t.Fatalf("expected fallback message, got %q", err.Error())
	}
}

func TestDoDecodeFailure(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_id":`))
	}))
	defer server.Close()

	c := restclient.New(server.URL, server.Client(), nil, nil)
	var out map[string]any
	err := c.Do(context.Background(), restclient.Request{Method: http.MethodGet, Path: []string{"x"}, Fallback: "bad payload"}, &out)
	if err == nil || err.Error() != "bad payload" {
		t.Fatalf("expected decode failure with fallback, got %v", err)
	}
}
