package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/waabox/logicsh/internal/api"
	"github.com/waabox/logicsh/internal/domain"
	"golang.org/x/oauth2"
)

func TestCurrentUser_ReturnsUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/me" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"session": map[string]interface{}{"id": "sess_1", "expiresAt": "2025-03-08T12:00:00.000Z"},
			"user": map[string]interface{}{
				"id":    "usr_1",
				"name":  "Ada Lovelace",
				"email": "ada@example.com",
			},
		})
	}))
	defer srv.Close()

	client := api.NewClient(context.Background(), srv.URL, &oauth2.Token{AccessToken: "test-token", TokenType: "Bearer"})
	user, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "usr_1" {
		t.Errorf("expected ID 'usr_1', got '%s'", user.ID)
	}
	if user.Name != "Ada Lovelace" {
		t.Errorf("expected name 'Ada Lovelace', got '%s'", user.Name)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("expected email 'ada@example.com', got '%s'", user.Email)
	}
}

func TestCurrentUser_NullSessionIsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	client := api.NewClient(context.Background(), srv.URL, &oauth2.Token{AccessToken: "stale"})
	_, err := client.CurrentUser(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCurrentUser_401IsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := api.NewClient(context.Background(), srv.URL, &oauth2.Token{AccessToken: "revoked"})
	_, err := client.CurrentUser(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCurrentUser_ServerErrorIsNotUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := api.NewClient(context.Background(), srv.URL, &oauth2.Token{AccessToken: "tok"})
	_, err := client.CurrentUser(context.Background())
	if err == nil {
		t.Fatal("expected error for 500, got nil")
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("500 should not be reported as unauthorized: %v", err)
	}
}
