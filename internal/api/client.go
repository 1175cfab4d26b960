package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/waabox/logicsh/internal/domain"
	"golang.org/x/oauth2"
)

// Client calls the logicsh server on behalf of the logged-in user.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client that sends token as the Authorization header.
// baseURL is the server root, e.g. http://localhost:3002.
func NewClient(ctx context.Context, baseURL string, token *oauth2.Token) *Client {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	httpClient.Timeout = 15 * time.Second
	return &Client{
		baseURL: baseURL,
		client:  httpClient,
	}
}

// CurrentUser returns the user owning the session behind the token.
// It returns domain.ErrUnauthorized if the server does not recognise the token.
func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	endpoint, err := url.JoinPath(c.baseURL, "/api/me")
	if err != nil {
		return domain.User{}, fmt.Errorf("building URL: %w", err)
	}
	var result *meResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		return domain.User{}, err
	}
	// better-auth answers null when there is no session for the token.
	if result == nil || result.User.ID == "" {
		return domain.User{}, fmt.Errorf("no session for token: %w", domain.ErrUnauthorized)
	}
	return result.User.toUser(), nil
}

func (c *Client) get(ctx context.Context, endpoint string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("logicsh API error: %s: %w", resp.Status, domain.ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("logicsh API error: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// meResponse is the raw /api/me response shape.
type meResponse struct {
	User apiUser `json:"user"`
}

type apiUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

func (u apiUser) toUser() domain.User {
	return domain.User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Image: u.Image,
	}
}
