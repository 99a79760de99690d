package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient talks to the account service endpoints. Tokens travel as
// httpOnly cookies on the wire; the client lifts them out of Set-Cookie into
// its TokenStore, which is the non-browser equivalent of the cookie jar.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

var _ Client = (*HTTPClient)(nil)

type userPayload struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (p userPayload) toUser() User {
	return User{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role}
}

func (c *HTTPClient) Validate(ctx context.Context, accessToken string) (User, error) {
	const op = "session.HTTPClient.Validate"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	req.AddCookie(&http.Cookie{Name: "access_token", Value: accessToken})

	res, err := c.http.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("%s: unexpected status %d", op, res.StatusCode)
	}

	var body struct {
		Authenticated bool        `json:"authenticated"`
		User          userPayload `json:"user"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return User{}, fmt.Errorf("%s: %w", op, err)
	}

	if !body.Authenticated {
		return User{}, fmt.Errorf("%s: not authenticated", op)
	}

	return body.User.toUser(), nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (User, TokenPair, error) {
	const op = "session.HTTPClient.Login"

	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&body)
		if body.Error != "" {
			return User{}, TokenPair{}, fmt.Errorf("%s: %s", op, body.Error)
		}

		return User{}, TokenPair{}, fmt.Errorf("%s: unexpected status %d", op, res.StatusCode)
	}

	var body struct {
		User userPayload `json:"user"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair := pairFromCookies(res.Cookies())
	if pair.Access == "" || pair.Refresh == "" {
		return User{}, TokenPair{}, fmt.Errorf("%s: token cookies missing from response", op)
	}

	return body.User.toUser(), pair, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	const op = "session.HTTPClient.Refresh"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/refresh-token", nil)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refreshToken})

	res, err := c.http.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return TokenPair{}, fmt.Errorf("%s: unexpected status %d", op, res.StatusCode)
	}

	pair := pairFromCookies(res.Cookies())
	if pair.Access == "" || pair.Refresh == "" {
		return TokenPair{}, fmt.Errorf("%s: token cookies missing from response", op)
	}

	return pair, nil
}

func (c *HTTPClient) Logout(ctx context.Context, refreshToken string) error {
	const op = "session.HTTPClient.Logout"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refreshToken})

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", op, res.StatusCode)
	}

	return nil
}

func pairFromCookies(cookies []*http.Cookie) TokenPair {
	var pair TokenPair

	for _, c := range cookies {
		switch c.Name {
		case "access_token":
			pair.Access = c.Value
		case "refresh_token":
			pair.Refresh = c.Value
		}
	}

	return pair
}
