package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transport rewrites request URLs against a base URL and attaches the
// session bearer token to every request.
type Transport struct {
	BaseURL string
	Token   string
}

// RoundTrip implements http.RoundTripper. The incoming request is left
// untouched; the rewritten URL and auth header go on a clone.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	baseURL := strings.TrimSuffix(t.BaseURL, "/")
	path := "/" + strings.TrimPrefix(req.URL.String(), "/")
	newURL, err := req.URL.Parse(baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse request url: %w", err)
	}

	clone := req.Clone(req.Context())
	clone.URL = newURL
	if t.Token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.Token)
	}
	return http.DefaultTransport.RoundTrip(clone)
}

// API is the REST client for the quickchat server.
type API struct {
	hc        *http.Client
	transport *Transport
}

// NewAPI creates a REST client against the given base URL, e.g.
// "http://localhost:8080".
func NewAPI(baseURL string) *API {
	transport := &Transport{BaseURL: baseURL}
	return &API{
		hc: &http.Client{
			Transport: transport,
			Timeout:   15 * time.Second,
		},
		transport: transport,
	}
}

// SetToken attaches a session token to all subsequent requests.
func (a *API) SetToken(token string) {
	a.transport.Token = token
}

// AuthResult is the server's answer to register and login.
type AuthResult struct {
	Status bool `json:"status"`
	User   struct {
		ID          string `json:"id"`
		Username    string `json:"username"`
		Email       string `json:"email"`
		AvatarImage string `json:"avatarImage"`
		AvatarSet   bool   `json:"isAvatarImageSet"`
	} `json:"user"`
	Token string `json:"token"`
}

// Contact is one entry of the contact list.
type Contact struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AvatarImage string `json:"avatarImage"`
	AvatarSet   bool   `json:"isAvatarImageSet"`
}

type historyItem struct {
	FromSelf  bool      `json:"fromSelf"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Register creates an account and returns the authenticated session.
func (a *API) Register(ctx context.Context, username, email, password string) (*Session, error) {
	var res AuthResult
	err := a.post(ctx, "/api/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	return a.sessionFrom(&res), nil
}

// Login authenticates and returns the session.
func (a *API) Login(ctx context.Context, username, password string) (*Session, error) {
	var res AuthResult
	err := a.post(ctx, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	return a.sessionFrom(&res), nil
}

func (a *API) sessionFrom(res *AuthResult) *Session {
	a.SetToken(res.Token)
	return &Session{
		ID:          res.User.ID,
		Username:    res.User.Username,
		AvatarImage: res.User.AvatarImage,
		AvatarSet:   res.User.AvatarSet,
		Token:       res.Token,
	}
}

// Logout tells the server to drop the user's relay presence.
func (a *API) Logout(ctx context.Context, userID string) error {
	return a.get(ctx, "/api/auth/logout/"+userID, nil)
}

// SetAvatar uploads the base64-encoded avatar image.
func (a *API) SetAvatar(ctx context.Context, userID, image string) error {
	var res struct {
		IsSet bool   `json:"isSet"`
		Image string `json:"image"`
	}
	err := a.post(ctx, "/api/auth/setavatar/"+userID, map[string]string{"image": image}, &res)
	if err != nil {
		return err
	}
	if !res.IsSet {
		return fmt.Errorf("avatar was not set")
	}
	return nil
}

// Contacts fetches every other user's summary.
func (a *API) Contacts(ctx context.Context, userID string) ([]Contact, error) {
	var contacts []Contact
	if err := a.get(ctx, "/api/auth/allusers/"+userID, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// SendMessage persists a message. The server also triggers live relay
// delivery, so this is the only call needed on send.
func (a *API) SendMessage(ctx context.Context, from, to, body string) error {
	var res struct {
		Status bool  `json:"status"`
		ID     int64 `json:"id"`
	}
	return a.post(ctx, "/api/messages/addmsg", map[string]string{
		"from":    from,
		"to":      to,
		"message": body,
	}, &res)
}

// History fetches the ordered conversation between two users as display
// items.
func (a *API) History(ctx context.Context, from, to string) ([]Item, error) {
	var raw []historyItem
	err := a.post(ctx, "/api/messages/getmsg", map[string]string{
		"from": from,
		"to":   to,
	}, &raw)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(raw))
	for _, m := range raw {
		items = append(items, Item{
			FromSelf:  m.FromSelf,
			Body:      m.Message,
			Timestamp: m.CreatedAt,
		})
	}
	return items, nil
}

func (a *API) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, out)
}

func (a *API) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return a.do(req, out)
}

func (a *API) do(req *http.Request, out any) error {
	resp, err := a.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s (%d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
