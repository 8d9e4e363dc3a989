package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/avolkov/quickchat/internal/auth"
	"github.com/avolkov/quickchat/internal/config"
	"github.com/avolkov/quickchat/internal/log"
	"github.com/avolkov/quickchat/internal/relay"
	"github.com/avolkov/quickchat/internal/store/sqlite"
)

type testEnv struct {
	ts   *httptest.Server
	hub  *relay.Hub
	auth *auth.Service
}

func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "quickchat-test",
		Audience: "quickchat-test-clients",
		TTL:      time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	hub := relay.NewHub(authService, log.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	server := NewServer(hub, authService, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, log.Nop())

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, hub: hub, auth: authService}
}

type testUser struct {
	ID    string
	Token string
}

// registerUser registers a user through the API and returns id and token.
func (e *testEnv) registerUser(t *testing.T, username string) testUser {
	t.Helper()

	status, body := e.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", username, status, body)
	}

	var res AuthResponse
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return testUser{ID: res.User.ID, Token: res.Token}
}

func (e *testEnv) request(t *testing.T, method, path, token string, payload any) (int, []byte) {
	t.Helper()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, data
}
