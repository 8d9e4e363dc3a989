package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/adrg/xdg"
)

// Session is the opaque local blob holding the logged-in user. It is
// used only for display and as the from/userId value in requests.
type Session struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AvatarImage string `json:"avatarImage"`
	AvatarSet   bool   `json:"isAvatarImageSet"`
	Token       string `json:"token"`
}

// ErrNoSession is returned when no session blob exists locally.
var ErrNoSession = errors.New("not logged in")

const sessionRelPath = "quickchat/session.json"

// SaveSession writes the session blob to the xdg state directory.
func SaveSession(s *Session) error {
	path, err := xdg.StateFile(sessionRelPath)
	if err != nil {
		return fmt.Errorf("resolve session path: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// LoadSession reads the session blob, or ErrNoSession if absent.
func LoadSession() (*Session, error) {
	path, err := xdg.SearchStateFile(sessionRelPath)
	if err != nil {
		return nil, ErrNoSession
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

// ClearSession removes the local session blob.
func ClearSession() error {
	path, err := xdg.SearchStateFile(sessionRelPath)
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
