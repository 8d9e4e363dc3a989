package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// DefaultAvatarService generates a unique avatar image per seed.
const DefaultAvatarService = "https://api.multiavatar.com"

// FetchAvatar downloads a generated avatar from the avatar service and
// returns it base64-encoded, ready for the setavatar endpoint. An empty
// seed picks a random one.
func FetchAvatar(ctx context.Context, serviceURL, seed string) (string, error) {
	if seed == "" {
		seed = strconv.Itoa(rand.Intn(1000))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serviceURL+"/"+seed, nil)
	if err != nil {
		return "", fmt.Errorf("build avatar request: %w", err)
	}

	hc := &http.Client{Timeout: 15 * time.Second}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avatar service returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}
