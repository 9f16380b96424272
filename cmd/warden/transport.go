package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/util"

	"github.com/carlmjohnson/versioninfo"
)

// Executes moderation commands against the chat platform's REST API.
type APITransport struct {
	host   string
	token  string
	client *http.Client
}

var _ engine.Transport = (*APITransport)(nil)

func NewAPITransport(host, token string) *APITransport {
	return &APITransport{
		host:   strings.TrimRight(host, "/"),
		token:  token,
		client: util.RobustHTTPClient(),
	}
}

func (t *APITransport) do(ctx context.Context, method, path string, body any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.host+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+t.token)
	req.Header.Set("User-Agent", fmt.Sprintf("warden/%s", versioninfo.Short()))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chat API request failed: %s %s: status=%d", method, path, resp.StatusCode)
	}
	return nil
}

func (t *APITransport) DeleteMessage(ctx context.Context, guildID, channelID, messageID string) error {
	return t.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/channels/%s/messages/%s", channelID, messageID), nil)
}

func (t *APITransport) WarnUser(ctx context.Context, guildID, channelID, userID, reason string) error {
	return t.do(ctx, http.MethodPost, fmt.Sprintf("/v1/channels/%s/messages", channelID), map[string]any{
		"content": fmt.Sprintf("<@%s> %s", userID, reason),
	})
}

func (t *APITransport) MuteUser(ctx context.Context, guildID, userID string, duration time.Duration, reason string) error {
	return t.do(ctx, http.MethodPatch, fmt.Sprintf("/v1/guilds/%s/members/%s", guildID, userID), map[string]any{
		"muted_until": time.Now().Add(duration).UTC().Format(time.RFC3339),
		"reason":      reason,
	})
}

func (t *APITransport) EscalateToReview(ctx context.Context, guildID, userID string, kinds []string, reason string) error {
	return t.do(ctx, http.MethodPost, fmt.Sprintf("/v1/guilds/%s/moderation/reports", guildID), map[string]any{
		"user_id": userID,
		"kinds":   kinds,
		"reason":  reason,
	})
}
