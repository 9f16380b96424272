package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type SlackNotifier struct {
	SlackWebhookURL string
	// HTTP client used for webhook POSTs; defaults to http.DefaultClient
	Client *http.Client
}

var _ Notifier = (*SlackNotifier)(nil)

func (n *SlackNotifier) Send(ctx context.Context, service string, c *MessageContext, decision *Decision) error {
	if service != "slack" {
		return nil
	}
	c.Logger.Debug("sending slack notification")
	return n.sendSlackMsg(ctx, slackBody(c, decision))
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// Sends a simple slack message to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}

func slackBody(c *MessageContext, decision *Decision) string {
	evt := c.Event
	msg := "⚠️ Automod Action ⚠️\n"
	msg += fmt.Sprintf("guild `%s` / channel `%s` / user `%s`\n", evt.GuildID, evt.ChannelID, evt.AuthorID)
	msg += fmt.Sprintf("Violations: `%s`\n", strings.Join(decision.Kinds, ", "))
	msg += fmt.Sprintf("Action: `%s`", decision.Action.Kind)
	if decision.Action.Duration > 0 {
		msg += fmt.Sprintf(" (%s)", decision.Action.Duration)
	}
	msg += "\n"
	if decision.DeleteMessage {
		msg += "Message deleted\n"
	}
	return msg
}
