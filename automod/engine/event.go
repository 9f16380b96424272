package engine

import (
	"time"
)

// A message-received event consumed from the chat transport. Immutable; the
// engine never writes back to the transport except through the Dispatcher.
type MessageEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string
	// Role identifiers held by the author at send time, used for exemption
	// checks. May be nil when the gateway did not resolve membership.
	AuthorRoles []string
	// True when the author is itself an automated account.
	Bot       bool
	Content   string
	CreatedAt time.Time
}
