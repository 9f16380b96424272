// Package ledger is the durable audit trail of moderation violations. Every
// detected violation is appended here, and the cumulative per-user counts
// drive punishment escalation.
package ledger

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"
)

// Wraps any failure to read or write the backing store. Detection results
// are still returned to callers alongside this error; it must never be
// swallowed.
var ErrStorageFailure = errors.New("violation ledger storage failure")

// Violation kinds. These strings are persisted; do not renumber.
const (
	KindSpamRate          = "spam-rate"
	KindDuplicateContent  = "duplicate-content"
	KindExcessiveCaps     = "excessive-caps"
	KindExcessiveMentions = "excessive-mentions"
	KindExcessiveEmojis   = "excessive-emojis"
	KindBannedLink        = "banned-link"
	KindInviteLink        = "invite-link"
	KindBannedKeyword     = "banned-keyword"
)

// One recorded rule breach. Immutable once appended.
type Violation struct {
	GuildID   string
	UserID    string
	ChannelID string
	MessageID string
	Kind      string
	// Truncated copy of the triggering message content.
	Snippet   string
	CreatedAt time.Time
}

// Max snippet length persisted with a violation.
const SnippetLimit = 500

// Truncates to at most SnippetLimit bytes, backing up so the cut never
// splits a multi-byte rune.
func Snippet(content string) string {
	if len(content) <= SnippetLimit {
		return content
	}
	cut := SnippetLimit
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// Per-kind violation totals for a guild over some period.
type KindCount struct {
	Kind  string
	Count int
}

type Ledger interface {
	// Append never partially succeeds: on error the violation was not
	// recorded and the error wraps ErrStorageFailure.
	Append(ctx context.Context, v Violation) error
	// Count of violations for (guild, user) at or after `since`.
	CountSince(ctx context.Context, guildID, userID string, since time.Time) (int, error)
	// Most recent violations first.
	History(ctx context.Context, guildID, userID string, limit int) ([]Violation, error)
	// Guild-wide per-kind totals at or after `since`, for admin stats.
	Stats(ctx context.Context, guildID string, since time.Time) ([]KindCount, error)
}
