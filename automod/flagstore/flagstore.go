// Package flagstore records operational marks on users, most importantly
// the human-review queue: when the engine escalates a user, a "review"
// flag is added here and surfaced through the admin API.
package flagstore

import (
	"context"
)

type FlagStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	Add(ctx context.Context, key string, flags []string) error
	Remove(ctx context.Context, key string, flags []string) error
}

// Key for a user's flags within a guild.
func UserKey(guildID, userID string) string {
	return guildID + "/" + userID
}
