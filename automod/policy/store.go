package policy

import (
	"context"
)

// Store of per-guild moderation policies. GetPolicy never fails: a guild with
// no stored configuration gets DefaultPolicy. Implementations must return
// snapshot values, safe to read without locks while a concurrent SetPolicy is
// in flight.
type Store interface {
	GetPolicy(ctx context.Context, guildID string) GuildPolicy
	SetPolicy(ctx context.Context, guildID string, patch Patch) (GuildPolicy, error)
	ResetPolicy(ctx context.Context, guildID string) (GuildPolicy, error)
}
