package policy

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// In-memory policy store. Snapshot semantics come for free: the map holds
// values, and every read copies.
type MemStore struct {
	policies *xsync.MapOf[string, GuildPolicy]
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		policies: xsync.NewMapOf[string, GuildPolicy](),
	}
}

func (s *MemStore) GetPolicy(ctx context.Context, guildID string) GuildPolicy {
	p, ok := s.policies.Load(guildID)
	if !ok {
		return DefaultPolicy(guildID)
	}
	return p
}

func (s *MemStore) SetPolicy(ctx context.Context, guildID string, patch Patch) (GuildPolicy, error) {
	cur := s.GetPolicy(ctx, guildID)
	next, err := cur.Apply(patch)
	if err != nil {
		return cur, err
	}
	s.policies.Store(guildID, next)
	return next, nil
}

func (s *MemStore) ResetPolicy(ctx context.Context, guildID string) (GuildPolicy, error) {
	p := DefaultPolicy(guildID)
	s.policies.Store(guildID, p)
	return p, nil
}
