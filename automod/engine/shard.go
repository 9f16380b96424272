package engine

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

const keyShards = 1024

// Striped locks serializing pipeline invocations per (guild, user) key:
// the window mutation, ledger append, and escalation read for one user must
// observe a total order, while unrelated keys proceed in parallel. Hash
// collisions across keys only cost spurious serialization, never
// correctness.
type keyLocks struct {
	shards [keyShards]sync.Mutex
}

func (kl *keyLocks) lock(guildID, userID string) *sync.Mutex {
	h := murmur3.Sum32([]byte(guildID + "/" + userID))
	mu := &kl.shards[h%keyShards]
	mu.Lock()
	return mu
}
