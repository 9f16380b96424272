package ledger

import (
	"context"
	"sync"
	"time"
)

// In-memory ledger for tests and single-process development runs. Not
// durable; production deployments should use DBLedger.
type MemLedger struct {
	mu         sync.Mutex
	violations []Violation

	// when set, all operations fail with this error (test hook for
	// storage-outage behavior)
	FailWith error
}

var _ Ledger = (*MemLedger)(nil)

func NewMemLedger() *MemLedger {
	return &MemLedger{}
}

func (l *MemLedger) Append(ctx context.Context, v Violation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailWith != nil {
		return l.FailWith
	}
	l.violations = append(l.violations, v)
	return nil
}

func (l *MemLedger) CountSince(ctx context.Context, guildID, userID string, since time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailWith != nil {
		return 0, l.FailWith
	}
	count := 0
	for _, v := range l.violations {
		if v.GuildID == guildID && v.UserID == userID && !v.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (l *MemLedger) History(ctx context.Context, guildID, userID string, limit int) ([]Violation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailWith != nil {
		return nil, l.FailWith
	}
	if limit <= 0 {
		limit = 50
	}
	var out []Violation
	for i := len(l.violations) - 1; i >= 0 && len(out) < limit; i-- {
		v := l.violations[i]
		if v.GuildID == guildID && v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (l *MemLedger) Stats(ctx context.Context, guildID string, since time.Time) ([]KindCount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailWith != nil {
		return nil, l.FailWith
	}
	counts := make(map[string]int)
	for _, v := range l.violations {
		if v.GuildID == guildID && !v.CreatedAt.Before(since) {
			counts[v.Kind]++
		}
	}
	out := make([]KindCount, 0, len(counts))
	for kind, count := range counts {
		out = append(out, KindCount{Kind: kind, Count: count})
	}
	return out, nil
}
