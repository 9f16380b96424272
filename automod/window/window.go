// Package window tracks recent message activity per (guild, user) pair for
// rate and duplicate detection. Each pair owns a small time-bounded deque of
// (timestamp, content hash) entries; entries older than the window are pruned
// from the front on every access, and pairs idle longer than the eviction
// period are dropped entirely by a background sweep.
package window

import (
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/spaolacci/murmur3"
)

// Snapshot of a user's activity after recording one message. Count includes
// the message just recorded.
type State struct {
	Count int
	// True when the newest entry's hash matches any prior in-window entry.
	Duplicate bool
	// Number of in-window entries sharing the newest hash, including the
	// newest entry itself.
	DuplicateCount int
}

type entry struct {
	at   time.Time
	hash uint64
}

type record struct {
	mu        sync.Mutex
	entries   []entry
	lastWrite time.Time
	// set by Sweep, under mu, just before the record is unmapped; a Record
	// holding a stale pointer must start over instead of writing here
	dead bool
}

// Tracker holds the activity records for all (guild, user) pairs.
type Tracker struct {
	records *xsync.MapOf[string, *record]

	// records with no writes for this long are dropped by Sweep
	idleEvict time.Duration
}

const DefaultIdleEviction = 6 * time.Hour

func NewTracker(idleEvict time.Duration) *Tracker {
	if idleEvict <= 0 {
		idleEvict = DefaultIdleEviction
	}
	return &Tracker{
		records:   xsync.NewMapOf[string, *record](),
		idleEvict: idleEvict,
	}
}

// Content hash used for duplicate detection. Content is lowercased and
// whitespace-trimmed first, so "Hello " and "hello" count as duplicates.
func HashContent(content string) uint64 {
	return murmur3.Sum64([]byte(strings.ToLower(strings.TrimSpace(content))))
}

func recordKey(guildID, userID string) string {
	return guildID + "/" + userID
}

// Records one message and reports the resulting window state. Entries older
// than `win` (relative to `at`) are pruned first; with monotonically
// increasing timestamps this is amortized O(1) per message. A zero or
// negative window records nothing and reports an empty state.
func (t *Tracker) Record(guildID, userID string, at time.Time, hash uint64, win time.Duration) State {
	if win <= 0 {
		return State{}
	}
	key := recordKey(guildID, userID)
	var rec *record
	for {
		rec, _ = t.records.LoadOrCompute(key, func() *record {
			return &record{}
		})
		rec.mu.Lock()
		if !rec.dead {
			break
		}
		// the sweeper evicted this record between load and lock; it is
		// already unmapped, so retry against a fresh one
		rec.mu.Unlock()
	}
	defer rec.mu.Unlock()

	cutoff := at.Add(-win)
	idx := 0
	for idx < len(rec.entries) && !rec.entries[idx].at.After(cutoff) {
		idx++
	}
	if idx > 0 {
		rec.entries = append(rec.entries[:0], rec.entries[idx:]...)
	}

	rec.entries = append(rec.entries, entry{at: at, hash: hash})
	rec.lastWrite = at

	st := State{Count: len(rec.entries)}
	for _, e := range rec.entries {
		if e.hash == hash {
			st.DuplicateCount++
		}
	}
	st.Duplicate = st.DuplicateCount > 1
	return st
}

// Number of live (guild, user) records, for metrics.
func (t *Tracker) Size() int {
	return t.records.Size()
}

// Drops records whose last write is older than the idle eviction period.
// Safe to run concurrently with Record: the idle check, the dead mark, and
// the unmapping all happen under the record's lock, so a racing Record never
// writes into an evicted record.
func (t *Tracker) Sweep(now time.Time) int {
	evicted := 0
	cutoff := now.Add(-t.idleEvict)
	t.records.Range(func(key string, rec *record) bool {
		rec.mu.Lock()
		if rec.lastWrite.Before(cutoff) {
			rec.dead = true
			t.records.Delete(key)
			evicted++
		}
		rec.mu.Unlock()
		return true
	})
	return evicted
}

// Runs Sweep on a ticker until ctx is done. Intended to be started as a
// goroutine from service wiring.
func (t *Tracker) RunSweeper(done <-chan struct{}, interval time.Duration, onSweep func(evicted int)) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			n := t.Sweep(now)
			if onSweep != nil {
				onSweep(n)
			}
		}
	}
}
