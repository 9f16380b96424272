package ledger

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestMemLedgerBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	l := NewMemLedger()
	base := time.Now().Add(-time.Hour)

	c, err := l.CountSince(ctx, "g1", "u1", base)
	assert.NoError(err)
	assert.Equal(0, c)

	for i := 0; i < 4; i++ {
		assert.NoError(l.Append(ctx, Violation{
			GuildID:   "g1",
			UserID:    "u1",
			Kind:      KindSpamRate,
			Snippet:   fmt.Sprintf("msg %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	assert.NoError(l.Append(ctx, Violation{
		GuildID:   "g1",
		UserID:    "u2",
		Kind:      KindExcessiveCaps,
		CreatedAt: base,
	}))

	c, err = l.CountSince(ctx, "g1", "u1", base)
	assert.NoError(err)
	assert.Equal(4, c)

	// look-back window excludes older entries
	c, err = l.CountSince(ctx, "g1", "u1", base.Add(2*time.Minute))
	assert.NoError(err)
	assert.Equal(2, c)

	// other users and guilds are not counted
	c, err = l.CountSince(ctx, "g2", "u1", base)
	assert.NoError(err)
	assert.Equal(0, c)
}

func TestMemLedgerHistoryOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	l := NewMemLedger()
	base := time.Now()
	for i := 0; i < 5; i++ {
		assert.NoError(l.Append(ctx, Violation{
			GuildID:   "g1",
			UserID:    "u1",
			Kind:      KindSpamRate,
			Snippet:   fmt.Sprintf("msg %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	hist, err := l.History(ctx, "g1", "u1", 3)
	assert.NoError(err)
	assert.Len(hist, 3)
	assert.Equal("msg 4", hist[0].Snippet)
	assert.Equal("msg 2", hist[2].Snippet)
}

func TestMemLedgerStats(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	l := NewMemLedger()
	now := time.Now()
	for i := 0; i < 3; i++ {
		assert.NoError(l.Append(ctx, Violation{GuildID: "g1", UserID: "u1", Kind: KindSpamRate, CreatedAt: now}))
	}
	assert.NoError(l.Append(ctx, Violation{GuildID: "g1", UserID: "u2", Kind: KindInviteLink, CreatedAt: now}))

	stats, err := l.Stats(ctx, "g1", now.Add(-time.Minute))
	assert.NoError(err)
	counts := make(map[string]int)
	for _, kc := range stats {
		counts[kc.Kind] = kc.Count
	}
	assert.Equal(3, counts[KindSpamRate])
	assert.Equal(1, counts[KindInviteLink])
}

func TestMemLedgerFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	l := NewMemLedger()
	l.FailWith = fmt.Errorf("%w: disk on fire", ErrStorageFailure)

	err := l.Append(ctx, Violation{GuildID: "g1", UserID: "u1", Kind: KindSpamRate})
	assert.ErrorIs(err, ErrStorageFailure)
}

func TestSnippetTruncation(t *testing.T) {
	assert := assert.New(t)

	short := "hello"
	assert.Equal(short, Snippet(short))

	long := strings.Repeat("a", 600)
	assert.Len(Snippet(long), SnippetLimit)
}

func TestSnippetRuneBoundary(t *testing.T) {
	assert := assert.New(t)

	// 200 three-byte runes; the byte limit falls mid-rune, so the cut must
	// back up to keep the snippet valid UTF-8
	long := strings.Repeat("日", 200)
	s := Snippet(long)
	assert.True(utf8.ValidString(s))
	assert.LessOrEqual(len(s), SnippetLimit)
	assert.Equal(SnippetLimit-(SnippetLimit%3), len(s))
}
