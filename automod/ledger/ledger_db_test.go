package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDBLedger(t *testing.T) *DBLedger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	l, err := NewDBLedger(db)
	require.NoError(t, err)
	return l
}

func TestDBLedgerRoundTrip(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	l := testDBLedger(t)
	base := time.Now().UTC().Truncate(time.Second)

	assert.NoError(l.Append(ctx, Violation{
		GuildID:   "g1",
		UserID:    "u1",
		ChannelID: "c1",
		MessageID: "m1",
		Kind:      KindDuplicateContent,
		Snippet:   "same thing again",
		CreatedAt: base,
	}))
	assert.NoError(l.Append(ctx, Violation{
		GuildID:   "g1",
		UserID:    "u1",
		Kind:      KindSpamRate,
		CreatedAt: base.Add(time.Second),
	}))

	c, err := l.CountSince(ctx, "g1", "u1", base.Add(-time.Minute))
	assert.NoError(err)
	assert.Equal(2, c)

	hist, err := l.History(ctx, "g1", "u1", 10)
	assert.NoError(err)
	assert.Len(hist, 2)
	assert.Equal(KindSpamRate, hist[0].Kind)
	assert.Equal("same thing again", hist[1].Snippet)

	stats, err := l.Stats(ctx, "g1", base.Add(-time.Minute))
	assert.NoError(err)
	assert.Len(stats, 2)
}
