package ledger

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Database row for a violation. The composite index supports the two hot
// queries: count-since and recent-history, both keyed (guild, user, time).
type ViolationRecord struct {
	ID        uint64    `gorm:"primarykey"`
	GuildID   string    `gorm:"index:idx_violations_guild_user_time,priority:1;index:idx_violations_guild_time,priority:1"`
	UserID    string    `gorm:"index:idx_violations_guild_user_time,priority:2"`
	CreatedAt time.Time `gorm:"index:idx_violations_guild_user_time,priority:3;index:idx_violations_guild_time,priority:2"`
	ChannelID string
	MessageID string
	Kind      string
	Snippet   string
}

func (ViolationRecord) TableName() string {
	return "violations"
}

// Gorm-backed ledger; works against sqlite or postgres (see store.SetupDatabase).
type DBLedger struct {
	db *gorm.DB
}

var _ Ledger = (*DBLedger)(nil)

func NewDBLedger(db *gorm.DB) (*DBLedger, error) {
	if err := db.AutoMigrate(&ViolationRecord{}); err != nil {
		return nil, fmt.Errorf("migrating ledger schema: %w", err)
	}
	return &DBLedger{db: db}, nil
}

func (l *DBLedger) Append(ctx context.Context, v Violation) error {
	rec := ViolationRecord{
		GuildID:   v.GuildID,
		UserID:    v.UserID,
		CreatedAt: v.CreatedAt,
		ChannelID: v.ChannelID,
		MessageID: v.MessageID,
		Kind:      v.Kind,
		Snippet:   v.Snippet,
	}
	if err := l.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("%w: append: %v", ErrStorageFailure, err)
	}
	return nil
}

func (l *DBLedger) CountSince(ctx context.Context, guildID, userID string, since time.Time) (int, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&ViolationRecord{}).
		Where("guild_id = ? AND user_id = ? AND created_at >= ?", guildID, userID, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStorageFailure, err)
	}
	return int(count), nil
}

func (l *DBLedger) History(ctx context.Context, guildID, userID string, limit int) ([]Violation, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []ViolationRecord
	err := l.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: history: %v", ErrStorageFailure, err)
	}
	out := make([]Violation, len(recs))
	for i, rec := range recs {
		out[i] = Violation{
			GuildID:   rec.GuildID,
			UserID:    rec.UserID,
			ChannelID: rec.ChannelID,
			MessageID: rec.MessageID,
			Kind:      rec.Kind,
			Snippet:   rec.Snippet,
			CreatedAt: rec.CreatedAt,
		}
	}
	return out, nil
}

func (l *DBLedger) Stats(ctx context.Context, guildID string, since time.Time) ([]KindCount, error) {
	var out []KindCount
	err := l.db.WithContext(ctx).Model(&ViolationRecord{}).
		Select("kind, count(*) as count").
		Where("guild_id = ? AND created_at >= ?", guildID, since).
		Group("kind").
		Order("count DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %v", ErrStorageFailure, err)
	}
	return out, nil
}
