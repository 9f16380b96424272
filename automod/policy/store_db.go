package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Database row backing a GuildPolicy. Slice-valued fields are stored as JSON
// text so the schema works on both sqlite and postgres.
type GuildPolicyRecord struct {
	GuildID            string `gorm:"primarykey"`
	SpamThreshold      int
	SpamWindowSec      int
	DuplicateThreshold int
	CapsRatio          float64
	MaxMentions        int
	MaxEmojis          int
	LinkFilter         bool
	InviteFilter       bool
	KeywordFilter      bool
	ExemptRolesJSON    string
	ExemptChannelsJSON string
	AutoAction         bool
	EscalationJSON     string
	UpdatedAt          time.Time
}

func (GuildPolicyRecord) TableName() string {
	return "guild_policies"
}

// Durable policy store on gorm, with an in-process snapshot cache so the hot
// read path never touches the database. Policy writes are rare; each write
// goes through a single mutex, updates the row, then swaps the cached
// snapshot.
type DBStore struct {
	db     *gorm.DB
	logger *slog.Logger

	writeLk sync.Mutex
	cache   *xsync.MapOf[string, GuildPolicy]
}

var _ Store = (*DBStore)(nil)

func NewDBStore(db *gorm.DB, logger *slog.Logger) (*DBStore, error) {
	if err := db.AutoMigrate(&GuildPolicyRecord{}); err != nil {
		return nil, fmt.Errorf("migrating policy schema: %w", err)
	}
	return &DBStore{
		db:     db,
		logger: logger,
		cache:  xsync.NewMapOf[string, GuildPolicy](),
	}, nil
}

func (s *DBStore) GetPolicy(ctx context.Context, guildID string) GuildPolicy {
	if p, ok := s.cache.Load(guildID); ok {
		return p
	}

	var rec GuildPolicyRecord
	err := s.db.WithContext(ctx).First(&rec, "guild_id = ?", guildID).Error
	if err == gorm.ErrRecordNotFound {
		return DefaultPolicy(guildID)
	}
	if err != nil {
		// unknown guild and unreachable storage look the same to the
		// detection path; fall back to defaults rather than blocking
		s.logger.Error("policy read failed, using defaults", "guild", guildID, "err", err)
		return DefaultPolicy(guildID)
	}
	p := rec.policy()
	s.cache.Store(guildID, p)
	return p
}

func (s *DBStore) SetPolicy(ctx context.Context, guildID string, patch Patch) (GuildPolicy, error) {
	s.writeLk.Lock()
	defer s.writeLk.Unlock()

	cur := s.GetPolicy(ctx, guildID)
	next, err := cur.Apply(patch)
	if err != nil {
		return cur, err
	}
	if err := s.persist(ctx, next); err != nil {
		return cur, fmt.Errorf("persisting policy: %w", err)
	}
	s.cache.Store(guildID, next)
	return next, nil
}

func (s *DBStore) ResetPolicy(ctx context.Context, guildID string) (GuildPolicy, error) {
	s.writeLk.Lock()
	defer s.writeLk.Unlock()

	p := DefaultPolicy(guildID)
	if err := s.persist(ctx, p); err != nil {
		return p, fmt.Errorf("persisting policy: %w", err)
	}
	s.cache.Store(guildID, p)
	return p, nil
}

func (s *DBStore) persist(ctx context.Context, p GuildPolicy) error {
	rec, err := newGuildPolicyRecord(p)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		UpdateAll: true,
	}).Create(&rec).Error
}

func newGuildPolicyRecord(p GuildPolicy) (GuildPolicyRecord, error) {
	roles, err := json.Marshal(p.ExemptRoles)
	if err != nil {
		return GuildPolicyRecord{}, err
	}
	channels, err := json.Marshal(p.ExemptChannels)
	if err != nil {
		return GuildPolicyRecord{}, err
	}
	esc, err := json.Marshal(p.Escalation)
	if err != nil {
		return GuildPolicyRecord{}, err
	}
	return GuildPolicyRecord{
		GuildID:            p.GuildID,
		SpamThreshold:      p.SpamThreshold,
		SpamWindowSec:      int(p.SpamWindow / time.Second),
		DuplicateThreshold: p.DuplicateThreshold,
		CapsRatio:          p.CapsRatio,
		MaxMentions:        p.MaxMentions,
		MaxEmojis:          p.MaxEmojis,
		LinkFilter:         p.LinkFilter,
		InviteFilter:       p.InviteFilter,
		KeywordFilter:      p.KeywordFilter,
		ExemptRolesJSON:    string(roles),
		ExemptChannelsJSON: string(channels),
		AutoAction:         p.AutoAction,
		EscalationJSON:     string(esc),
	}, nil
}

func (rec *GuildPolicyRecord) policy() GuildPolicy {
	p := GuildPolicy{
		GuildID:            rec.GuildID,
		SpamThreshold:      rec.SpamThreshold,
		SpamWindow:         time.Duration(rec.SpamWindowSec) * time.Second,
		DuplicateThreshold: rec.DuplicateThreshold,
		CapsRatio:          rec.CapsRatio,
		MaxMentions:        rec.MaxMentions,
		MaxEmojis:          rec.MaxEmojis,
		LinkFilter:         rec.LinkFilter,
		InviteFilter:       rec.InviteFilter,
		KeywordFilter:      rec.KeywordFilter,
		AutoAction:         rec.AutoAction,
	}
	// serialization of these fields is internal; a decode failure means a
	// corrupt row, and defaults are safer than a partial policy
	if err := json.Unmarshal([]byte(rec.ExemptRolesJSON), &p.ExemptRoles); err != nil {
		return DefaultPolicy(rec.GuildID)
	}
	if err := json.Unmarshal([]byte(rec.ExemptChannelsJSON), &p.ExemptChannels); err != nil {
		return DefaultPolicy(rec.GuildID)
	}
	if err := json.Unmarshal([]byte(rec.EscalationJSON), &p.Escalation); err != nil {
		return DefaultPolicy(rec.GuildID)
	}
	return p
}
