package policy

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Returned by store mutations when a patch or threshold table fails validation. No state is changed.
var ErrInvalidPolicy = errors.New("invalid moderation policy")

// Per-guild moderation configuration. Treated as an immutable snapshot once
// handed out by a Store: pipeline code must never mutate a GuildPolicy it
// read, only request a new one via Store.SetPolicy.
type GuildPolicy struct {
	GuildID string

	// A threshold of zero disables the corresponding check.
	SpamThreshold      int
	SpamWindow         time.Duration
	DuplicateThreshold int
	CapsRatio          float64
	MaxMentions        int
	MaxEmojis          int

	LinkFilter    bool
	InviteFilter  bool
	KeywordFilter bool

	ExemptRoles    []string
	ExemptChannels []string

	// When false the engine still detects and records violations, but issues
	// no punishment actions.
	AutoAction bool

	// Ordered escalation table, ascending by Count.
	Escalation []Threshold
}

// Maps a cumulative violation count to a punishment. The highest threshold
// with Count <= the user's violation count wins.
type Threshold struct {
	Count  int
	Action Action
}

type ActionKind string

const (
	ActionNone   ActionKind = "none"
	ActionWarn   ActionKind = "warn"
	ActionMute   ActionKind = "mute"
	ActionReview ActionKind = "review"
)

// A decided punishment. Duration is only meaningful for mutes.
type Action struct {
	Kind     ActionKind
	Duration time.Duration
	Reason   string
}

// The configuration used for any guild that has never been configured.
// Values match the platform's historical defaults.
func DefaultPolicy(guildID string) GuildPolicy {
	return GuildPolicy{
		GuildID:            guildID,
		SpamThreshold:      5,
		SpamWindow:         10 * time.Second,
		DuplicateThreshold: 3,
		CapsRatio:          0.7,
		MaxMentions:        5,
		MaxEmojis:          10,
		LinkFilter:         true,
		InviteFilter:       true,
		KeywordFilter:      true,
		AutoAction:         true,
		Escalation:         DefaultEscalation(),
	}
}

func DefaultEscalation() []Threshold {
	return []Threshold{
		{Count: 1, Action: Action{Kind: ActionWarn}},
		{Count: 3, Action: Action{Kind: ActionMute, Duration: 30 * time.Minute}},
		{Count: 5, Action: Action{Kind: ActionMute, Duration: 60 * time.Minute}},
		{Count: 10, Action: Action{Kind: ActionReview}},
	}
}

// Partial update to a GuildPolicy; nil fields are left unchanged.
type Patch struct {
	SpamThreshold      *int
	SpamWindow         *time.Duration
	DuplicateThreshold *int
	CapsRatio          *float64
	MaxMentions        *int
	MaxEmojis          *int
	LinkFilter         *bool
	InviteFilter       *bool
	KeywordFilter      *bool
	ExemptRoles        []string
	ExemptChannels     []string
	AutoAction         *bool
	Escalation         []Threshold
}

// Returns a copy of p with the patch applied, or ErrInvalidPolicy if any
// patched value is out of range.
func (p GuildPolicy) Apply(patch Patch) (GuildPolicy, error) {
	out := p
	if patch.SpamThreshold != nil {
		if *patch.SpamThreshold < 0 {
			return p, fmt.Errorf("%w: spam threshold must be >= 0", ErrInvalidPolicy)
		}
		out.SpamThreshold = *patch.SpamThreshold
	}
	if patch.SpamWindow != nil {
		if *patch.SpamWindow < 0 {
			return p, fmt.Errorf("%w: spam window must be >= 0", ErrInvalidPolicy)
		}
		out.SpamWindow = *patch.SpamWindow
	}
	if patch.DuplicateThreshold != nil {
		if *patch.DuplicateThreshold < 0 {
			return p, fmt.Errorf("%w: duplicate threshold must be >= 0", ErrInvalidPolicy)
		}
		out.DuplicateThreshold = *patch.DuplicateThreshold
	}
	if patch.CapsRatio != nil {
		if *patch.CapsRatio < 0 || *patch.CapsRatio > 1 {
			return p, fmt.Errorf("%w: caps ratio must be in [0, 1]", ErrInvalidPolicy)
		}
		out.CapsRatio = *patch.CapsRatio
	}
	if patch.MaxMentions != nil {
		if *patch.MaxMentions < 0 {
			return p, fmt.Errorf("%w: max mentions must be >= 0", ErrInvalidPolicy)
		}
		out.MaxMentions = *patch.MaxMentions
	}
	if patch.MaxEmojis != nil {
		if *patch.MaxEmojis < 0 {
			return p, fmt.Errorf("%w: max emojis must be >= 0", ErrInvalidPolicy)
		}
		out.MaxEmojis = *patch.MaxEmojis
	}
	if patch.LinkFilter != nil {
		out.LinkFilter = *patch.LinkFilter
	}
	if patch.InviteFilter != nil {
		out.InviteFilter = *patch.InviteFilter
	}
	if patch.KeywordFilter != nil {
		out.KeywordFilter = *patch.KeywordFilter
	}
	if patch.ExemptRoles != nil {
		out.ExemptRoles = append([]string{}, patch.ExemptRoles...)
	}
	if patch.ExemptChannels != nil {
		out.ExemptChannels = append([]string{}, patch.ExemptChannels...)
	}
	if patch.AutoAction != nil {
		out.AutoAction = *patch.AutoAction
	}
	if patch.Escalation != nil {
		if err := ValidateEscalation(patch.Escalation); err != nil {
			return p, err
		}
		out.Escalation = append([]Threshold{}, patch.Escalation...)
	}
	return out, nil
}

// Checks that the table is non-empty-safe: counts positive, strictly
// increasing, and every action kind known.
func ValidateEscalation(table []Threshold) error {
	if !sort.SliceIsSorted(table, func(i, j int) bool { return table[i].Count < table[j].Count }) {
		return fmt.Errorf("%w: escalation thresholds must be ascending", ErrInvalidPolicy)
	}
	prev := 0
	for _, t := range table {
		if t.Count <= 0 {
			return fmt.Errorf("%w: escalation threshold count must be > 0", ErrInvalidPolicy)
		}
		if t.Count == prev {
			return fmt.Errorf("%w: duplicate escalation threshold count %d", ErrInvalidPolicy, t.Count)
		}
		prev = t.Count
		switch t.Action.Kind {
		case ActionWarn, ActionMute, ActionReview:
		default:
			return fmt.Errorf("%w: unknown action kind %q", ErrInvalidPolicy, t.Action.Kind)
		}
		if t.Action.Kind == ActionMute && t.Action.Duration <= 0 {
			return fmt.Errorf("%w: mute action requires a positive duration", ErrInvalidPolicy)
		}
	}
	return nil
}

func (p *GuildPolicy) RoleExempt(roles []string) bool {
	if len(p.ExemptRoles) == 0 || len(roles) == 0 {
		return false
	}
	exempt := make(map[string]bool, len(p.ExemptRoles))
	for _, r := range p.ExemptRoles {
		exempt[r] = true
	}
	for _, r := range roles {
		if exempt[r] {
			return true
		}
	}
	return false
}

func (p *GuildPolicy) ChannelExempt(channelID string) bool {
	for _, c := range p.ExemptChannels {
		if c == channelID {
			return true
		}
	}
	return false
}
