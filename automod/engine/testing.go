package engine

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/haven-chat/warden/automod/cachestore"
	"github.com/haven-chat/warden/automod/countstore"
	"github.com/haven-chat/warden/automod/escalation"
	"github.com/haven-chat/warden/automod/flagstore"
	"github.com/haven-chat/warden/automod/ledger"
	"github.com/haven-chat/warden/automod/policy"
	"github.com/haven-chat/warden/automod/setstore"
	"github.com/haven-chat/warden/automod/window"
)

// One captured transport command, for test assertions.
type CapturedCommand struct {
	Kind      string
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Duration  time.Duration
	Reason    string
	Kinds     []string
}

// Dispatcher that records every command synchronously instead of executing
// it. Safe for concurrent use.
type CaptureDispatcher struct {
	mu       sync.Mutex
	Commands []CapturedCommand
}

var _ Dispatcher = (*CaptureDispatcher)(nil)

func (d *CaptureDispatcher) capture(cmd CapturedCommand) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Commands = append(d.Commands, cmd)
}

func (d *CaptureDispatcher) DeleteMessage(guildID, channelID, messageID string) {
	d.capture(CapturedCommand{Kind: "delete", GuildID: guildID, ChannelID: channelID, MessageID: messageID})
}

func (d *CaptureDispatcher) WarnUser(guildID, channelID, userID, reason string) {
	d.capture(CapturedCommand{Kind: "warn", GuildID: guildID, ChannelID: channelID, UserID: userID, Reason: reason})
}

func (d *CaptureDispatcher) MuteUser(guildID, userID string, duration time.Duration, reason string) {
	d.capture(CapturedCommand{Kind: "mute", GuildID: guildID, UserID: userID, Duration: duration, Reason: reason})
}

func (d *CaptureDispatcher) EscalateToReview(guildID, userID string, kinds []string, reason string) {
	d.capture(CapturedCommand{Kind: "review", GuildID: guildID, UserID: userID, Kinds: kinds, Reason: reason})
}

// ByKind returns the captured commands of one kind, in capture order.
func (d *CaptureDispatcher) ByKind(kind string) []CapturedCommand {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []CapturedCommand
	for _, cmd := range d.Commands {
		if cmd.Kind == kind {
			out = append(out, cmd)
		}
	}
	return out
}

// NOTE: in this factory, the engine does not have a Dispatcher wired; add eg
// a CaptureDispatcher when the test needs to assert on issued commands
func EngineTestFixture(rules RuleSet) Engine {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	policies := policy.NewMemStore()
	lg := ledger.NewMemLedger()
	sets := setstore.NewMemSetStore()
	sets.Sets["bad-keywords/global"] = map[string]bool{"slur": true}
	cache := cachestore.NewMemCacheStore(1024, 30*time.Second)
	counters := countstore.NewMemCountStore()
	flags := flagstore.NewMemFlagStore()
	eng := Engine{
		Logger:     logger,
		Policies:   policies,
		Rules:      rules,
		Activity:   window.NewTracker(window.DefaultIdleEviction),
		Ledger:     lg,
		Escalation: escalation.NewEngine(policies, lg),
		Counters:   counters,
		Sets:       sets,
		Cache:      cache,
		Flags:      flags,
	}
	return eng
}

// Builds a minimal MessageContext against the fixture engine, for testing
// rules in isolation (no window state, default policy).
func NewTestMessageContext(eng *Engine, content string) MessageContext {
	evt := MessageEvent{
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		MessageID: "msg-1",
		AuthorID:  "user-1",
		Content:   content,
		CreatedAt: time.Now(),
	}
	return NewMessageContext(context.Background(), eng, evt, policy.DefaultPolicy(evt.GuildID), window.State{})
}

// ViolationKinds exposes the kinds a rule added, for rule unit tests.
func (c *MessageContext) ViolationKinds() []string {
	return c.effects.Violations
}
