package engine

import (
	"context"
	"fmt"
	"log/slog"
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

// User flag added when a mute or review action is escalated to humans.
const FlagReview = "review"

// How long a user is skipped by detection after an action was issued
// against them.
var actionCooldown = 30 * time.Second

// Runtime for executing content rules, maintaining activity windows, and
// recording and escalating violations.
//
// Careful when initializing: all stores are expected non-nil; Dispatcher and
// Notifier may be nil (decisions are still made, nothing is executed).
type Engine struct {
	Logger     *slog.Logger
	Policies   policy.Store
	Rules      RuleSet
	Activity   *window.Tracker
	Ledger     ledger.Ledger
	Escalation *escalation.Engine
	Counters   countstore.CountStore
	Sets       setstore.SetStore
	Cache      cachestore.CacheStore
	Flags      flagstore.FlagStore
	// Executes decided actions against the chat transport (optional).
	Dispatcher Dispatcher
	// Pings operators about issued actions (optional).
	Notifier Notifier

	locks keyLocks
}

// The pipeline's terminal output for one message.
type Decision struct {
	// Distinct violation kinds detected on this message, in detection order.
	// Empty means the message was clean (or the author exempt).
	Kinds []string
	// The punishment chosen by escalation. Kind "none" when the message was
	// clean, the guild has auto-action disabled, or escalation chose nothing.
	Action policy.Action
	// True when the message itself should be removed from the channel.
	DeleteMessage bool
}

func (d *Decision) Clean() bool {
	return len(d.Kinds) == 0
}

// Runs the full moderation pipeline for one inbound message:
// policy load, exemption check, activity window update, content rules,
// ledger writes, escalation, dispatch.
//
// A ledger storage failure does not mask detection: the returned Decision
// carries the detected kinds even when err wraps ledger.ErrStorageFailure,
// so the caller can still react to an active abuse event.
func (eng *Engine) ProcessMessage(ctx context.Context, evt MessageEvent) (*Decision, error) {
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("automod event execution exception", "err", r, "guild", evt.GuildID, "author", evt.AuthorID)
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.Inc()

	pol := eng.Policies.GetPolicy(ctx, evt.GuildID)

	if evt.Bot || pol.RoleExempt(evt.AuthorRoles) || pol.ChannelExempt(evt.ChannelID) {
		eventExemptCount.Inc()
		return &Decision{Action: policy.Action{Kind: policy.ActionNone}}, nil
	}
	if eng.inCooldown(ctx, evt.GuildID, evt.AuthorID) {
		eventCooldownCount.Inc()
		return &Decision{Action: policy.Action{Kind: policy.ActionNone}}, nil
	}

	c, decision, storageErr := eng.detectAndRecord(ctx, evt, pol)
	if decision == nil {
		eventErrorCount.Inc()
		return nil, fmt.Errorf("running message rules: %w", storageErr)
	}
	if decision.Clean() {
		eng.persistCounters(ctx, c.effects)
		return decision, nil
	}

	decision.Action = eng.applyQuotas(ctx, c, decision.Action)

	eng.persistEffects(ctx, c, decision)

	if storageErr != nil {
		return decision, fmt.Errorf("recording violations: %w", storageErr)
	}
	return decision, nil
}

// The lock-protected stage of the pipeline: window mutation, content rules,
// per-kind ledger appends, escalation read. Holds the per-(guild, user)
// stripe for the whole stage so the window mutation and the violation count
// it feeds can't race with another invocation for the same key; the deferred
// unlock also releases the stripe when a rule panics.
//
// A nil decision means rule execution failed and the returned error is
// fatal. Otherwise the error is a remembered storage failure that must not
// mask the decision.
func (eng *Engine) detectAndRecord(ctx context.Context, evt MessageEvent, pol policy.GuildPolicy) (*MessageContext, *Decision, error) {
	mu := eng.locks.lock(evt.GuildID, evt.AuthorID)
	defer mu.Unlock()

	st := eng.Activity.Record(evt.GuildID, evt.AuthorID, evt.CreatedAt, window.HashContent(evt.Content), pol.SpamWindow)

	c := NewMessageContext(ctx, eng, evt, pol, st)
	if err := eng.Rules.CallMessageRules(&c); err != nil {
		return &c, nil, err
	}
	if c.Err != nil {
		c.Logger.Warn("non-fatal error during rule execution", "err", c.Err)
	}

	decision := &Decision{Kinds: c.effects.Violations, Action: policy.Action{Kind: policy.ActionNone}}
	if decision.Clean() {
		return &c, decision, nil
	}

	decision.DeleteMessage = true
	for _, kind := range decision.Kinds {
		violationDetectedCount.WithLabelValues(kind).Inc()
	}

	// append one ledger entry per detected kind; a failure is remembered and
	// surfaced, but never stops detection reporting
	var storageErr error
	snippet := ledger.Snippet(evt.Content)
	for _, kind := range decision.Kinds {
		err := eng.Ledger.Append(ctx, ledger.Violation{
			GuildID:   evt.GuildID,
			UserID:    evt.AuthorID,
			ChannelID: evt.ChannelID,
			MessageID: evt.MessageID,
			Kind:      kind,
			Snippet:   snippet,
			CreatedAt: evt.CreatedAt,
		})
		if err != nil {
			storageErr = err
			ledgerErrorCount.Inc()
			c.Logger.Error("violation ledger append failed", "kind", kind, "err", err)
		}
	}

	action, err := eng.Escalation.Decide(ctx, evt.GuildID, evt.AuthorID)
	if err != nil {
		// escalation reads the ledger; during a storage outage fall back to
		// a warn so an active spam event still gets a visible response
		c.Logger.Error("escalation decide failed, falling back to warn", "err", err)
		action = policy.Action{Kind: policy.ActionWarn}
		if storageErr == nil {
			storageErr = err
		}
	}
	decision.Action = action
	return &c, decision, storageErr
}

func (eng *Engine) cooldownKey(guildID, userID string) string {
	return guildID + "/" + userID
}

func (eng *Engine) inCooldown(ctx context.Context, guildID, userID string) bool {
	if eng.Cache == nil {
		return false
	}
	v, err := eng.Cache.Get(ctx, "cooldown", eng.cooldownKey(guildID, userID))
	if err != nil {
		eng.Logger.Warn("cooldown cache read failed", "err", err)
		return false
	}
	if v == "" {
		return false
	}
	// the marker stores its own expiry; the cache TTL is only an upper bound
	until, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return false
	}
	return time.Now().Before(until)
}

func (eng *Engine) setCooldown(ctx context.Context, guildID, userID string) {
	if eng.Cache == nil {
		return
	}
	if err := eng.Cache.Set(ctx, "cooldown", eng.cooldownKey(guildID, userID), time.Now().Add(actionCooldown).Format(time.RFC3339)); err != nil {
		eng.Logger.Warn("cooldown cache write failed", "err", err)
	}
}

// Converts actions that are over their daily guild quota into review
// escalations, so a runaway rule can't mass-punish a whole guild.
func (eng *Engine) applyQuotas(ctx context.Context, c *MessageContext, action policy.Action) policy.Action {
	switch action.Kind {
	case policy.ActionMute:
		count := c.GetCount("action-mute", c.Event.GuildID, countstore.PeriodDay)
		if count >= QuotaMuteDay {
			c.Logger.Warn("mute quota exceeded, escalating to review", "count", count)
			quotaTrippedCount.WithLabelValues("mute").Inc()
			return policy.Action{Kind: policy.ActionReview, Reason: action.Reason}
		}
	case policy.ActionReview:
		count := c.GetCount("action-review", c.Event.GuildID, countstore.PeriodDay)
		if count >= QuotaReviewDay {
			c.Logger.Warn("review quota exceeded, leaving at warn", "count", count)
			quotaTrippedCount.WithLabelValues("review").Inc()
			return policy.Action{Kind: policy.ActionWarn, Reason: action.Reason}
		}
	}
	return action
}
