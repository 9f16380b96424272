package engine

import (
	"context"
	"strings"

	"github.com/haven-chat/warden/automod/flagstore"
	"github.com/haven-chat/warden/automod/policy"
)

// Persists operational side-effects (counters, flags) and hands the decided
// action to the dispatcher. Failures here are logged and counted, never
// propagated: the decision has already been made and returned.
//
// Note that this method expects the per-key lock to have been released; it
// performs no window or ledger access.
func (eng *Engine) persistEffects(ctx context.Context, c *MessageContext, decision *Decision) {
	evt := c.Event

	// built-in effects for any violation
	c.effects.Increment("violations", evt.GuildID)
	c.effects.IncrementDistinct("offenders", evt.GuildID, evt.AuthorID)
	if decision.Action.Kind != policy.ActionNone {
		c.effects.Increment("action-"+string(decision.Action.Kind), evt.GuildID)
	}
	if decision.Action.Kind == policy.ActionReview {
		c.effects.AddUserFlag(FlagReview)
	}

	eng.persistCounters(ctx, c.effects)

	if len(c.effects.UserFlags) > 0 && eng.Flags != nil {
		if err := eng.Flags.Add(ctx, flagstore.UserKey(evt.GuildID, evt.AuthorID), c.effects.UserFlags); err != nil {
			c.Logger.Error("adding user flags failed", "flags", c.effects.UserFlags, "err", err)
		}
	}

	eng.canonicalLogLine(c, decision)
	eng.dispatchDecision(ctx, c, decision)
	eng.notify(ctx, c, decision)

	if decision.Action.Kind != policy.ActionNone {
		actionIssuedCount.WithLabelValues(string(decision.Action.Kind)).Inc()
		eng.setCooldown(ctx, evt.GuildID, evt.AuthorID)
	}
}

func (eng *Engine) persistCounters(ctx context.Context, eff *Effects) {
	if eng.Counters == nil {
		return
	}
	for _, ref := range eff.CounterIncrements {
		var err error
		if ref.Period != nil {
			err = eng.Counters.IncrementPeriod(ctx, ref.Name, ref.Val, *ref.Period)
		} else {
			err = eng.Counters.Increment(ctx, ref.Name, ref.Val)
		}
		if err != nil {
			eng.Logger.Error("incrementing counter failed", "name", ref.Name, "err", err)
		}
	}
	for _, ref := range eff.CounterDistinctIncrements {
		if err := eng.Counters.IncrementDistinct(ctx, ref.Name, ref.Bucket, ref.Val); err != nil {
			eng.Logger.Error("incrementing distinct counter failed", "name", ref.Name, "err", err)
		}
	}
}

// Hands the delete and the punishment to the transport layer. The dispatcher
// is fire-and-forget with its own retry/backoff; a slow transport never
// backs up detection.
func (eng *Engine) dispatchDecision(ctx context.Context, c *MessageContext, decision *Decision) {
	if eng.Dispatcher == nil {
		return
	}
	evt := c.Event

	if decision.DeleteMessage {
		eng.Dispatcher.DeleteMessage(evt.GuildID, evt.ChannelID, evt.MessageID)
	}
	if !c.Policy.AutoAction {
		return
	}

	reason := decision.Action.Reason
	if reason == "" {
		reason = "auto-moderation: " + strings.Join(decision.Kinds, ", ")
	}
	switch decision.Action.Kind {
	case policy.ActionWarn:
		eng.Dispatcher.WarnUser(evt.GuildID, evt.ChannelID, evt.AuthorID, reason)
	case policy.ActionMute:
		eng.Dispatcher.MuteUser(evt.GuildID, evt.AuthorID, decision.Action.Duration, reason)
	case policy.ActionReview:
		eng.Dispatcher.EscalateToReview(evt.GuildID, evt.AuthorID, decision.Kinds, reason)
	}
}

func (eng *Engine) notify(ctx context.Context, c *MessageContext, decision *Decision) {
	if eng.Notifier == nil {
		return
	}
	// actions beyond a bare warn always page operators
	if decision.Action.Kind == policy.ActionMute || decision.Action.Kind == policy.ActionReview {
		c.effects.Notify("slack")
	}
	for _, srv := range c.effects.Notifications {
		if err := eng.Notifier.Send(ctx, srv, c, decision); err != nil {
			c.Logger.Error("sending notification failed", "service", srv, "err", err)
		}
	}
}

func (eng *Engine) canonicalLogLine(c *MessageContext, decision *Decision) {
	c.Logger.Info("automod-decision",
		"kinds", decision.Kinds,
		"action", decision.Action.Kind,
		"duration", decision.Action.Duration,
		"delete", decision.DeleteMessage,
		"windowCount", c.Activity.Count,
		"duplicate", c.Activity.Duplicate,
	)
}
