package engine

import (
	"context"
	"log/slog"

	"github.com/haven-chat/warden/automod/policy"
	"github.com/haven-chat/warden/automod/window"
)

// The primary interface exposed to rules: one processed message, the policy
// snapshot it runs under, and the author's activity window state.
type MessageContext struct {
	// Actual golang "context.Context", if needed for timeouts etc
	Ctx context.Context
	// Any errors encountered while processing methods on this struct get
	// rolled up in this nullable field
	Err error
	// slog logger handle, with event-specific structured fields pre-populated
	Logger *slog.Logger

	Event MessageEvent
	// Immutable policy snapshot for the message's guild. Rules must not
	// mutate it.
	Policy policy.GuildPolicy
	// Activity window state after recording this message.
	Activity window.State

	engine  *Engine
	effects *Effects
}

func NewMessageContext(ctx context.Context, eng *Engine, evt MessageEvent, pol policy.GuildPolicy, st window.State) MessageContext {
	return MessageContext{
		Ctx:      ctx,
		Logger:   eng.Logger.With("guild", evt.GuildID, "channel", evt.ChannelID, "author", evt.AuthorID, "message", evt.MessageID),
		Event:    evt,
		Policy:   pol,
		Activity: st,
		engine:   eng,
		effects:  &Effects{},
	}
}

// request external state via engine (indirect) ======

func (c *MessageContext) GetCount(name, val, period string) int {
	out, err := c.engine.Counters.GetCount(c.Ctx, name, val, period)
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return 0
	}
	return out
}

func (c *MessageContext) GetCountDistinct(name, bucket, period string) int {
	out, err := c.engine.Counters.GetCountDistinct(c.Ctx, name, bucket, period)
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return 0
	}
	return out
}

// checks if `val` is an element of set `name`
func (c *MessageContext) InSet(name, val string) bool {
	out, err := c.engine.Sets.InSet(c.Ctx, name, val)
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return false
	}
	return out
}

// checks the guild-specific set "<name>/<guildID>" first, then the shared
// "<name>/global" set
func (c *MessageContext) InGuildSet(name, val string) bool {
	if c.InSet(name+"/"+c.Event.GuildID, val) {
		return true
	}
	return c.InSet(name+"/global", val)
}

// update effects (indirect) ======

func (c *MessageContext) AddViolation(kind string) {
	c.effects.AddViolation(kind)
}

func (c *MessageContext) Increment(name, val string) {
	c.effects.Increment(name, val)
}

func (c *MessageContext) IncrementPeriod(name, val string, period string) {
	c.effects.IncrementPeriod(name, val, period)
}

func (c *MessageContext) IncrementDistinct(name, bucket, val string) {
	c.effects.IncrementDistinct(name, bucket, val)
}

func (c *MessageContext) Notify(srv string) {
	c.effects.Notify(srv)
}

func (c *MessageContext) AddUserFlag(val string) {
	c.effects.AddUserFlag(val)
}
