package rules

import (
	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
)

var _ engine.MessageRuleFunc = ExcessiveEmojisRule

// ExcessiveEmojisRule flags messages with more emoji (custom or standard)
// than the policy allows.
func ExcessiveEmojisRule(c *engine.MessageContext) error {
	if c.Policy.MaxEmojis == 0 {
		return nil
	}
	if CountEmojis(c.Event.Content) > c.Policy.MaxEmojis {
		c.AddViolation(ledger.KindExcessiveEmojis)
	}
	return nil
}
