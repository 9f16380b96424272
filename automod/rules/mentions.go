package rules

import (
	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
)

var _ engine.MessageRuleFunc = ExcessiveMentionsRule

// ExcessiveMentionsRule flags messages mentioning more distinct users or
// roles than the policy allows.
func ExcessiveMentionsRule(c *engine.MessageContext) error {
	if c.Policy.MaxMentions == 0 {
		return nil
	}
	mentions := ExtractMentions(c.Event.Content)
	if len(mentions) > c.Policy.MaxMentions {
		c.AddViolation(ledger.KindExcessiveMentions)
	}
	return nil
}
