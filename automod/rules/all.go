package rules

import (
	"github.com/haven-chat/warden/automod/engine"
)

func DefaultRules() engine.RuleSet {
	rules := engine.RuleSet{
		MessageRules: []engine.MessageRuleFunc{
			SpamRateRule,
			DuplicateContentRule,
			ExcessiveCapsRule,
			ExcessiveMentionsRule,
			ExcessiveEmojisRule,
			BannedLinkRule,
			InviteLinkRule,
			BannedKeywordRule,
		},
	}
	return rules
}
