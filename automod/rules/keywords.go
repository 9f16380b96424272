package rules

import (
	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
)

var _ engine.MessageRuleFunc = BannedKeywordRule

// BannedKeywordRule flags messages containing words from the guild's banned
// keyword set (falling back to the global set). Matching is per-token after
// lowercasing, not substring, so "class" doesn't trip on "ass".
func BannedKeywordRule(c *engine.MessageContext) error {
	if !c.Policy.KeywordFilter {
		return nil
	}
	for _, tok := range ExtractTextTokens(c.Event.Content) {
		if c.InGuildSet("bad-keywords", tok) {
			c.AddViolation(ledger.KindBannedKeyword)
			return nil
		}
	}
	return nil
}
