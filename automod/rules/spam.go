package rules

import (
	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
)

var _ engine.MessageRuleFunc = SpamRateRule

// SpamRateRule flags users sending more than the configured number of
// messages inside the spam window. The count comes from the activity window
// state recorded for this message; a threshold of zero disables the check.
func SpamRateRule(c *engine.MessageContext) error {
	if c.Policy.SpamThreshold == 0 {
		return nil
	}
	if c.Activity.Count >= c.Policy.SpamThreshold {
		c.AddViolation(ledger.KindSpamRate)
	}
	return nil
}

var _ engine.MessageRuleFunc = DuplicateContentRule

// DuplicateContentRule flags repeated identical content inside the spam
// window. Content is normalized (lowercased, trimmed) before hashing, so
// trivial variations still count as duplicates.
func DuplicateContentRule(c *engine.MessageContext) error {
	if c.Policy.DuplicateThreshold == 0 {
		return nil
	}
	if c.Activity.DuplicateCount >= c.Policy.DuplicateThreshold {
		c.AddViolation(ledger.KindDuplicateContent)
	}
	return nil
}
