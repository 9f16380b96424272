package rules

import (
	"unicode"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
)

// messages with fewer letters than this never trigger the caps check, to
// avoid false positives like "OK" or "LOL"
const capsMinLetters = 10

var _ engine.MessageRuleFunc = ExcessiveCapsRule

// ExcessiveCapsRule flags messages whose uppercase ratio exceeds the policy
// threshold. The ratio is computed over letters only, so digits and
// punctuation don't dilute it.
func ExcessiveCapsRule(c *engine.MessageContext) error {
	if c.Policy.CapsRatio == 0 {
		return nil
	}

	letters := 0
	upper := 0
	for _, r := range c.Event.Content {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < capsMinLetters {
		return nil
	}
	if float64(upper)/float64(letters) > c.Policy.CapsRatio {
		c.AddViolation(ledger.KindExcessiveCaps)
	}
	return nil
}
