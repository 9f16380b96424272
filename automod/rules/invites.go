package rules

import (
	"regexp"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
)

// invite-link shapes for the platform, in all their historical spellings
var invitePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)haven\.gg/invite/\w+`),
	regexp.MustCompile(`(?i)haven\.gg/i/\w+`),
	regexp.MustCompile(`(?i)havenapp\.com/invite/\w+`),
	regexp.MustCompile(`(?i)haven\.chat/invite/\w+`),
}

var _ engine.MessageRuleFunc = InviteLinkRule

// InviteLinkRule flags messages containing server invite links, which are
// the dominant vector for raid and spam recruitment.
func InviteLinkRule(c *engine.MessageContext) error {
	if !c.Policy.InviteFilter {
		return nil
	}
	for _, pat := range invitePatterns {
		if pat.MatchString(c.Event.Content) {
			c.AddViolation(ledger.KindInviteLink)
			return nil
		}
	}
	return nil
}
