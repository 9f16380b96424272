package rules

import (
	"regexp"
	"strings"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
)

// URL fragments that mark a link as suspicious regardless of any other
// signal: shorteners commonly used to cloak scam targets, and fake-gift
// phishing domains.
var suspiciousLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bit\.ly`),
	regexp.MustCompile(`(?i)tinyurl\.com`),
	regexp.MustCompile(`(?i)goo\.gl`),
	regexp.MustCompile(`(?i)t\.co/`),
	regexp.MustCompile(`(?i)haven-gift`),
	regexp.MustCompile(`(?i)havenapp-gift`),
	regexp.MustCompile(`(?i)nitro-gift`),
}

// domains always allowed, before any suspicious-pattern check
var defaultLinkWhitelist = []string{
	"haven.gg",
	"youtube.com",
	"youtu.be",
	"twitch.tv",
}

var _ engine.MessageRuleFunc = BannedLinkRule

// BannedLinkRule flags messages containing suspicious URLs. Whitelisted
// domains (built-in defaults plus the "link-whitelist" set, which has
// per-guild and global variants) are always allowed; anything else is
// flagged when it matches a known-bad pattern.
func BannedLinkRule(c *engine.MessageContext) error {
	if !c.Policy.LinkFilter {
		return nil
	}
	urls := ExtractTextURLs(c.Event.Content)
	for _, url := range urls {
		if whitelistedURL(c, url) {
			continue
		}
		for _, pat := range suspiciousLinkPatterns {
			if pat.MatchString(url) {
				c.AddViolation(ledger.KindBannedLink)
				return nil
			}
		}
	}
	return nil
}

func whitelistedURL(c *engine.MessageContext, url string) bool {
	for _, domain := range defaultLinkWhitelist {
		if strings.Contains(url, domain) {
			return true
		}
	}
	return c.InGuildSet("link-whitelist", urlDomain(url))
}

func urlDomain(url string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://"), "ftp://")
	if idx := strings.IndexAny(s, "/?#"); idx >= 0 {
		s = s[:idx]
	}
	return strings.ToLower(s)
}
