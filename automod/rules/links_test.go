package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
	"github.com/haven-chat/warden/automod/setstore"
)

func TestBannedLinkRule(t *testing.T) {
	assert := assert.New(t)
	eng := engine.EngineTestFixture(engine.RuleSet{})

	c := engine.NewTestMessageContext(&eng, "check out https://bit.ly/abc123")
	assert.NoError(BannedLinkRule(&c))
	assert.Equal([]string{ledger.KindBannedLink}, c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "free nitro!! https://haven-gift.ru/claim")
	assert.NoError(BannedLinkRule(&c))
	assert.Equal([]string{ledger.KindBannedLink}, c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "watch https://youtube.com/watch?v=xyz")
	assert.NoError(BannedLinkRule(&c))
	assert.Empty(c.ViolationKinds())

	// an unknown domain that matches no suspicious pattern is fine
	c = engine.NewTestMessageContext(&eng, "docs at https://example.org/guide")
	assert.NoError(BannedLinkRule(&c))
	assert.Empty(c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "https://tinyurl.com/xyz")
	c.Policy.LinkFilter = false
	assert.NoError(BannedLinkRule(&c))
	assert.Empty(c.ViolationKinds())
}

func TestBannedLinkRuleGuildWhitelist(t *testing.T) {
	assert := assert.New(t)
	eng := engine.EngineTestFixture(engine.RuleSet{})
	sets := eng.Sets.(setstore.MemSetStore)
	sets.Sets["link-whitelist/guild-1"] = map[string]bool{"bit.ly": true}

	// guild whitelisted the shortener, so it passes for this guild
	c := engine.NewTestMessageContext(&eng, "see https://bit.ly/abc123")
	assert.NoError(BannedLinkRule(&c))
	assert.Empty(c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "see https://tinyurl.com/xyz")
	assert.NoError(BannedLinkRule(&c))
	assert.Equal([]string{ledger.KindBannedLink}, c.ViolationKinds())
}

func TestURLDomain(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("example.org", urlDomain("https://example.org/guide?x=1"))
	assert.Equal("bit.ly", urlDomain("http://Bit.LY/abc"))
	assert.Equal("example.org", urlDomain("example.org"))
}
