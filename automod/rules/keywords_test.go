package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
	"github.com/haven-chat/warden/automod/setstore"
)

func TestBannedKeywordRule(t *testing.T) {
	assert := assert.New(t)
	eng := engine.EngineTestFixture(engine.RuleSet{})

	// fixture seeds "slur" in the global bad-keywords set
	c := engine.NewTestMessageContext(&eng, "you absolute SLUR, stop it")
	assert.NoError(BannedKeywordRule(&c))
	assert.Equal([]string{ledger.KindBannedKeyword}, c.ViolationKinds())

	// token match, not substring match
	c = engine.NewTestMessageContext(&eng, "the slurring of words")
	assert.NoError(BannedKeywordRule(&c))
	assert.Empty(c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "perfectly fine message")
	assert.NoError(BannedKeywordRule(&c))
	assert.Empty(c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "slur")
	c.Policy.KeywordFilter = false
	assert.NoError(BannedKeywordRule(&c))
	assert.Empty(c.ViolationKinds())
}

func TestBannedKeywordRuleGuildSet(t *testing.T) {
	assert := assert.New(t)
	eng := engine.EngineTestFixture(engine.RuleSet{})
	sets := eng.Sets.(setstore.MemSetStore)
	sets.Sets["bad-keywords/guild-1"] = map[string]bool{"pineapple": true}

	c := engine.NewTestMessageContext(&eng, "pizza with pineapple")
	assert.NoError(BannedKeywordRule(&c))
	assert.Equal([]string{ledger.KindBannedKeyword}, c.ViolationKinds())
}
