package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
)

func TestExcessiveMentionsRule(t *testing.T) {
	assert := assert.New(t)
	eng := engine.EngineTestFixture(engine.RuleSet{})

	c := engine.NewTestMessageContext(&eng, "hey <@1> <@2> <@3> <@4> <@5>")
	assert.NoError(ExcessiveMentionsRule(&c))
	assert.Empty(c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "raid <@1> <@2> <@3> <@4> <@5> <@6>")
	assert.NoError(ExcessiveMentionsRule(&c))
	assert.Equal([]string{ledger.KindExcessiveMentions}, c.ViolationKinds())

	// repeating the same mention doesn't inflate the count
	c = engine.NewTestMessageContext(&eng, strings.Repeat("<@42> ", 20))
	assert.NoError(ExcessiveMentionsRule(&c))
	assert.Empty(c.ViolationKinds())

	// role mentions and nickname mentions count too
	c = engine.NewTestMessageContext(&eng, "<@&10> <@!11> <@12> <@13> <@14> <@15>")
	assert.NoError(ExcessiveMentionsRule(&c))
	assert.Equal([]string{ledger.KindExcessiveMentions}, c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, strings.Repeat("<@1> <@2> <@3> ", 5))
	c.Policy.MaxMentions = 0
	assert.NoError(ExcessiveMentionsRule(&c))
	assert.Empty(c.ViolationKinds())
}

func TestExtractMentions(t *testing.T) {
	assert := assert.New(t)

	assert.Empty(ExtractMentions("no mentions here"))
	assert.Equal([]string{"123"}, ExtractMentions("hi <@123>"))
	assert.Equal([]string{"123", "456"}, ExtractMentions("<@!123> and <@&456> and <@123>"))
}
