package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
)

func TestExcessiveCapsRule(t *testing.T) {
	assert := assert.New(t)
	eng := engine.EngineTestFixture(engine.RuleSet{})

	c := engine.NewTestMessageContext(&eng, "HELLO THIS IS ALL CAPS TEXT")
	assert.NoError(ExcessiveCapsRule(&c))
	assert.Equal([]string{ledger.KindExcessiveCaps}, c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "hello this is regular text")
	assert.NoError(ExcessiveCapsRule(&c))
	assert.Empty(c.ViolationKinds())

	// too few letters to judge, even though the ratio is 1.0
	c = engine.NewTestMessageContext(&eng, "LOL!! 12345")
	assert.NoError(ExcessiveCapsRule(&c))
	assert.Empty(c.ViolationKinds())

	// digits and punctuation don't dilute the ratio
	c = engine.NewTestMessageContext(&eng, "AAAAABBBBBCC 1234567890 !!!")
	assert.NoError(ExcessiveCapsRule(&c))
	assert.Equal([]string{ledger.KindExcessiveCaps}, c.ViolationKinds())

	// exactly at the threshold is allowed; only strictly above trips
	c = engine.NewTestMessageContext(&eng, "AAAAAAABBB")
	c.Policy.CapsRatio = 0.7
	assert.NoError(ExcessiveCapsRule(&c))
	assert.Empty(c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "AAAAAAAABB")
	c.Policy.CapsRatio = 0.7
	assert.NoError(ExcessiveCapsRule(&c))
	assert.Equal([]string{ledger.KindExcessiveCaps}, c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "SCREAMING INTO THE VOID")
	c.Policy.CapsRatio = 0
	assert.NoError(ExcessiveCapsRule(&c))
	assert.Empty(c.ViolationKinds())
}
