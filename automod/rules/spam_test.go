package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
	"github.com/haven-chat/warden/automod/window"
)

func TestSpamRateRule(t *testing.T) {
	assert := assert.New(t)
	eng := engine.EngineTestFixture(engine.RuleSet{})

	c := engine.NewTestMessageContext(&eng, "hello")
	c.Activity = window.State{Count: 4}
	assert.NoError(SpamRateRule(&c))
	assert.Empty(c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "hello")
	c.Activity = window.State{Count: 5}
	assert.NoError(SpamRateRule(&c))
	assert.Equal([]string{ledger.KindSpamRate}, c.ViolationKinds())

	// zero threshold disables the check entirely
	c = engine.NewTestMessageContext(&eng, "hello")
	c.Policy.SpamThreshold = 0
	c.Activity = window.State{Count: 500}
	assert.NoError(SpamRateRule(&c))
	assert.Empty(c.ViolationKinds())
}

func TestDuplicateContentRule(t *testing.T) {
	assert := assert.New(t)
	eng := engine.EngineTestFixture(engine.RuleSet{})

	c := engine.NewTestMessageContext(&eng, "buy my stuff")
	c.Activity = window.State{Count: 2, Duplicate: true, DuplicateCount: 2}
	assert.NoError(DuplicateContentRule(&c))
	assert.Empty(c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "buy my stuff")
	c.Activity = window.State{Count: 3, Duplicate: true, DuplicateCount: 3}
	assert.NoError(DuplicateContentRule(&c))
	assert.Equal([]string{ledger.KindDuplicateContent}, c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "buy my stuff")
	c.Policy.DuplicateThreshold = 0
	c.Activity = window.State{Duplicate: true, DuplicateCount: 10}
	assert.NoError(DuplicateContentRule(&c))
	assert.Empty(c.ViolationKinds())
}
