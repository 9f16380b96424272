package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
)

func TestInviteLinkRule(t *testing.T) {
	assert := assert.New(t)
	eng := engine.EngineTestFixture(engine.RuleSet{})

	for _, content := range []string{
		"join us haven.gg/invite/abc123",
		"JOIN https://HAVEN.GG/i/xYz",
		"https://havenapp.com/invite/raid",
		"haven.chat/invite/qq11",
	} {
		c := engine.NewTestMessageContext(&eng, content)
		assert.NoError(InviteLinkRule(&c))
		assert.Equal([]string{ledger.KindInviteLink}, c.ViolationKinds(), content)
	}

	c := engine.NewTestMessageContext(&eng, "visit haven.gg for more info")
	assert.NoError(InviteLinkRule(&c))
	assert.Empty(c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, "haven.gg/invite/abc123")
	c.Policy.InviteFilter = false
	assert.NoError(InviteLinkRule(&c))
	assert.Empty(c.ViolationKinds())
}
