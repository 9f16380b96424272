package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
)

func TestExcessiveEmojisRule(t *testing.T) {
	assert := assert.New(t)
	eng := engine.EngineTestFixture(engine.RuleSet{})

	c := engine.NewTestMessageContext(&eng, "nice 🎉🎉🎉")
	assert.NoError(ExcessiveEmojisRule(&c))
	assert.Empty(c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, strings.Repeat("🔥", 11))
	assert.NoError(ExcessiveEmojisRule(&c))
	assert.Equal([]string{ledger.KindExcessiveEmojis}, c.ViolationKinds())

	// custom emoji tokens count alongside unicode emoji
	c = engine.NewTestMessageContext(&eng, strings.Repeat("<:pog:123> ", 6)+strings.Repeat("😂", 5))
	assert.NoError(ExcessiveEmojisRule(&c))
	assert.Equal([]string{ledger.KindExcessiveEmojis}, c.ViolationKinds())

	c = engine.NewTestMessageContext(&eng, strings.Repeat("🔥", 50))
	c.Policy.MaxEmojis = 0
	assert.NoError(ExcessiveEmojisRule(&c))
	assert.Empty(c.ViolationKinds())
}

func TestCountEmojis(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, CountEmojis("plain text only"))
	assert.Equal(3, CountEmojis("🎉🎉🎉"))
	assert.Equal(2, CountEmojis("<:pog:123> and <a:dance:456>"))
	// a ZWJ family sequence is one grapheme, one emoji
	assert.Equal(1, CountEmojis("👨‍👩‍👧‍👦"))
}
