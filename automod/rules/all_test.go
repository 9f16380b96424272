package rules

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/ledger"
	"github.com/haven-chat/warden/automod/policy"
)

func pipelineEvent(userID, messageID, content string, at time.Time) engine.MessageEvent {
	return engine.MessageEvent{
		GuildID:   "g1",
		ChannelID: "chan-1",
		MessageID: messageID,
		AuthorID:  userID,
		Content:   content,
		CreatedAt: at,
	}
}

// Five messages inside the ten second window trip the rate check on the
// fifth; a slower sender never accumulates enough.
func TestPipelineSpamRate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := engine.EngineTestFixture(DefaultRules())
	capture := &engine.CaptureDispatcher{}
	eng.Dispatcher = capture

	base := time.Now()
	for i := 0; i < 4; i++ {
		decision, err := eng.ProcessMessage(ctx, pipelineEvent("u1", fmt.Sprintf("m%d", i), fmt.Sprintf("message %d", i), base.Add(time.Duration(i)*2*time.Second)))
		require.NoError(t, err)
		assert.True(decision.Clean(), "message %d", i)
	}
	decision, err := eng.ProcessMessage(ctx, pipelineEvent("u1", "m4", "message 4", base.Add(8*time.Second)))
	require.NoError(t, err)
	assert.Equal([]string{ledger.KindSpamRate}, decision.Kinds)
	assert.True(decision.DeleteMessage)
	assert.Equal(policy.ActionWarn, decision.Action.Kind)
	assert.Len(capture.ByKind("delete"), 1)
	assert.Len(capture.ByKind("warn"), 1)

	// three seconds apart, at most four messages ever share a window
	for i := 0; i < 8; i++ {
		decision, err := eng.ProcessMessage(ctx, pipelineEvent("u2", fmt.Sprintf("s%d", i), fmt.Sprintf("steady %d", i), base.Add(time.Duration(i)*3*time.Second)))
		require.NoError(t, err)
		assert.True(decision.Clean(), "steady message %d", i)
	}
}

func TestPipelineDuplicateContent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := engine.EngineTestFixture(DefaultRules())

	base := time.Now()
	for i := 0; i < 2; i++ {
		decision, err := eng.ProcessMessage(ctx, pipelineEvent("u1", fmt.Sprintf("m%d", i), "Buy my stuff!", base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
		assert.True(decision.Clean(), "message %d", i)
	}
	// normalization means case and whitespace variations still match
	decision, err := eng.ProcessMessage(ctx, pipelineEvent("u1", "m2", "  buy MY stuff!  ", base.Add(2*time.Second)))
	require.NoError(t, err)
	assert.Equal([]string{ledger.KindDuplicateContent}, decision.Kinds)
}

func TestPipelineMultipleKinds(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := engine.EngineTestFixture(DefaultRules())

	content := "join haven.gg/invite/raid <@1> <@2> <@3> <@4> <@5> <@6>"
	decision, err := eng.ProcessMessage(ctx, pipelineEvent("u1", "m1", content, time.Now()))
	require.NoError(t, err)
	// each co-occurring violation is recorded once, in rule order
	assert.Equal([]string{ledger.KindExcessiveMentions, ledger.KindInviteLink}, decision.Kinds)

	hist, err := eng.Ledger.History(ctx, "g1", "u1", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(ledger.KindInviteLink, hist[0].Kind)
	assert.Equal(ledger.KindExcessiveMentions, hist[1].Kind)
}
