package flagstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemFlagStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fs := NewMemFlagStore()
	key := UserKey("g1", "u1")

	flags, err := fs.Get(ctx, key)
	assert.NoError(err)
	assert.Empty(flags)

	assert.NoError(fs.Add(ctx, key, []string{"review"}))
	assert.NoError(fs.Add(ctx, key, []string{"review", "repeat-offender"}))

	flags, err = fs.Get(ctx, key)
	assert.NoError(err)
	assert.ElementsMatch([]string{"review", "repeat-offender"}, flags)

	assert.NoError(fs.Remove(ctx, key, []string{"review"}))
	flags, err = fs.Get(ctx, key)
	assert.NoError(err)
	assert.Equal([]string{"repeat-offender"}, flags)

	// removing an absent flag is not an error
	assert.NoError(fs.Remove(ctx, key, []string{"missing"}))
}
