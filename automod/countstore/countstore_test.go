package countstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemCountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	c, err := cs.GetCount(ctx, "action-mute", "g1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.NoError(cs.Increment(ctx, "action-mute", "g1"))
	assert.NoError(cs.Increment(ctx, "action-mute", "g1"))

	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		c, err = cs.GetCount(ctx, "action-mute", "g1", period)
		assert.NoError(err)
		assert.Equal(2, c)
	}

	c, err = cs.GetCountDistinct(ctx, "offenders", "g1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.NoError(cs.IncrementDistinct(ctx, "offenders", "g1", "u1"))
	assert.NoError(cs.IncrementDistinct(ctx, "offenders", "g1", "u1"))
	assert.NoError(cs.IncrementDistinct(ctx, "offenders", "g1", "u2"))
	c, err = cs.GetCountDistinct(ctx, "offenders", "g1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(2, c)

	// period-scoped increment only touches its own bucket
	assert.NoError(cs.IncrementPeriod(ctx, "action-warn", "g1", PeriodDay))
	c, err = cs.GetCount(ctx, "action-warn", "g1", PeriodDay)
	assert.NoError(err)
	assert.Equal(1, c)
	c, err = cs.GetCount(ctx, "action-warn", "g1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
}

func TestMemCountStoreConcurrent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	// concurrent increments on the same and different keys; run with -race
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				assert.NoError(cs.Increment(ctx, "action-warn", "g1"))
				assert.NoError(cs.IncrementDistinct(ctx, "offenders", "g1", "u1"))
			}
		}()
	}
	wg.Wait()

	c, err := cs.GetCount(ctx, "action-warn", "g1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(100, c)

	c, err = cs.GetCountDistinct(ctx, "offenders", "g1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, c)
}
