package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mealmuse/feedfan/store"
)

func TestClearFeedCompletenessAndIdempotence(t *testing.T) {
	ctx := context.Background()
	feeds := store.NewFakeFeedStore()
	seedFeed(t, feeds, "u", 5)

	sweeper := NewSweeper(feeds)
	sweeper.BatchSize = 2 // force multiple delete passes

	deleted, err := sweeper.ClearFeed(ctx, "u")
	assert.Nil(t, err)
	assert.Equal(t, 5, deleted)

	page, err := NewReader(feeds).GetFeed(ctx, "u", 10, "")
	assert.Nil(t, err)
	assert.Empty(t, page.Entries)

	// re-running on an empty partition returns 0, not an error
	deleted, err = sweeper.ClearFeed(ctx, "u")
	assert.Nil(t, err)
	assert.Equal(t, 0, deleted)
}

func TestClearFeedOnUnknownUser(t *testing.T) {
	ctx := context.Background()
	sweeper := NewSweeper(store.NewFakeFeedStore())

	deleted, err := sweeper.ClearFeed(ctx, "nobody")
	assert.Nil(t, err)
	assert.Equal(t, 0, deleted)
}

func TestClearFeedHonorsCancellation(t *testing.T) {
	feeds := store.NewFakeFeedStore()
	seedFeed(t, feeds, "u", 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sweeper := NewSweeper(feeds)
	deleted, err := sweeper.ClearFeed(ctx, "u")
	assert.NotNil(t, err)
	assert.Equal(t, 0, deleted)
}
