package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mealmuse/feedfan/model"
	"github.com/mealmuse/feedfan/store"
)

func seedFeed(t *testing.T, feeds *store.FakeFeedStore, userId string, n int) {
	t.Helper()
	base := time.Now()
	for i := 0; i < n; i++ {
		entry := &model.FeedEntry{
			ActivityId:  fmt.Sprintf("a%04d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
			AuthorId:    "author",
			AuthorName:  "Author",
			Kind:        model.ActivityKindRecipeCreated,
			EntityId:    fmt.Sprintf("recipe-%d", i),
			EntityTitle: "Shakshuka",
			EntitySlug:  "shakshuka",
		}
		assert.Nil(t, feeds.AppendBatch(context.Background(), []string{userId}, entry))
	}
}

func TestGetFeedOrdering(t *testing.T) {
	ctx := context.Background()
	feeds := store.NewFakeFeedStore()
	reader := NewReader(feeds)
	seedFeed(t, feeds, "u", 10)

	page, err := reader.GetFeed(ctx, "u", 10, "")
	assert.Nil(t, err)
	assert.Equal(t, 10, len(page.Entries))
	for i := 1; i < len(page.Entries); i++ {
		assert.False(t, page.Entries[i].CreatedAt.After(page.Entries[i-1].CreatedAt))
	}
}

func TestGetFeedPagination(t *testing.T) {
	ctx := context.Background()
	feeds := store.NewFakeFeedStore()
	reader := NewReader(feeds)
	seedFeed(t, feeds, "u", 5)

	first, err := reader.GetFeed(ctx, "u", 2, "")
	assert.Nil(t, err)
	assert.Equal(t, 2, len(first.Entries))
	assert.NotEmpty(t, first.NextCursor)

	second, err := reader.GetFeed(ctx, "u", 2, first.NextCursor)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(second.Entries))

	third, err := reader.GetFeed(ctx, "u", 2, second.NextCursor)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(third.Entries))
	// a short page is the end of the partition, no continuation
	assert.Empty(t, third.NextCursor)

	// pages never overlap
	seen := map[string]bool{}
	for _, page := range []*Page{first, second, third} {
		for _, entry := range page.Entries {
			assert.False(t, seen[entry.ActivityId])
			seen[entry.ActivityId] = true
		}
	}
	assert.Equal(t, 5, len(seen))
}

func TestGetFeedInvalidCursorStartsFromNewest(t *testing.T) {
	ctx := context.Background()
	feeds := store.NewFakeFeedStore()
	reader := NewReader(feeds)
	seedFeed(t, feeds, "u", 3)

	page, err := reader.GetFeed(ctx, "u", 10, "!!not-a-cursor!!")
	assert.Nil(t, err)
	assert.Equal(t, 3, len(page.Entries))
	assert.Equal(t, "a0002", page.Entries[0].ActivityId)
}

func TestGetFeedDefaultLimit(t *testing.T) {
	ctx := context.Background()
	feeds := store.NewFakeFeedStore()
	reader := NewReader(feeds)
	seedFeed(t, feeds, "u", DefaultPageSize+10)

	page, err := reader.GetFeed(ctx, "u", 0, "")
	assert.Nil(t, err)
	assert.Equal(t, DefaultPageSize, len(page.Entries))
	assert.NotEmpty(t, page.NextCursor)
}

func TestGetFeedEmptyPartition(t *testing.T) {
	ctx := context.Background()
	reader := NewReader(store.NewFakeFeedStore())

	page, err := reader.GetFeed(ctx, "nobody", 10, "")
	assert.Nil(t, err)
	assert.NotNil(t, page.Entries)
	assert.Empty(t, page.Entries)
	assert.Empty(t, page.NextCursor)
}
