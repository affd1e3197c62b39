package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mealmuse/feedfan/model"
)

func entryAt(activityId string, createdAt time.Time) *model.FeedEntry {
	return &model.FeedEntry{
		ActivityId:  activityId,
		CreatedAt:   createdAt,
		AuthorId:    "author",
		AuthorName:  "Author",
		Kind:        model.ActivityKindRecipeCreated,
		EntityId:    "recipe-1",
		EntityTitle: "Shakshuka",
		EntitySlug:  "shakshuka",
	}
}

func TestAppendBatchIsSetSemantic(t *testing.T) {
	ctx := context.Background()
	feeds := NewFakeFeedStore()
	entry := entryAt("a1", time.Now())

	assert.Nil(t, feeds.AppendBatch(ctx, []string{"p"}, entry))
	// a retried batch must not duplicate the entry in the partition
	assert.Nil(t, feeds.AppendBatch(ctx, []string{"p"}, entry))

	count, _ := feeds.Count(ctx, "p")
	assert.Equal(t, int64(1), count)
}

func TestReadPageNewestFirst(t *testing.T) {
	ctx := context.Background()
	feeds := NewFakeFeedStore()
	base := time.Now()

	for i := 0; i < 5; i++ {
		entry := entryAt(string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
		assert.Nil(t, feeds.AppendBatch(ctx, []string{"p"}, entry))
	}

	page, err := feeds.ReadPage(ctx, "p", 10, 0)
	assert.Nil(t, err)
	assert.Equal(t, 5, len(page))
	for i := 1; i < len(page); i++ {
		assert.False(t, page[i].CreatedAt.After(page[i-1].CreatedAt))
	}
}

func TestReadPageWindowedByCursorScore(t *testing.T) {
	ctx := context.Background()
	feeds := NewFakeFeedStore()
	base := time.Now()

	for i := 0; i < 4; i++ {
		entry := entryAt(string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
		assert.Nil(t, feeds.AppendBatch(ctx, []string{"p"}, entry))
	}

	first, _ := feeds.ReadPage(ctx, "p", 2, 0)
	assert.Equal(t, 2, len(first))

	second, _ := feeds.ReadPage(ctx, "p", 2, EntryScore(first[1].CreatedAt))
	assert.Equal(t, 2, len(second))
	// no overlap between pages
	assert.True(t, second[0].CreatedAt.Before(first[1].CreatedAt))
}

func TestDeleteBatchRemovesOldestFirst(t *testing.T) {
	ctx := context.Background()
	feeds := NewFakeFeedStore()
	base := time.Now()

	for i := 0; i < 3; i++ {
		entry := entryAt(string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
		assert.Nil(t, feeds.AppendBatch(ctx, []string{"p"}, entry))
	}

	deleted, err := feeds.DeleteBatch(ctx, "p", 2)
	assert.Nil(t, err)
	assert.Equal(t, 2, deleted)

	remaining, _ := feeds.ReadPage(ctx, "p", 10, 0)
	assert.Equal(t, 1, len(remaining))
	assert.Equal(t, "c", remaining[0].ActivityId)

	// empty partition deletes nothing and is not an error
	deleted, err = feeds.DeleteBatch(ctx, "p", MaxBatch)
	assert.Nil(t, err)
	assert.Equal(t, 1, deleted)
	deleted, err = feeds.DeleteBatch(ctx, "p", MaxBatch)
	assert.Nil(t, err)
	assert.Equal(t, 0, deleted)
}

func TestEntryScoreIsMicroseconds(t *testing.T) {
	ts := time.Unix(10, 2500)
	assert.Equal(t, int64(10_000_002), EntryScore(ts))
}
