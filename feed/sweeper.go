package feed

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mealmuse/feedfan/store"
	. "github.com/mealmuse/feedfan/utils/log"
)

// Sweeper bulk-deletes a user's feed partition in bounded atomic batches.
// Operator-triggered maintenance, not part of the request path.
type Sweeper struct {
	feeds store.FeedStore

	// BatchSize caps the entries removed per atomic delete. Defaults to the
	// platform batch ceiling.
	BatchSize int
}

func NewSweeper(feeds store.FeedStore) *Sweeper {
	return &Sweeper{feeds: feeds, BatchSize: store.MaxBatch}
}

// ClearFeed deletes userId's feed entries batch by batch until the partition
// is empty and returns how many were deleted. Safe to interrupt and re-run:
// clearing an already-empty partition returns 0. The pass count is bounded
// by the partition size observed at the start, so a sweep racing with
// ongoing fan-out writes always terminates; entries written mid-sweep may
// survive it.
func (s *Sweeper) ClearFeed(ctx context.Context, userId string) (int, error) {
	count, err := s.feeds.Count(ctx, userId)
	if err != nil {
		return 0, errors.Wrap(err, "fail to size feed partition")
	}

	total := 0
	maxPasses := int(count)/s.BatchSize + 2
	for pass := 0; pass < maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		deleted, err := s.feeds.DeleteBatch(ctx, userId, s.BatchSize)
		if err != nil {
			return total, errors.Wrap(err, "fail to delete feed batch")
		}
		if deleted == 0 {
			break
		}
		total += deleted
		Log.Infof("cleared %d feed entries for user %s, %d so far", deleted, userId, total)
	}
	return total, nil
}
