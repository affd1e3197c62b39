package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/mealmuse/feedfan/model"
)

// MaxBatch is the platform ceiling on operations inside one atomic
// multi-document write. Fan-out chunks and sweeper delete batches are both
// sized to it.
const MaxBatch = 500

// FeedStore owns the per-follower feed partitions.
type FeedStore interface {
	// AppendBatch writes one copy of entry into every listed follower's
	// partition as a single atomic batch. len(followerIds) must not exceed
	// MaxBatch. An empty batch is a no-op.
	AppendBatch(ctx context.Context, followerIds []string, entry *model.FeedEntry) error
	// ReadPage returns up to limit entries from userId's partition, newest
	// first. before is an exclusive upper bound on the entry timestamp in
	// microseconds; zero means "from the newest entry".
	ReadPage(ctx context.Context, userId string, limit int, before int64) ([]*model.FeedEntry, error)
	// DeleteBatch removes up to max of the oldest entries from userId's
	// partition in one atomic batch and returns how many were removed.
	DeleteBatch(ctx context.Context, userId string, max int) (int, error)
	// Count returns the number of entries in userId's partition.
	Count(ctx context.Context, userId string) (int64, error)
}

// EntryScore is the sorted-set score of a feed entry: its creation time in
// microseconds. It is also the unit the read cursor is expressed in.
func EntryScore(createdAt time.Time) int64 {
	return createdAt.UnixNano() / int64(time.Microsecond)
}

// RedisFeedStore keeps one sorted set per follower. The member is the
// serialized denormalized entry, the score is the activity creation time.
// Set semantics on the member give exactly-once delivery per activity per
// partition even when a batch is retried.
type RedisFeedStore struct {
	client *redis.Client
}

func NewRedisFeedStore(client *redis.Client) *RedisFeedStore {
	return &RedisFeedStore{client: client}
}

func feedKey(userId string) string { return "feed:" + userId }

func (s *RedisFeedStore) AppendBatch(ctx context.Context, followerIds []string, entry *model.FeedEntry) error {
	if len(followerIds) == 0 {
		return nil
	}
	if len(followerIds) > MaxBatch {
		return errors.Errorf("batch of %d exceeds the %d operation ceiling", len(followerIds), MaxBatch)
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "fail to serialize feed entry")
	}
	score := float64(EntryScore(entry.CreatedAt))

	// TxPipeline wraps the appends in MULTI/EXEC, one atomic batch per chunk.
	pipe := s.client.TxPipeline()
	for _, followerId := range followerIds {
		pipe.ZAdd(ctx, feedKey(followerId), &redis.Z{Score: score, Member: payload})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "fail to commit feed batch")
	}
	return nil
}

func (s *RedisFeedStore) ReadPage(ctx context.Context, userId string, limit int, before int64) ([]*model.FeedEntry, error) {
	max := "+inf"
	if before > 0 {
		max = "(" + strconv.FormatInt(before, 10)
	}
	members, err := s.client.ZRevRangeByScore(ctx, feedKey(userId), &redis.ZRangeBy{
		Min:    "-inf",
		Max:    max,
		Offset: 0,
		Count:  int64(limit),
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, "fail to read feed partition")
	}

	entries := make([]*model.FeedEntry, 0, len(members))
	for _, member := range members {
		var entry model.FeedEntry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			return nil, errors.Wrap(err, "corrupt feed entry")
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (s *RedisFeedStore) DeleteBatch(ctx context.Context, userId string, max int) (int, error) {
	if max <= 0 || max > MaxBatch {
		max = MaxBatch
	}
	members, err := s.client.ZRange(ctx, feedKey(userId), 0, int64(max-1)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "fail to read feed partition for delete")
	}
	if len(members) == 0 {
		return 0, nil
	}

	args := make([]interface{}, 0, len(members))
	for _, member := range members {
		args = append(args, member)
	}
	// A single variadic ZREM is one atomic multi-entry delete.
	if err := s.client.ZRem(ctx, feedKey(userId), args...).Err(); err != nil {
		return 0, errors.Wrap(err, "fail to delete feed batch")
	}
	return len(members), nil
}

func (s *RedisFeedStore) Count(ctx context.Context, userId string) (int64, error) {
	count, err := s.client.ZCard(ctx, feedKey(userId)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "fail to count feed partition")
	}
	return count, nil
}
