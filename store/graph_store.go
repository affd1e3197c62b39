package store

import (
	"context"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// ErrSelfFollow is returned when a user attempts to follow themselves.
var ErrSelfFollow = errors.New("a user may not follow itself")

// GraphCounters are the denormalized follow counters kept in lockstep with
// set membership.
type GraphCounters struct {
	FollowingCount int64
	FollowersCount int64
}

// FollowGraphStore owns the bidirectional following/follower relation.
//
// Follow and Unfollow mutate both sides of the relation as one atomic
// multi-document mutation. A partial application (one side updated, the
// other not) must be impossible. Both operations are idempotent.
type FollowGraphStore interface {
	Follow(ctx context.Context, actorId, targetId string) error
	Unfollow(ctx context.Context, actorId, targetId string) error
	GetFollowers(ctx context.Context, userId string) ([]string, error)
	GetFollowing(ctx context.Context, userId string) ([]string, error)
	GetCounters(ctx context.Context, userId string) (GraphCounters, error)
}

const (
	followingCountField = "following_count"
	followersCountField = "followers_count"
)

// Both sides of the relation plus both counters move inside one script, so
// the graph can never go asymmetric and counters never drift from set
// membership. The SADD/SREM result gates the counter mutation, which is what
// makes repeated Follow/Unfollow calls no-ops.
var (
	followScript = redis.NewScript(`
local added = redis.call("SADD", KEYS[1], ARGV[2])
if added == 1 then
  redis.call("SADD", KEYS[2], ARGV[1])
  redis.call("HINCRBY", KEYS[3], "following_count", 1)
  redis.call("HINCRBY", KEYS[4], "followers_count", 1)
end
return added
`)

	unfollowScript = redis.NewScript(`
local removed = redis.call("SREM", KEYS[1], ARGV[2])
if removed == 1 then
  redis.call("SREM", KEYS[2], ARGV[1])
  redis.call("HINCRBY", KEYS[3], "following_count", -1)
  redis.call("HINCRBY", KEYS[4], "followers_count", -1)
end
return removed
`)
)

// RedisFollowGraphStore keeps per-user following/followers sets plus a
// counters hash in Redis.
type RedisFollowGraphStore struct {
	client *redis.Client
}

func NewRedisFollowGraphStore(client *redis.Client) *RedisFollowGraphStore {
	return &RedisFollowGraphStore{client: client}
}

func followingKey(userId string) string { return "graph:" + userId + ":following" }
func followersKey(userId string) string { return "graph:" + userId + ":followers" }
func countersKey(userId string) string  { return "graph:" + userId + ":counters" }

func validateFollowPair(actorId, targetId string) error {
	if actorId == "" || targetId == "" {
		return errors.New("actorId and targetId must be non-empty")
	}
	if actorId == targetId {
		return ErrSelfFollow
	}
	return nil
}

func (s *RedisFollowGraphStore) Follow(ctx context.Context, actorId, targetId string) error {
	if err := validateFollowPair(actorId, targetId); err != nil {
		return err
	}
	keys := []string{followingKey(actorId), followersKey(targetId), countersKey(actorId), countersKey(targetId)}
	if err := followScript.Run(ctx, s.client, keys, actorId, targetId).Err(); err != nil {
		return errors.Wrap(err, "fail to apply follow mutation")
	}
	return nil
}

func (s *RedisFollowGraphStore) Unfollow(ctx context.Context, actorId, targetId string) error {
	if err := validateFollowPair(actorId, targetId); err != nil {
		return err
	}
	keys := []string{followingKey(actorId), followersKey(targetId), countersKey(actorId), countersKey(targetId)}
	if err := unfollowScript.Run(ctx, s.client, keys, actorId, targetId).Err(); err != nil {
		return errors.Wrap(err, "fail to apply unfollow mutation")
	}
	return nil
}

// GetFollowers returns the follower ids of userId. An unknown user or a user
// with no followers yields an empty slice, not an error.
func (s *RedisFollowGraphStore) GetFollowers(ctx context.Context, userId string) ([]string, error) {
	members, err := s.client.SMembers(ctx, followersKey(userId)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "fail to read followers")
	}
	return members, nil
}

func (s *RedisFollowGraphStore) GetFollowing(ctx context.Context, userId string) ([]string, error) {
	members, err := s.client.SMembers(ctx, followingKey(userId)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "fail to read following")
	}
	return members, nil
}

func (s *RedisFollowGraphStore) GetCounters(ctx context.Context, userId string) (GraphCounters, error) {
	fields, err := s.client.HGetAll(ctx, countersKey(userId)).Result()
	if err != nil {
		return GraphCounters{}, errors.Wrap(err, "fail to read graph counters")
	}
	var counters GraphCounters
	if v, ok := fields[followingCountField]; ok {
		counters.FollowingCount, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := fields[followersCountField]; ok {
		counters.FollowersCount, _ = strconv.ParseInt(v, 10, 64)
	}
	return counters, nil
}
