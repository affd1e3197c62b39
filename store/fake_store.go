package store

import (
	"context"
	"sort"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/mealmuse/feedfan/model"
)

// In-memory store implementations, substitutable for the Redis/Postgres
// backed ones in unit tests. They honor the same contracts: atomic
// both-sides graph mutation, idempotence, set semantics per partition,
// newest-first reads, oldest-first deletes.

type FakeFollowGraphStore struct {
	mu        sync.Mutex
	following map[string]map[string]bool
	followers map[string]map[string]bool
	counters  map[string]*GraphCounters
}

func NewFakeFollowGraphStore() *FakeFollowGraphStore {
	return &FakeFollowGraphStore{
		following: make(map[string]map[string]bool),
		followers: make(map[string]map[string]bool),
		counters:  make(map[string]*GraphCounters),
	}
}

func (s *FakeFollowGraphStore) counter(userId string) *GraphCounters {
	if _, ok := s.counters[userId]; !ok {
		s.counters[userId] = &GraphCounters{}
	}
	return s.counters[userId]
}

func (s *FakeFollowGraphStore) Follow(ctx context.Context, actorId, targetId string) error {
	if err := validateFollowPair(actorId, targetId); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.following[actorId] == nil {
		s.following[actorId] = make(map[string]bool)
	}
	if s.followers[targetId] == nil {
		s.followers[targetId] = make(map[string]bool)
	}
	if s.following[actorId][targetId] {
		return nil
	}
	s.following[actorId][targetId] = true
	s.followers[targetId][actorId] = true
	s.counter(actorId).FollowingCount++
	s.counter(targetId).FollowersCount++
	return nil
}

func (s *FakeFollowGraphStore) Unfollow(ctx context.Context, actorId, targetId string) error {
	if err := validateFollowPair(actorId, targetId); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.following[actorId][targetId] {
		return nil
	}
	delete(s.following[actorId], targetId)
	delete(s.followers[targetId], actorId)
	s.counter(actorId).FollowingCount--
	s.counter(targetId).FollowersCount--
	return nil
}

func (s *FakeFollowGraphStore) GetFollowers(ctx context.Context, userId string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.followers[userId]), nil
}

func (s *FakeFollowGraphStore) GetFollowing(ctx context.Context, userId string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.following[userId]), nil
}

func (s *FakeFollowGraphStore) GetCounters(ctx context.Context, userId string) (GraphCounters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[userId]; ok {
		return *c, nil
	}
	return GraphCounters{}, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type FakeFeedStore struct {
	mu            sync.Mutex
	partitions    map[string][]*model.FeedEntry
	batchSizes    []int
	failFollowers map[string]error
}

func NewFakeFeedStore() *FakeFeedStore {
	return &FakeFeedStore{
		partitions:    make(map[string][]*model.FeedEntry),
		failFollowers: make(map[string]error),
	}
}

// FailFollower makes any batch containing followerId fail atomically with
// err, leaving none of the batch's partitions touched.
func (s *FakeFeedStore) FailFollower(followerId string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFollowers[followerId] = err
}

// BatchSizes returns the sizes of the committed batches, in commit order.
func (s *FakeFeedStore) BatchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.batchSizes...)
}

func (s *FakeFeedStore) AppendBatch(ctx context.Context, followerIds []string, entry *model.FeedEntry) error {
	if len(followerIds) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, followerId := range followerIds {
		if err, ok := s.failFollowers[followerId]; ok {
			return err
		}
	}
	for _, followerId := range followerIds {
		if containsActivity(s.partitions[followerId], entry.ActivityId) {
			continue
		}
		stored := &model.FeedEntry{}
		copier.Copy(stored, entry)
		s.partitions[followerId] = append(s.partitions[followerId], stored)
	}
	s.batchSizes = append(s.batchSizes, len(followerIds))
	return nil
}

func (s *FakeFeedStore) ReadPage(ctx context.Context, userId string, limit int, before int64) ([]*model.FeedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := append([]*model.FeedEntry(nil), s.partitions[userId]...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	page := make([]*model.FeedEntry, 0, limit)
	for _, entry := range entries {
		if before > 0 && EntryScore(entry.CreatedAt) >= before {
			continue
		}
		out := &model.FeedEntry{}
		copier.Copy(out, entry)
		page = append(page, out)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (s *FakeFeedStore) DeleteBatch(ctx context.Context, userId string, max int) (int, error) {
	if max <= 0 || max > MaxBatch {
		max = MaxBatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.partitions[userId]
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	n := len(entries)
	if n > max {
		n = max
	}
	s.partitions[userId] = entries[n:]
	return n, nil
}

func (s *FakeFeedStore) Count(ctx context.Context, userId string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.partitions[userId])), nil
}

func containsActivity(entries []*model.FeedEntry, activityId string) bool {
	for _, e := range entries {
		if e.ActivityId == activityId {
			return true
		}
	}
	return false
}

type FakeActivityStore struct {
	mu         sync.Mutex
	activities map[string]*model.Activity
	order      []string

	// CreateErr, when set, makes CreateActivity fail. Used to exercise the
	// canonical-write failure path.
	CreateErr error
}

func NewFakeActivityStore() *FakeActivityStore {
	return &FakeActivityStore{activities: make(map[string]*model.Activity)}
}

func (s *FakeActivityStore) CreateActivity(ctx context.Context, activity *model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, ok := s.activities[activity.Id]; ok {
		return nil
	}
	stored := &model.Activity{}
	copier.Copy(stored, activity)
	s.activities[activity.Id] = stored
	s.order = append(s.order, activity.Id)
	return nil
}

func (s *FakeActivityStore) GetActivity(ctx context.Context, id string) (*model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.activities[id]
	if !ok {
		return nil, ErrActivityNotFound
	}
	out := &model.Activity{}
	copier.Copy(out, stored)
	return out, nil
}

// CreatedIds returns the ids of all canonical records, in creation order.
func (s *FakeActivityStore) CreatedIds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

type FakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{users: make(map[string]*model.User)}
}

func (s *FakeUserStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := &model.User{}
	copier.Copy(stored, user)
	s.users[user.Id] = stored
	return nil
}

func (s *FakeUserStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := &model.User{}
	copier.Copy(out, stored)
	return out, nil
}
