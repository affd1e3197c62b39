package model

import "time"

/*

FeedEntry is the follower-local copy of an Activity, keyed by
(followerId, activityId). It carries the full denormalized activity payload
rather than a reference. That is the deliberate storage/write-cost trade-off
that buys O(1) feed reads.

A feed entry is never mutated after write. It is deleted independently of
the source activity (retention sweep), and an unfollow does not delete
entries that were already delivered.

*/
type FeedEntry struct {
	ActivityId  string       `json:"activity_id"`
	CreatedAt   time.Time    `json:"created_at"`
	AuthorId    string       `json:"author_id"`
	AuthorName  string       `json:"author_name"`
	Kind        ActivityKind `json:"kind"`
	EntityId    string       `json:"entity_id"`
	EntityTitle string       `json:"entity_title"`
	EntitySlug  string       `json:"entity_slug"`
}
