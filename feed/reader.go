package feed

import (
	"context"
	"encoding/base64"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mealmuse/feedfan/model"
	"github.com/mealmuse/feedfan/store"
	"github.com/mealmuse/feedfan/utils"
)

const (
	DefaultPageSize = 50
	maxPageSize     = 200
)

// Page is one page of a follower's feed, newest first. NextCursor is an
// opaque continuation token; empty means the partition is exhausted.
type Page struct {
	Entries    []*model.FeedEntry `json:"entries"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// Reader serves a follower's personal feed. It only ever reads the
// per-follower partition, never the canonical activity log.
type Reader struct {
	feeds store.FeedStore
}

func NewReader(feeds store.FeedStore) *Reader {
	return &Reader{feeds: feeds}
}

// GetFeed returns up to limit entries from userId's partition in
// non-increasing createdAt order. A zero limit falls back to
// DefaultPageSize. A missing or invalid cursor starts from the most recent
// entry. An empty partition is an empty page, not an error.
func (r *Reader) GetFeed(ctx context.Context, userId string, limit int, cursor string) (*Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = utils.Min(limit, maxPageSize)

	entries, err := r.feeds.ReadPage(ctx, userId, limit, decodeCursor(cursor))
	if err != nil {
		return nil, errors.Wrap(err, "fail to read feed")
	}
	if entries == nil {
		entries = []*model.FeedEntry{}
	}

	page := &Page{Entries: entries}
	if len(entries) == limit {
		page.NextCursor = encodeCursor(store.EntryScore(entries[len(entries)-1].CreatedAt))
	}
	return page, nil
}

// The cursor is the last returned entry's ordering key (creation time in
// microseconds), base64-wrapped so callers treat it as opaque.
func encodeCursor(score int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(score, 10)))
}

// decodeCursor returns 0 ("start from the newest entry") for a missing or
// malformed cursor rather than failing the read.
func decodeCursor(cursor string) int64 {
	if cursor == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	score, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || score < 0 {
		return 0
	}
	return score
}
