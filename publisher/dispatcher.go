package publisher

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"github.com/mealmuse/feedfan/model"
	"github.com/mealmuse/feedfan/store"
	"github.com/mealmuse/feedfan/utils"
	. "github.com/mealmuse/feedfan/utils/log"
)

const (
	// DefaultParallelism bounds the number of concurrent batch writes against
	// the feed store. Total fan-out latency is roughly
	// followerCount / (MaxBatch * parallelism) batch round-trips.
	DefaultParallelism = 4
)

// PublishActivityInput is the payload of one trackable action, provided by
// the action-producing operation after its primary write completed.
type PublishActivityInput struct {
	AuthorId    string             `json:"author_id"`
	AuthorName  string             `json:"author_name"`
	Kind        model.ActivityKind `json:"kind"`
	EntityId    string             `json:"entity_id"`
	EntityTitle string             `json:"entity_title"`
	EntitySlug  string             `json:"entity_slug"`
}

// Validate rejects malformed payloads before any state is written.
func (input *PublishActivityInput) Validate() error {
	if input.AuthorId == "" {
		return errors.New("activity has no author")
	}
	if !input.Kind.Valid() {
		return errors.Errorf("unknown activity kind %q", input.Kind)
	}
	if input.EntityId == "" {
		return errors.New("activity has no entity")
	}
	return nil
}

// ChunkFailure identifies one failed fan-out batch with enough information
// for a manual or automated repair pass.
type ChunkFailure struct {
	AuthorId    string
	ActivityId  string
	FollowerIds []string
	Err         error
}

// Report is the outcome of one Publish. The canonical activity committed in
// every report; Failures lists the follower chunks whose feed copies did not.
type Report struct {
	ActivityId     string
	FollowerCount  int
	DeliveredCount int
	BatchCount     int
	Failures       []ChunkFailure
}

// AllDelivered reports whether every follower received their feed copy.
func (r *Report) AllDelivered() bool {
	return len(r.Failures) == 0
}

// FanoutDispatcher turns one authored action into one canonical activity
// record plus a denormalized copy in every current follower's feed
// partition, chunked into bounded atomic batches.
type FanoutDispatcher struct {
	graph       store.FollowGraphStore
	activities  store.ActivityStore
	feeds       store.FeedStore
	statsd      statsd.ClientInterface
	maxBatch    int
	parallelism int
}

func NewFanoutDispatcher(
	graph store.FollowGraphStore,
	activities store.ActivityStore,
	feeds store.FeedStore,
	statsdClient statsd.ClientInterface,
) *FanoutDispatcher {
	if statsdClient == nil {
		statsdClient = &statsd.NoOpClient{}
	}
	return &FanoutDispatcher{
		graph:       graph,
		activities:  activities,
		feeds:       feeds,
		statsd:      statsdClient,
		maxBatch:    store.MaxBatch,
		parallelism: DefaultParallelism,
	}
}

// prepare snapshots the author's followers and durably writes the canonical
// activity. The follower snapshot is taken before the canonical write, so a
// follow/unfollow racing with this publish may or may not see the activity.
// That is a documented trade-off, not a bug.
func (d *FanoutDispatcher) prepare(ctx context.Context, input PublishActivityInput) (*model.Activity, []string, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	followers, err := d.graph.GetFollowers(ctx, input.AuthorId)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fail to resolve followers")
	}

	activity := model.NewActivity(input.AuthorId, input.AuthorName, input.Kind, input.EntityId, input.EntityTitle, input.EntitySlug)
	payload, err := json.Marshal(activity.FeedEntry())
	if err != nil {
		return nil, nil, errors.Wrap(err, "fail to serialize activity payload")
	}
	activity.Payload = datatypes.JSON(payload)

	if err := d.activities.CreateActivity(ctx, activity); err != nil {
		return nil, nil, errors.Wrap(err, "fail to write canonical activity")
	}
	return activity, followers, nil
}

// Publish runs the full fan-out synchronously. It returns an error only when
// validation fails or the canonical activity could not be written. Once the
// canonical record committed, failed follower batches are reported in the
// Report and logged, never rolled back: the authored action still happened
// even if some followers temporarily miss it.
func (d *FanoutDispatcher) Publish(ctx context.Context, input PublishActivityInput) (*Report, error) {
	activity, followers, err := d.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	return d.fanOut(ctx, activity, followers), nil
}

// PublishAsync commits the canonical activity synchronously and runs the
// fan-out in the background, for request-path callers that must not wait on
// N follower writes. The returned id is the canonical activity id.
func (d *FanoutDispatcher) PublishAsync(ctx context.Context, input PublishActivityInput) (string, error) {
	activity, followers, err := d.prepare(ctx, input)
	if err != nil {
		return "", err
	}
	go func() {
		// Detached from the request context on purpose: the triggering request
		// finishing must not cancel follower delivery.
		d.fanOut(context.Background(), activity, followers)
	}()
	return activity.Id, nil
}

func (d *FanoutDispatcher) fanOut(ctx context.Context, activity *model.Activity, followers []string) *Report {
	report := &Report{ActivityId: activity.Id, FollowerCount: len(followers)}

	// An author with zero followers is a valid publish that fans out nothing.
	if len(followers) == 0 {
		return report
	}

	entry := activity.FeedEntry()
	chunks := utils.ChunkStrings(followers, d.maxBatch)
	report.BatchCount = len(chunks)

	type chunkResult struct {
		followerIds []string
		err         error
	}

	chunkCh := make(chan []string)
	resultCh := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < utils.Min(d.parallelism, len(chunks)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range chunkCh {
				resultCh <- chunkResult{chunk, d.feeds.AppendBatch(ctx, chunk, entry)}
			}
		}()
	}
	for _, chunk := range chunks {
		chunkCh <- chunk
	}
	close(chunkCh)
	wg.Wait()
	close(resultCh)

	for res := range resultCh {
		if res.err != nil {
			report.Failures = append(report.Failures, ChunkFailure{
				AuthorId:    activity.AuthorID,
				ActivityId:  activity.Id,
				FollowerIds: res.followerIds,
				Err:         res.err,
			})
			d.statsd.Count("feedfan.fanout.batch_failure", 1, nil, 1)
			Log.Errorf("fail to fan out activity %s from author %s to followers %v : %v",
				activity.Id, activity.AuthorID, res.followerIds, res.err)
			continue
		}
		report.DeliveredCount += len(res.followerIds)
		d.statsd.Count("feedfan.fanout.batch_success", 1, nil, 1)
	}
	return report
}
