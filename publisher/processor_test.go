package publisher

import (
	"context"
	b64 "encoding/base64"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mealmuse/feedfan/model"
	"github.com/mealmuse/feedfan/store"
	"github.com/mealmuse/feedfan/utils"
)

type TestMessageQueueReader struct {
	msgs []*utils.MessageQueueMessage
}

func (reader *TestMessageQueueReader) DeleteMessage(msg *utils.MessageQueueMessage) error {
	return nil
}

// Always return all messages
func (reader *TestMessageQueueReader) ReceiveMessages(maxNumberOfMessages int64) ([]*utils.MessageQueueMessage, error) {
	return reader.msgs, nil
}

// Pass in all the publish jobs that will be used for testing.
// Reader will return queue message objects wrapping them.
func NewTestMessageQueueReader(inputs []*PublishActivityInput) *TestMessageQueueReader {
	var res TestMessageQueueReader
	for _, input := range inputs {
		encodedBytes, _ := json.Marshal(input)
		str := b64.StdEncoding.EncodeToString(encodedBytes)
		var msg utils.MessageQueueMessage
		msg.Message = &str
		res.msgs = append(res.msgs, &msg)
	}
	return &res
}

func TestDecodePublishMessage(t *testing.T) {
	origin := PublishActivityInput{
		AuthorId:    "x",
		AuthorName:  "Xavier",
		Kind:        model.ActivityKindMenuCreated,
		EntityId:    "menu-7",
		EntityTitle: "Weeknight Menu",
		EntitySlug:  "weeknight-menu",
	}

	reader := NewTestMessageQueueReader([]*PublishActivityInput{&origin})
	dispatcher, _, _, _ := newTestDispatcher()
	processor := NewActivityMessageProcessor(reader, dispatcher)

	msgs, _ := reader.ReceiveMessages(1)
	assert.Equal(t, 1, len(msgs))

	decoded, err := processor.decodePublishMessage(msgs[0])
	assert.Nil(t, err)
	assert.True(t, cmp.Equal(*decoded, origin))
}

func TestReadAndProcessMessages(t *testing.T) {
	ctx := context.Background()
	graph := store.NewFakeFollowGraphStore()
	activities := store.NewFakeActivityStore()
	feeds := store.NewFakeFeedStore()
	dispatcher := NewFanoutDispatcher(graph, activities, feeds, nil)

	assert.Nil(t, graph.Follow(ctx, "p", "x"))

	input := recipeInput("x")
	reader := NewTestMessageQueueReader([]*PublishActivityInput{&input})
	processor := NewActivityMessageProcessor(reader, dispatcher)

	successCount := processor.ReadAndProcessMessages(1)
	assert.Equal(t, 1, successCount)
	assert.Equal(t, 1, len(activities.CreatedIds()))

	page, _ := feeds.ReadPage(ctx, "p", 10, 0)
	assert.Equal(t, 1, len(page))
}

func TestReadAndProcessMessagesSkipsPoisonedMessage(t *testing.T) {
	dispatcher, _, activities, _ := newTestDispatcher()

	garbage := "not base64!"
	reader := &TestMessageQueueReader{msgs: []*utils.MessageQueueMessage{{Message: &garbage}}}
	processor := NewActivityMessageProcessor(reader, dispatcher)

	successCount := processor.ReadAndProcessMessages(1)
	assert.Equal(t, 0, successCount)
	assert.Empty(t, activities.CreatedIds())
}
