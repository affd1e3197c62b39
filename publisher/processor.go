package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mealmuse/feedfan/utils"
	. "github.com/mealmuse/feedfan/utils/log"
)

// ActivityMessageProcessor consumes queued publish jobs and hands them to
// the fan-out dispatcher. Action-producing services that do not want to call
// the internal HTTP endpoint enqueue a job instead.
type ActivityMessageProcessor struct {
	Reader     utils.MessageQueueReader
	Dispatcher *FanoutDispatcher
}

// NewActivityMessageProcessor creates a processor with reader dependency
// injection, tests substitute their own reader.
func NewActivityMessageProcessor(reader utils.MessageQueueReader, dispatcher *FanoutDispatcher) *ActivityMessageProcessor {
	return &ActivityMessageProcessor{
		Reader:     reader,
		Dispatcher: dispatcher,
	}
}

// ReadAndProcessMessages reads up to readBatchSize queued jobs and publishes
// them sequentially. It returns the number of successfully published jobs
// and only logs errors: a poisoned message must not wedge the queue.
func (processor *ActivityMessageProcessor) ReadAndProcessMessages(readBatchSize int64) int {
	msgs, err := processor.Reader.ReceiveMessages(readBatchSize)

	successCount := 0
	if err != nil {
		Log.Error("fail to read publish jobs from queue : ", err)
		return successCount
	}

	for _, msg := range msgs {
		if _, err := processor.ProcessOnePublishMessage(msg); err != nil {
			Log.Errorf("fail to process one publish job. err: %s", err)
		} else {
			successCount++
		}
		if err := processor.Reader.DeleteMessage(msg); err != nil {
			Log.Errorf("fail to delete message from queue: %s", err)
		}
	}
	return successCount
}

// ProcessOnePublishMessage decodes one queued job and runs the full fan-out
// synchronously. Partial fan-out failure is carried in the report, not the
// error: the job succeeded once the canonical activity committed, and the
// failed chunks were already logged for repair.
func (processor *ActivityMessageProcessor) ProcessOnePublishMessage(msg *utils.MessageQueueMessage) (*Report, error) {
	input, err := processor.decodePublishMessage(msg)
	if err != nil {
		return nil, err
	}
	return processor.Dispatcher.Publish(context.Background(), *input)
}

// decodePublishMessage parses a queue message into a PublishActivityInput.
// The body is base64-wrapped JSON.
func (processor *ActivityMessageProcessor) decodePublishMessage(msg *utils.MessageQueueMessage) (*PublishActivityInput, error) {
	str, err := msg.Read()
	if err != nil {
		return nil, err
	}

	decoded, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil, errors.Wrap(err, "publish job is not valid base64")
	}

	input := &PublishActivityInput{}
	if err := json.Unmarshal(decoded, input); err != nil {
		return nil, errors.Wrap(err, "publish job is not valid JSON")
	}
	return input, nil
}
