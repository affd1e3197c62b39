package utils

import (
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/pkg/errors"
)

// MessageQueueMessage is one message pulled from the publish-job queue.
type MessageQueueMessage struct {
	Message       *string
	MessageId     *string
	ReceivedTimes int
	SentTimeStamp int
	ReceiptHandle string
}

func (msg *MessageQueueMessage) Read() (string, error) {
	if msg.Message == nil {
		return "", errors.New("message has no body")
	}
	return *msg.Message, nil
}

// MessageQueueReader pulls and acknowledges queued publish jobs. The SQS
// implementation is used in production, tests inject their own.
type MessageQueueReader interface {
	ReceiveMessages(maxNumberOfMessages int64) ([]*MessageQueueMessage, error)
	DeleteMessage(msg *MessageQueueMessage) error
}

type SQSMessageQueueReader struct {
	readTimeout int64
	queueName   string
	url         string
	client      *sqs.SQS
}

func NewSQSMessageQueueReader(queueName string, readingTimeout int64) (*SQSMessageQueueReader, error) {
	if queueName == "" {
		return nil, errors.New("please specify queue name")
	}

	if readingTimeout < 0 || readingTimeout > 20 {
		return nil, errors.New("readingTimeout should be >= 0 and <= 20")
	}

	// Initialize a session that the SDK will use to load
	// credentials from the shared credentials file. (~/.aws/credentials).
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))

	client := sqs.New(sess)

	url, err := client.GetQueueUrl(&sqs.GetQueueUrlInput{
		QueueName: &queueName,
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == sqs.ErrCodeQueueDoesNotExist {
			return nil, errors.Errorf("unable to find queue %q", queueName)
		}
		return nil, errors.Wrapf(err, "unable to open queue %q", queueName)
	}

	return &SQSMessageQueueReader{
		queueName:   queueName,
		url:         *url.QueueUrl,
		readTimeout: readingTimeout,
		client:      client,
	}, nil
}

func (reader *SQSMessageQueueReader) DeleteMessage(msg *MessageQueueMessage) error {
	_, err := reader.client.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      &reader.url,
		ReceiptHandle: &msg.ReceiptHandle,
	})
	return errors.Wrapf(err, "fail to delete message from queue %q", reader.queueName)
}

// ReceiveMessages long-polls the queue for up to readTimeout seconds and
// returns at most maxNumberOfMessages messages. SQS caps a single receive at
// 10 messages.
func (reader *SQSMessageQueueReader) ReceiveMessages(maxNumberOfMessages int64) ([]*MessageQueueMessage, error) {
	if maxNumberOfMessages < 1 || maxNumberOfMessages > 10 {
		return nil, errors.New("maxNumberOfMessages should be >= 1 and <= 10")
	}

	result, err := reader.client.ReceiveMessage(&sqs.ReceiveMessageInput{
		QueueUrl: &reader.url,
		AttributeNames: aws.StringSlice([]string{
			"SentTimestamp",
			"ApproximateReceiveCount",
		}),
		MaxNumberOfMessages: aws.Int64(maxNumberOfMessages),
		MessageAttributeNames: aws.StringSlice([]string{
			"All",
		}),
		WaitTimeSeconds: &reader.readTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read from queue %q", reader.queueName)
	}

	res := []*MessageQueueMessage{}
	for _, msg := range result.Messages {
		var (
			count, sentTime int
		)
		if val, ok := msg.Attributes["ApproximateReceiveCount"]; ok {
			count, _ = strconv.Atoi(*val)
		}
		if val, ok := msg.Attributes["SentTimestamp"]; ok {
			sentTime, _ = strconv.Atoi(*val)
		}

		res = append(res, &MessageQueueMessage{
			Message:       msg.Body,
			MessageId:     msg.MessageId,
			ReceivedTimes: count,
			SentTimeStamp: sentTime,
			ReceiptHandle: *msg.ReceiptHandle,
		})
	}

	return res, nil
}
