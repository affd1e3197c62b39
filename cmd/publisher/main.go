package main

import (
	"flag"
	"time"

	"github.com/mealmuse/feedfan/publisher"
	"github.com/mealmuse/feedfan/store"
	"github.com/mealmuse/feedfan/utils"
	"github.com/mealmuse/feedfan/utils/dotenv"
	. "github.com/mealmuse/feedfan/utils/log"
)

const (
	publishJobQueueName  = "feedfan_publish_jobs_queue.fifo"
	messageReadBatchSize = 10
)

func main() {
	flag.Parse()
	if err := dotenv.LoadDotEnvs(); err != nil {
		Log.Fatal("fail to load env : ", err)
	}
	InitLogger()

	db, err := utils.GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect database : ", err)
	}
	utils.DatabaseSetupAndMigration(db)

	redisClient, err := utils.GetRedisClient()
	if err != nil {
		Log.Fatal("fail to connect redis : ", err)
	}

	reader, err := utils.NewSQSMessageQueueReader(publishJobQueueName, 20)
	if err != nil {
		Log.Fatal("fail to initialize SQS message queue reader : ", err)
	}

	dispatcher := publisher.NewFanoutDispatcher(
		store.NewRedisFollowGraphStore(redisClient),
		store.NewGormActivityStore(db),
		store.NewRedisFeedStore(redisClient),
		nil,
	)

	// Main publish logic lives in processor
	processor := publisher.NewActivityMessageProcessor(reader, dispatcher)

	for {
		processor.ReadAndProcessMessages(messageReadBatchSize)

		// Protective delay
		time.Sleep(2 * time.Second)
	}
}
