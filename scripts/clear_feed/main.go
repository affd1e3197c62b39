// clear_feed wipes one user's feed partition, batch by batch. Operator
// tooling for maintenance and backfill correction, not end-user traffic.
//
// Usage: clear_feed <user_id>
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/mealmuse/feedfan/feed"
	"github.com/mealmuse/feedfan/store"
	"github.com/mealmuse/feedfan/utils"
	"github.com/mealmuse/feedfan/utils/dotenv"
	. "github.com/mealmuse/feedfan/utils/log"
)

func main() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		Log.Fatal("fail to load env : ", err)
	}

	flag.Parse()
	userId := flag.Arg(0)
	if userId == "" {
		Log.Fatal("usage: clear_feed <user_id>")
	}

	redisClient, err := utils.GetRedisClient()
	if err != nil {
		Log.Fatal("fail to connect redis : ", err)
	}

	sweeper := feed.NewSweeper(store.NewRedisFeedStore(redisClient))
	count, err := sweeper.ClearFeed(context.Background(), userId)
	if err != nil {
		Log.Fatalf("sweep aborted after %d deletions : %v", count, err)
	}

	fmt.Printf("cleared %d feed entries for user %s\n", count, userId)
}
