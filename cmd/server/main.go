package main

import (
	"flag"
	"os"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"github.com/mealmuse/feedfan/feed"
	"github.com/mealmuse/feedfan/publisher"
	"github.com/mealmuse/feedfan/server"
	"github.com/mealmuse/feedfan/server/middlewares"
	"github.com/mealmuse/feedfan/store"
	"github.com/mealmuse/feedfan/utils"
	"github.com/mealmuse/feedfan/utils/dotenv"
	. "github.com/mealmuse/feedfan/utils/flag"
	. "github.com/mealmuse/feedfan/utils/log"
)

func cleanup() {
	utils.CloseProfiler()
	utils.CloseTracer()
	Log.Info("api server shutdown")
}

// newStatsdClient returns nil when no agent address is configured, the
// dispatcher falls back to a no-op client.
func newStatsdClient() statsd.ClientInterface {
	addr := os.Getenv("STATSD_ADDR")
	if addr == "" {
		return nil
	}
	client, err := statsd.New(addr)
	if err != nil {
		Log.Error("fail to initialize statsd client : ", err)
		return nil
	}
	return client
}

func main() {
	defer cleanup()

	flag.Parse()
	if err := dotenv.LoadDotEnvs(); err != nil {
		Log.Fatal("fail to load env : ", err)
	}
	// Re-init so the log fields pick up the parsed flags and loaded env.
	InitLogger()

	utils.StartTracer()
	if err := utils.StartProfiler(); err != nil {
		Log.Error("fail to start profiler : ", err)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect database : ", err)
	}
	utils.DatabaseSetupAndMigration(db)

	redisClient, err := utils.GetRedisClient()
	if err != nil {
		Log.Fatal("fail to connect redis : ", err)
	}

	graph := store.NewRedisFollowGraphStore(redisClient)
	feeds := store.NewRedisFeedStore(redisClient)
	users := store.NewGormUserStore(db)
	activities := store.NewGormActivityStore(db)
	dispatcher := publisher.NewFanoutDispatcher(graph, activities, feeds, newStatsdClient())

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()

	router.Use(cors.Default())
	router.Use(gintrace.Middleware(ServiceName))
	if !ByPassAuth {
		middlewares.Setup()
		router.Use(middlewares.JWT())
	}

	handler := server.NewHandler(users, graph, dispatcher, feed.NewReader(feeds))
	handler.RegisterRoutes(router)

	Log.Info("api server starts up")
	router.Run(":8080")
}
