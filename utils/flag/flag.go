/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package

	Registration happens at import time, main is responsible for calling
	flag.Parse() before reading any of these
*/

package flag

import (
	"flag"
)

const (
	APIServer     = "api_server"
	FeedPublisher = "feed_publisher"
)

var (
	IsDevelopment bool
	ServiceName   string
	ByPassAuth    bool
)

func init() {
	flag.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development. default value is true")
	flag.StringVar(&ServiceName, "service", APIServer, "'api_server' or 'feed_publisher'")
	flag.BoolVar(&ByPassAuth, "bypass_auth", false, "skip JWT validation, only for local development")
}
