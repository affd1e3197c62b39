package utils

import (
	"github.com/mealmuse/feedfan/utils/dotenv"
	"github.com/mealmuse/feedfan/utils/flag"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"
)

// StartProfiler starts the Datadog profiler. Call once from main.
func StartProfiler() error {
	env := "development"
	if dotenv.IsProdEnv() {
		env = "production"
	}

	return profiler.Start(
		profiler.WithService(flag.ServiceName),
		profiler.WithEnv(env),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
			// The profiles below are disabled by
			// default to keep overhead low, but
			// can be enabled as needed.
			// profiler.BlockProfile,
			// profiler.MutexProfile,
			// profiler.GoroutineProfile,
		),
	)
}

// CloseProfiler stops the profiler, OK to be closed multiple times
func CloseProfiler() {
	profiler.Stop()
}
