package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/medrift/medrift/internal/loadgen"
)

// Default configuration constants.
const (
	defaultNumEvents   = 10000
	defaultNumUsers    = 200
	defaultBatchSize   = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultSample      = 20
	defaultTimeout     = 30 * time.Second
	defaultRunDeadline = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numEvents = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		numUsers  = flag.Int("users", defaultNumUsers, "Number of distinct users to spread events over")
		batchSize = flag.Int("batch", defaultBatchSize, "Events per ingest request")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		sample    = flag.Int("sample", defaultSample, "Number of users to sample medians for after the run")
		logFile   = flag.String("log", "", "Log file for run output (default: loadgen_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	if err := loadgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunDeadline)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:       *baseURL,
		NumEvents:     *numEvents,
		NumUsers:      *numUsers,
		BatchSize:     *batchSize,
		Workers:       *workers,
		Timeout:       *timeout,
		SampleMedians: *sample,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		return
	}
}
