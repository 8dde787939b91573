package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/bookarena/internal/simulate"
	"github.com/okian/bookarena/pkg/logger"
)

// Default configuration constants.
const (
	defaultVotes       = 2000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		votes   = flag.Int("votes", defaultVotes, "Number of comparisons to submit")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent voters")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "Seed for the hidden preference order")
		noise   = flag.Float64("noise", 0.1, "Probability a voter picks against its preference")
		replay  = flag.Float64("replay", 0.05, "Probability a vote is resent under the same idempotency key")
		jsonLog = flag.Bool("json", false, "Log as JSON")
		verbose = flag.Bool("verbose", false, "Log every vote")
	)
	flag.Parse()

	if err := logger.Init(logger.WithWriter(os.Stdout), logger.WithJSON(*jsonLog)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &simulate.Config{
		BaseURL: *baseURL,
		Votes:   *votes,
		Workers: *workers,
		Timeout: *timeout,
		Seed:    *seed,
		Noise:   *noise,
		Replay:  *replay,
		Verbose: *verbose,
	}
	if _, err := simulate.Run(ctx, cfg, logger.Named("simulate")); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
