package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/draftnexus/internal/draftsim"
)

// Default configuration constants.
const (
	defaultDrafts      = 10
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		drafts  = flag.Int("drafts", defaultDrafts, "Number of drafts to play")
		actions = flag.Int("actions", draftsim.MaxActions, "Picks and bans per draft")
		topK    = flag.Int("top-k", draftsim.DefaultTopK, "Expected recommendations per role")
		timeout = flag.Duration("timeout", draftsim.DefaultTimeout, "HTTP request timeout")
		settle  = flag.Duration("settle", draftsim.DefaultSettleTimeout, "Maximum wait for an inference result")
		seed    = flag.Uint64("seed", 0, "Hero selection seed, 0 for a random one")
		logFile = flag.String("log", "", "Log file (default: draftsim_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Log every settled action")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		draftsim.ShowHelp()
		return
	}

	closer, err := draftsim.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	config := &draftsim.Config{
		BaseURL:       *baseURL,
		Drafts:        *drafts,
		Actions:       *actions,
		TopK:          *topK,
		Timeout:       *timeout,
		SettleTimeout: *settle,
		Seed:          *seed,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if _, err := draftsim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		cancel()
		stop()
		_ = closer.Close()
		os.Exit(1)
	}
}
