package draftsim

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/draftnexus/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0o600
)

// SetupLogging sends log output to the console and to logFile.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		logFile = "draftsim_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`DraftNexus Draft Simulator
==========================

Plays random drafts against a running service over HTTP, follows the /ws
snapshot stream, and checks every published recommendation set.

Usage:
  go run ./cmd/draft-sim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -drafts int
        Number of drafts to play (default 10)
  -actions int
        Picks and bans per draft, at most 20 (default 20)
  -top-k int
        Expected recommendations per role (default 5)
  -timeout duration
        HTTP request timeout (default 10s)
  -settle duration
        Maximum wait for an inference result (default 5s)
  -seed uint
        Hero selection seed, 0 for a random one
  -log string
        Log file (default: draftsim_TIMESTAMP.log)
  -verbose
        Log every settled action
  -help
        Show this help message
`)
}
