// Package draftsim plays random drafts against a running service and checks
// every published recommendation set.
package draftsim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/okian/draftnexus/pkg/logger"
)

// Run executes the complete simulation. It fails on the first transport
// error and reports invariant violations after all drafts are played.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	applyDefaults(config)
	log := logger.Named("draftsim")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting draft simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("drafts", config.Drafts),
		logger.Int("actions", config.Actions),
		logger.Uint64("seed", config.Seed))

	client := newHTTPClient(config.BaseURL, config.Timeout)
	if err := client.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	heroes, err := client.heroes(ctx)
	if err != nil {
		return stats, fmt.Errorf("hero retrieval failed: %w", err)
	}
	ids := make([]int, 0, len(heroes))
	for _, h := range heroes {
		ids = append(ids, h.ID)
	}
	if len(ids) == 0 {
		return stats, errors.New("catalog is empty")
	}

	st, err := dialStream(ctx, config.BaseURL)
	if err != nil {
		return stats, fmt.Errorf("stream connection failed: %w", err)
	}
	defer func() { _ = st.Close() }()

	r := rand.New(rand.NewPCG(config.Seed, config.Seed>>1|1)) //nolint:gosec // simulation only

	var violations []error
	for i := 0; i < config.Drafts; i++ {
		errs, err := playDraft(ctx, client, st, NewPlan(r, ids, config.Actions), config, stats)
		if err != nil {
			return finish(stats), fmt.Errorf("draft %d: %w", i+1, err)
		}
		violations = append(violations, errs...)
		stats.DraftsPlayed++
	}

	finish(stats)
	displayFinalStats(stats)
	if len(violations) > 0 {
		return stats, errors.Join(violations...)
	}
	log.Info(ctx, "simulation completed successfully")
	return stats, nil
}

func applyDefaults(c *Config) {
	if c.Drafts < 1 {
		c.Drafts = 1
	}
	if c.Actions < 1 || c.Actions > MaxActions {
		c.Actions = MaxActions
	}
	if c.TopK < 1 {
		c.TopK = DefaultTopK
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = DefaultSettleTimeout
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano()) //nolint:gosec // non-negative
	}
}

// playDraft clears the draft and applies the plan one action at a time,
// verifying the result published for each action.
func playDraft(ctx context.Context, client *HTTPClient, st *stream, plan []Action, config *Config, stats *Stats) ([]error, error) {
	log := logger.Named("draftsim")

	if _, err := client.clear(ctx); err != nil {
		return nil, err
	}

	var violations []error
	for _, a := range plan {
		start := time.Now()
		d, err := client.apply(ctx, a)
		if err != nil {
			return violations, err
		}
		stats.Actions++

		published, ok, err := st.awaitPublished(ctx, d.Generation, config.SettleTimeout)
		if err != nil {
			return violations, err
		}
		if !ok {
			continue
		}
		stats.Settled++
		stats.Latencies = append(stats.Latencies, time.Since(start))

		switch published.Message {
		case messageRanked:
			stats.Ranked++
		case messageNoCandidates:
			stats.Empty++
			if len(published.Recommendations) != 0 {
				violations = append(violations, fmt.Errorf("%w: generation %d has no candidates but %d roles",
					ErrViolation, published.Generation, len(published.Recommendations)))
			}
		default:
			stats.Other++
		}

		if err := verifyDraft(&published, config.TopK); err != nil {
			stats.Violations++
			violations = append(violations, fmt.Errorf("generation %d: %w", published.Generation, err))
			log.Warn(ctx, "invariant violated", logger.Uint64("generation", published.Generation), logger.Error(err))
		}
		if config.Verbose {
			log.Info(ctx, "action settled",
				logger.String("group", a.Group),
				logger.Int("slot", a.Slot),
				logger.Int("hero_id", a.HeroID),
				logger.Uint64("generation", published.Generation),
				logger.String("message", published.Message),
				logger.Int("roles", len(published.Recommendations)))
		}
	}
	return violations, nil
}

func finish(stats *Stats) *Stats {
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	return stats
}

// latencySummary returns the median, 95th percentile and maximum latency.
func latencySummary(latencies []time.Duration) (p50, p95, maxLatency time.Duration) {
	if len(latencies) == 0 {
		return 0, 0, 0
	}
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)
	idx95 := int(float64(len(sorted)-1) * percentile95)
	return sorted[(len(sorted)-1)/2], sorted[idx95], sorted[len(sorted)-1]
}

// displayFinalStats logs the final simulation statistics.
func displayFinalStats(stats *Stats) {
	p50, p95, maxLatency := latencySummary(stats.Latencies)
	logger.Named("draftsim").Info(context.Background(), "final statistics",
		logger.Int("drafts", stats.DraftsPlayed),
		logger.Int("actions", stats.Actions),
		logger.Int("settled", stats.Settled),
		logger.Int("ranked", stats.Ranked),
		logger.Int("empty", stats.Empty),
		logger.Int("other", stats.Other),
		logger.Int("violations", stats.Violations),
		logger.Duration("p50", p50),
		logger.Duration("p95", p95),
		logger.Duration("max", maxLatency),
		logger.Duration("duration", stats.Duration))
}
