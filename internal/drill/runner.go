package drill

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tolgaeren/swish/internal/config"
	"github.com/tolgaeren/swish/pkg/logger"
)

// Run executes the complete accuracy drill: sweep the release meter
// across every configured distance, then submit, rank, and verify the
// outcomes against a live service. With no base URL the sweep runs
// offline and only the accuracy report is produced.
func Run(ctx context.Context, drillCfg *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	target := drillCfg.BaseURL
	if target == "" {
		target = "offline"
	}
	logger.Get().Info(ctx, "starting swish accuracy drill",
		logger.String("target", target),
		logger.Int("shots", drillCfg.Shots),
		logger.Float64("step", drillCfg.Step),
		logger.Int("distances", len(drillCfg.Distances)),
		logger.Int("workers", drillCfg.Workers),
		logger.String("timeout", drillCfg.Timeout.String()),
		logger.Int("topN", drillCfg.TopN),
		logger.String("logFile", drillCfg.LogFile),
		logger.Any("verbose", drillCfg.Verbose))

	svcCfg, err := simulationConfig(ctx, drillCfg)
	if err != nil {
		return fmt.Errorf("simulation config failed: %w", err)
	}

	offline := drillCfg.BaseURL == ""
	if offline {
		log.Println("🏃 No base URL given; running the sweep offline")
	} else if err := checkServiceHealth(ctx, drillCfg); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	outcomes, err := runSweep(ctx, drillCfg, svcCfg, stats)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	var ranks, leaderboard []Entry
	if !offline {
		// The board carries totals from earlier runs, so the settle
		// target is measured before this run's results land.
		players := distinctPlayers(outcomes)
		baseline := sumRankPoints(ctx, drillCfg, players)

		if err := submitResults(ctx, drillCfg, outcomes, stats); err != nil {
			return fmt.Errorf("result submission failed: %w", err)
		}

		waitForSettle(ctx, drillCfg, players, baseline+scoredPoints(outcomes))

		ranks, err = retrieveRanks(ctx, drillCfg, outcomes, stats)
		if err != nil {
			return fmt.Errorf("rank retrieval failed: %w", err)
		}

		leaderboard, err = getLeaderboard(ctx, drillCfg, stats)
		if err != nil {
			return fmt.Errorf("leaderboard retrieval failed: %w", err)
		}
	}

	if err := verifyResults(ctx, drillCfg, outcomes, ranks, leaderboard); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	if err := saveOutcomes(ctx, drillCfg, outcomes); err != nil {
		logger.Get().Warn(ctx, "failed to save outcomes to file", logger.Err(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "drill completed successfully")
	return nil
}

// simulationConfig builds the service tuning the sweep simulates under,
// with the requested difficulty preset applied on top of the defaults.
func simulationConfig(ctx context.Context, drillCfg *Config) (*config.Config, error) {
	cfg := config.New(ctx)
	if drillCfg.PresetsFile == "" {
		return cfg, nil
	}
	presets, err := config.LoadPresets(drillCfg.PresetsFile)
	if err != nil {
		return nil, err
	}
	preset, ok := presets[drillCfg.Preset]
	if !ok {
		return nil, fmt.Errorf("preset %q not found in %s", drillCfg.Preset, drillCfg.PresetsFile)
	}
	preset.Apply(cfg)
	logger.Get().Info(ctx, "difficulty preset applied",
		logger.String("preset", drillCfg.Preset),
		logger.Float64("zoneStart", cfg.PerfectZoneStart),
		logger.Float64("zoneEnd", cfg.PerfectZoneEnd),
		logger.Int("meterFillMS", cfg.MeterFillMS))
	return cfg, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Err(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// scoredPoints sums the points this run's makes are worth.
func scoredPoints(outcomes []Outcome) int64 {
	var total int64
	for _, o := range outcomes {
		if o.Made && !o.Rejected {
			total += int64(o.Points)
		}
	}
	return total
}

// sumRankPoints adds up the current totals of the given players. Players
// not on the board yet count as zero.
func sumRankPoints(ctx context.Context, config *Config, players []string) int64 {
	client := newHTTPClient(config.Timeout)
	var total int64
	for _, player := range players {
		entry, err := retrieveSingleRank(ctx, client, config.BaseURL, player)
		if err != nil {
			continue
		}
		total += entry.Points
	}
	return total
}

// waitForSettle polls the rank endpoint until the recorder has drained
// this run's results into the players' totals, or the settle timeout
// passes. Misses are worth zero points, so only makes move the target.
func waitForSettle(ctx context.Context, config *Config, players []string, targetPoints int64) {
	log.Printf("⏳ Waiting for results to settle (target %d points)...", targetPoints)

	deadline := time.Now().Add(settleTimeout)
	for {
		total := sumRankPoints(ctx, config, players)
		if total >= targetPoints {
			log.Printf("✅ Results settled at %d points", total)
			return
		}
		if time.Now().After(deadline) {
			log.Printf("⚠️  Results still at %d/%d points after %s; continuing", total, targetPoints, settleTimeout)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(settlePollInterval):
		}
	}
}
