package drill

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	service "github.com/tolgaeren/swish/internal/app"
	"github.com/tolgaeren/swish/internal/config"
	"github.com/tolgaeren/swish/internal/domain/court"
	"github.com/tolgaeren/swish/internal/domain/shot"
	"github.com/tolgaeren/swish/pkg/logger"
)

// shotJob is one cell of the sweep grid.
type shotJob struct {
	index    int
	distance float64
	target   float64
	playerID string
}

// buildGrid lays out the sweep: every release target for every distance,
// capped at the configured shot budget. Shots at the same distance share
// a player ID so the service accumulates per-distance totals.
func buildGrid(config *Config) []shotJob {
	targets := progressTargets(config.Step)
	jobs := make([]shotJob, 0, len(config.Distances)*len(targets))
	for _, d := range config.Distances {
		player := playerIDForDistance(d)
		for _, t := range targets {
			jobs = append(jobs, shotJob{
				index:    len(jobs),
				distance: d,
				target:   t,
				playerID: player,
			})
		}
	}
	if config.Shots > 0 && len(jobs) > config.Shots {
		log.Printf("⚠️  Sweep grid of %d shots truncated to the -shots cap of %d", len(jobs), config.Shots)
		jobs = jobs[:config.Shots]
	}
	return jobs
}

// progressTargets returns the release targets step, 2*step, ... up to
// and including full charge.
func progressTargets(step float64) []float64 {
	if step <= 0 || step > 1 {
		step = 0.05
	}
	targets := make([]float64, 0, int(1/step)+1)
	for p := step; p <= 1+1e-9; p += step {
		targets = append(targets, math.Round(math.Min(p, 1)*1e6)/1e6)
	}
	return targets
}

// playerIDForDistance derives a stable, URL-safe player ID for one sweep
// distance.
func playerIDForDistance(d float64) string {
	return fmt.Sprintf("drill-%dcm", int(math.Round(d*100)))
}

// runSweep simulates every shot of the grid concurrently and returns the
// outcomes in grid order.
func runSweep(ctx context.Context, config *Config, cfg *config.Config, stats *Stats) ([]Outcome, error) {
	jobs := buildGrid(config)
	stats.ShotsPlanned = len(jobs)
	logger.Get().Info(ctx, "running sweep",
		logger.Int("shots", len(jobs)),
		logger.Int("distances", len(config.Distances)),
		logger.Int("workers", config.Workers),
	)

	type shotResult struct {
		index   int
		outcome Outcome
		err     error
	}

	resultChan := make(chan shotResult, len(jobs))
	jobChan := make(chan shotJob, config.Workers*WorkerChannelMultiplier)

	var taken int64
	var lastReport time.Time
	reportInterval := 1 * time.Second

	workerCount := minInt(config.Workers, len(jobs))
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				select {
				case <-ctx.Done():
					resultChan <- shotResult{index: job.index, err: ctx.Err()}
					return
				default:
					outcome := runShot(ctx, cfg, job)
					resultChan <- shotResult{index: job.index, outcome: outcome}

					total := atomic.AddInt64(&taken, 1)
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						log.Printf("🏀 Sweep progress: %d/%d shots", total, len(jobs))
					}
				}
			}
		}()
	}

	go func() {
		defer close(jobChan)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobChan <- job:
			}
		}
	}()

	outcomes := make([]Outcome, len(jobs))
	for i := 0; i < len(jobs); i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during sweep: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("shot %d failed: %w", result.index, result.err)
			}
			outcomes[result.index] = result.outcome
		}
	}
	wg.Wait()

	for _, o := range outcomes {
		stats.ShotsTaken++
		if o.Made {
			stats.ShotsMade++
		}
		if o.Rejected {
			stats.ShotsRejected++
		}
	}

	logger.Get().Info(ctx, "sweep finished",
		logger.Int("taken", stats.ShotsTaken),
		logger.Int("made", stats.ShotsMade),
		logger.Int("rejected", stats.ShotsRejected),
	)
	return outcomes, nil
}

// eventCapture records the session events of a single shot.
type eventCapture struct {
	feedback *service.Event
	scored   *service.Event
	rejected bool
}

func (c *eventCapture) SessionEvent(ev service.Event) {
	switch ev.Kind {
	case service.EventFeedback:
		e := ev
		c.feedback = &e
	case service.EventRejected:
		e := ev
		c.feedback = &e
		c.rejected = true
	case service.EventScored:
		e := ev
		c.scored = &e
	}
}

// runShot drives one headless session through a full charge, release,
// and flight resolution at a fixed frame delta. The drill goroutine owns
// the session for its whole lifetime, so RunFrame is safe to call
// directly.
func runShot(ctx context.Context, cfg *config.Config, job shotJob) Outcome {
	capture := &eventCapture{}
	layout := layoutFromConfig(cfg)
	opts := append(sessionOptions(cfg, layout),
		service.WithPlayerStart(court.Vec3{Z: layout.RimCenter.Z + job.distance}),
		service.WithEventSink(capture),
	)
	sess := service.NewSession(uuid.NewString(), job.playerID, nil, opts...)
	defer sess.Close()

	frameRate := float64(cfg.FrameRateHz)
	dt := 1.0 / frameRate
	fill := time.Duration(cfg.MeterFillMS) * time.Millisecond

	// Meter advances needed to land on the target progress. The release
	// frame contributes the final advance before the command applies.
	frames := int(math.Round(job.target * fill.Seconds() * frameRate))
	if frames < 1 {
		frames = 1
	}

	sess.Submit(service.Command{Kind: service.CmdCharge})
	sess.RunFrame(ctx, dt)
	for i := 0; i < frames-1; i++ {
		sess.RunFrame(ctx, dt)
	}
	sess.Submit(service.Command{Kind: service.CmdRelease})
	sess.RunFrame(ctx, dt)

	releasedAt := time.Now().UTC().Format(time.RFC3339)
	outcome := Outcome{
		ResultID:   uuid.NewString(),
		PlayerID:   job.playerID,
		SessionID:  sess.ID(),
		Distance:   job.distance,
		Target:     job.target,
		Progress:   math.Min(1, float64(frames)/(fill.Seconds()*frameRate)),
		ReleasedAt: releasedAt,
	}
	if capture.feedback != nil {
		outcome.Label = capture.feedback.Label
		outcome.PowerPercent = capture.feedback.PowerPercent
	}
	if capture.rejected {
		outcome.Rejected = true
		return outcome
	}

	// Play the flight out until the session returns to READY: a make
	// resets on its own, an out-of-bounds miss resets on exit. A miss
	// that settles on the floor needs the explicit reset command.
	for i := 0; i < maxFlightFrames && sess.ShotState() != shot.StateReady; i++ {
		sess.RunFrame(ctx, dt)
	}
	if sess.ShotState() != shot.StateReady {
		sess.Submit(service.Command{Kind: service.CmdReset})
		sess.RunFrame(ctx, dt)
	}

	if capture.scored != nil {
		outcome.Made = true
		outcome.Points = capture.scored.Points
	}
	return outcome
}

// sessionOptions maps the service configuration onto per-session tuning.
func sessionOptions(cfg *config.Config, layout court.Layout) []service.SessionOption {
	return []service.SessionOption{
		service.WithCourtLayout(layout),
		service.WithFrameRate(cfg.FrameRateHz),
		service.WithPhysicsRate(cfg.PhysicsStepHz),
		service.WithMaxSubsteps(cfg.MaxSubsteps),
		service.WithMaxFrameDelta(float64(cfg.MaxFrameDeltaMS) / 1000.0),
		service.WithGravity(cfg.Gravity),
		service.WithMeterFill(time.Duration(cfg.MeterFillMS) * time.Millisecond),
		service.WithPerfectZone(cfg.PerfectZoneStart, cfg.PerfectZoneEnd),
		service.WithWeakMultipliers(cfg.WeakMinMultiplier, cfg.WeakMaxMultiplier),
		service.WithStrongMultipliers(cfg.StrongMinMultiplier, cfg.StrongMaxMultiplier),
	}
}

// layoutFromConfig applies the configured court geometry over the stock
// layout.
func layoutFromConfig(cfg *config.Config) court.Layout {
	layout := court.DefaultLayout()
	if cfg.RimHeight > 0 {
		layout.RimCenter.Y = cfg.RimHeight
	}
	if cfg.RimOffsetZ != 0 {
		layout.RimCenter.Z = cfg.RimOffsetZ
	}
	if cfg.ThreePointRadius > 0 {
		layout.ThreePointRadius = cfg.ThreePointRadius
	}
	if cfg.ProximityResetRadius > 0 {
		layout.ProximityResetRadius = cfg.ProximityResetRadius
	}
	return layout
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
