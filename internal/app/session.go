package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/tolgaeren/swish/internal/domain/court"
	"github.com/tolgaeren/swish/internal/domain/model"
	"github.com/tolgaeren/swish/internal/domain/release"
	"github.com/tolgaeren/swish/internal/domain/score"
	"github.com/tolgaeren/swish/internal/domain/shot"
	"github.com/tolgaeren/swish/internal/domain/trajectory"
	"github.com/tolgaeren/swish/internal/engine"
	"github.com/tolgaeren/swish/pkg/logger"
	"github.com/tolgaeren/swish/pkg/metrics"
)

// CommandKind identifies a client input.
type CommandKind int

// Session commands.
const (
	CmdMove CommandKind = iota
	CmdCharge
	CmdRelease
	CmdReset
)

// Command is one client input, applied inside the frame loop so all
// session state stays single-threaded.
type Command struct {
	Kind CommandKind
	// Dir is the horizontal movement direction for CmdMove. It is
	// normalized before use; zero stops the player.
	Dir court.Vec3
}

const (
	// playerSpeed is the horizontal movement speed in m/s.
	playerSpeed = 4.0
	// pickupMaxSpeed is the fastest a free ball can move and still be
	// grabbed. A ball on its way up is far quicker than this.
	pickupMaxSpeed = 2.0

	commandBuffer = 64
)

// Session is one player's live game. A single goroutine (Run, or a test
// driver calling RunFrame) owns every mutable field; the only concurrent
// entry points are Submit and Close.
type Session struct {
	id       string
	playerID string

	layout     court.Layout
	world      *engine.World
	meter      *shot.Meter
	controller *shot.Controller
	detector   *score.Detector

	recorder  Recorder
	snapshots SnapshotSink
	events    EventSink

	frameRate     int
	snapshotRate  int
	snapshotEvery uint64
	maxFrameDelta float64

	gravity     float64
	stepHz      int
	maxSubsteps int

	meterFill time.Duration
	zoneStart float64
	zoneEnd   float64
	weakMin   float64
	weakMax   float64
	strongMin float64
	strongMax float64

	cmds chan Command

	tick          uint64
	player        court.Vec3
	moveDir       court.Vec3
	score         int64
	attempts      int
	baskets       int
	pendingPoints int
	releasedAt    time.Time

	closeOnce sync.Once
	closed    chan struct{}

	log logger.Logger
}

// NewSession builds a session with the stock court and tuning, then
// applies options. The recorder may be nil for headless runs that do not
// feed the leaderboard.
func NewSession(id, playerID string, rec Recorder, opts ...SessionOption) *Session {
	s := &Session{
		id:            id,
		playerID:      playerID,
		recorder:      rec,
		layout:        court.DefaultLayout(),
		frameRate:     60,
		snapshotRate:  30,
		maxFrameDelta: 0.1,
		gravity:       9.81,
		stepHz:        60,
		maxSubsteps:   3,
		meterFill:     1200 * time.Millisecond,
		zoneStart:     0.85,
		zoneEnd:       0.95,
		weakMin:       0.70,
		weakMax:       0.95,
		strongMin:     1.05,
		strongMax:     1.30,
		cmds:          make(chan Command, commandBuffer),
		closed:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.snapshotEvery = 1
	if s.snapshotRate > 0 && s.frameRate > s.snapshotRate {
		s.snapshotEvery = uint64(s.frameRate / s.snapshotRate)
	}

	s.world = engine.NewWorld(
		engine.WithLayout(s.layout),
		engine.WithGravity(s.gravity),
		engine.WithStepHz(float64(s.stepHz)),
		engine.WithMaxSubsteps(s.maxSubsteps),
		engine.WithMaxFrameDelta(s.maxFrameDelta),
		engine.WithContactListener(s),
	)
	s.detector = score.NewDetector(
		score.WithLayout(s.layout),
		score.WithSink(s),
	)
	s.meter = shot.NewMeter(shot.WithFillDuration(s.meterFill))
	eval := release.NewEvaluator(
		release.WithZone(s.zoneStart, s.zoneEnd),
		release.WithWeakRange(s.weakMin, s.weakMax),
		release.WithStrongRange(s.strongMin, s.strongMax),
	)
	solver := trajectory.NewSolver(trajectory.WithGravity(s.gravity))
	s.controller = shot.NewController(s.meter, eval, solver,
		shot.WithLauncher(&worldLauncher{world: s.world}),
		shot.WithFeedbackSink(s),
	)

	s.log = logger.Get().Named("session").With(
		logger.String("session_id", id),
		logger.String("player_id", playerID),
	)

	s.holdBall()
	return s
}

// worldLauncher feeds controller launches into the physics world.
type worldLauncher struct {
	world *engine.World
}

func (l *worldLauncher) Launch(velocity, spin court.Vec3) {
	l.world.SetBallHeld(false)
	l.world.SetBallVelocity(velocity)
	l.world.SetBallAngularVelocity(spin)
}

// Run drives the frame loop at the session's frame rate until the
// context is canceled or Close is called.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(s.frameRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		case now := <-ticker.C:
			s.RunFrame(ctx, now.Sub(last).Seconds())
			last = now
		}
	}
}

// RunFrame advances the session by one frame. It is exported so headless
// drivers can step sessions deterministically with a fixed delta.
//
// Frame order is fixed: meter advance, physics sub-steps (rim contacts
// reach the detector inside this call), score settlement and ball
// resets, then input application and the held-ball write.
func (s *Session) RunFrame(ctx context.Context, frameDelta float64) {
	start := time.Now()
	if frameDelta < 0 {
		frameDelta = 0
	}
	if frameDelta > s.maxFrameDelta {
		frameDelta = s.maxFrameDelta
	}
	s.tick++

	s.meter.Advance(frameDelta)
	substeps := s.world.Step(frameDelta)

	if s.controller.InFlight() {
		s.detector.CheckProximity(s.world.BallPosition())
		s.settleScore(ctx)
		// A settled score already returned the ball to the player.
		if s.controller.InFlight() {
			s.checkResets(ctx)
		}
	}

	s.applyCommands(ctx)
	s.movePlayer(frameDelta)
	if !s.controller.InFlight() {
		s.world.PlaceBall(s.heldBallPosition())
	}

	if s.snapshots != nil && s.tick%s.snapshotEvery == 0 {
		s.snapshots.SessionSnapshot(s.snapshot())
	}
	metrics.RecordFrame(float64(time.Since(start).Microseconds())/1000.0, substeps)
}

// Submit hands a command to the frame loop. It never blocks; false means
// the buffer was full or the session is closing, and the command was
// dropped.
func (s *Session) Submit(cmd Command) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.cmds <- cmd:
		return true
	default:
		return false
	}
}

// Close stops the frame loop. Safe to call from any goroutine, any
// number of times.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// OnContact routes rim sensor crossings to the score detector. The
// engine calls it synchronously between sub-steps.
func (s *Session) OnContact(c engine.Contact) {
	switch c.Kind {
	case engine.ContactAboveRim:
		s.detector.OnAboveRimContact()
	case engine.ContactBelowRim:
		s.detector.OnBelowRimContact(c.Velocity.Y)
	}
}

// Scored receives the detector's verdict during the physics step. The
// points are settled after the step completes, still inside the frame.
func (s *Session) Scored(points int) {
	s.pendingPoints = points
}

// ReleaseFeedback translates controller feedback into a client event.
func (s *Session) ReleaseFeedback(fb shot.Feedback) {
	kind := EventFeedback
	if fb.Rejected {
		kind = EventRejected
		metrics.RecordShotRejected()
	} else {
		metrics.RecordShotReleased(fb.Label.String())
	}
	if fb.ScreenShake {
		metrics.RecordScreenShake()
	}
	s.emitEvent(Event{
		Kind:         kind,
		Label:        fb.Label.String(),
		PowerPercent: fb.PowerPercent,
		Distance:     fb.Distance,
		Perfect:      fb.Perfect,
		ScreenShake:  fb.ScreenShake,
	})
}

func (s *Session) applyCommands(ctx context.Context) {
	for {
		select {
		case cmd := <-s.cmds:
			s.applyCommand(ctx, cmd)
		default:
			return
		}
	}
}

func (s *Session) applyCommand(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case CmdMove:
		s.moveDir = normalizeDir(cmd.Dir)
	case CmdCharge:
		s.controller.BeginCharge()
	case CmdRelease:
		s.release()
	case CmdReset:
		if s.controller.InFlight() {
			s.resetBall(ctx)
		}
	}
}

func (s *Session) release() {
	origin := s.world.BallPosition()
	if !s.controller.Release(origin, s.layout.RimCenter) {
		return
	}
	s.releasedAt = time.Now()
	s.attempts++
	s.detector.BeginFlight(origin)
}

func (s *Session) settleScore(ctx context.Context) {
	points := s.pendingPoints
	if points == 0 {
		return
	}
	s.pendingPoints = 0

	s.controller.MarkScored()
	s.score += int64(points)
	s.baskets++
	metrics.RecordBasket(strconv.Itoa(points))

	if att := s.controller.Attempt(); att != nil {
		s.record(ctx, att, points)
	}
	s.emitEvent(Event{Kind: EventScored, Points: points, Total: s.score})
	s.log.Debug(ctx, "basket",
		logger.Int("points", points),
		logger.Int64("total", s.score),
	)
	// Scoreboard settled; hand the ball straight back for the next shot.
	s.resetBall(ctx)
}

func (s *Session) checkResets(ctx context.Context) {
	bp := s.world.BallPosition()
	if s.layout.OutOfBounds(bp) || s.layout.BelowFloor(bp) {
		s.resetBall(ctx)
		return
	}
	if s.canPickUp(bp) {
		s.resetBall(ctx)
	}
}

// canPickUp reports whether the player can re-hold the free ball: close
// enough, below chest height, and not flying fast.
func (s *Session) canPickUp(bp court.Vec3) bool {
	if court.HorizontalDistance(s.player, bp) > court.PickupRadius {
		return false
	}
	if bp.Y > court.ChestHeight {
		return false
	}
	return s.world.BallVelocity().Length() <= pickupMaxSpeed
}

// resetBall ends the current flight and returns the ball to the player's
// hands. An unscored attempt is recorded as a miss on the way out.
func (s *Session) resetBall(ctx context.Context) {
	if att := s.controller.Attempt(); att != nil && !s.detector.ScoredThisFlight() {
		metrics.RecordShotMissed()
		s.record(ctx, att, 0)
	}
	s.detector.ResetFlight()
	s.controller.Reset()
	s.holdBall()
}

func (s *Session) record(ctx context.Context, att *shot.Attempt, points int) {
	if s.recorder == nil {
		return
	}
	r := model.Result{
		ResultID:   model.NewResultID(),
		PlayerID:   s.playerID,
		SessionID:  s.id,
		Points:     points,
		Quality:    att.Quality.Label.String(),
		Distance:   att.Distance,
		ReleasedAt: s.releasedAt,
	}
	if accepted, _ := s.recorder.RecordResult(ctx, r); !accepted {
		s.log.Warn(ctx, "result not accepted",
			logger.String("result_id", r.ResultID),
			logger.Int("points", points),
		)
	}
}

func (s *Session) movePlayer(frameDelta float64) {
	if s.moveDir.LengthSq() == 0 {
		return
	}
	next := s.player.Add(s.moveDir.Scale(playerSpeed * frameDelta))
	s.player = s.layout.ClampToBounds(next)
}

func (s *Session) holdBall() {
	s.world.SetBallHeld(true)
	s.world.PlaceBall(s.heldBallPosition())
}

func (s *Session) heldBallPosition() court.Vec3 {
	return court.Vec3{X: s.player.X, Y: court.ChestHeight, Z: s.player.Z}
}

func (s *Session) emitEvent(ev Event) {
	if s.events != nil {
		s.events.SessionEvent(ev)
	}
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Tick:         s.tick,
		SessionID:    s.id,
		PlayerID:     s.playerID,
		State:        s.controller.State().String(),
		Meter:        s.meter.Progress(),
		Player:       s.player,
		Ball:         s.world.BallPosition(),
		BallVelocity: s.world.BallVelocity(),
		Holding:      s.world.BallHeld(),
		Score:        s.score,
		Attempts:     s.attempts,
		Baskets:      s.baskets,
	}
}

func normalizeDir(d court.Vec3) court.Vec3 {
	d.Y = 0
	if d.LengthSq() == 0 {
		return court.Vec3{}
	}
	return d.Normalize()
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// PlayerID returns the owning player.
func (s *Session) PlayerID() string { return s.playerID }

// Score returns the session's accumulated points.
func (s *Session) Score() int64 { return s.score }

// Attempts returns the number of launched shots.
func (s *Session) Attempts() int { return s.attempts }

// Baskets returns the number of made shots.
func (s *Session) Baskets() int { return s.baskets }

// ShotState returns the controller's lifecycle state.
func (s *Session) ShotState() shot.State { return s.controller.State() }

// Holding reports whether the player currently holds the ball.
func (s *Session) Holding() bool { return s.world.BallHeld() }

// PlayerPosition returns the player's court position.
func (s *Session) PlayerPosition() court.Vec3 { return s.player }

// BallPosition returns the ball center.
func (s *Session) BallPosition() court.Vec3 { return s.world.BallPosition() }

// Meter returns the power meter progress in [0, 1].
func (s *Session) Meter() float64 { return s.meter.Progress() }
