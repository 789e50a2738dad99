package drill

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tolgaeren/swish/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// distanceBucket aggregates sweep outcomes for one shot distance.
type distanceBucket struct {
	distance float64
	taken    int
	rejected int
	made     int
	points   int
	bestLow  float64
	bestHigh float64
}

// verifyResults prints the accuracy report and, when the sweep ran
// against a live service, cross-checks ranks against the leaderboard.
func verifyResults(ctx context.Context, config *Config, outcomes []Outcome, ranks, leaderboard []Entry) error {
	log.Println("🔍 Verifying results...")

	if len(outcomes) == 0 {
		return fmt.Errorf("no outcomes to verify")
	}

	displayAccuracyTable(outcomes)

	if len(ranks) > 0 {
		sorted := make([]Entry, len(ranks))
		copy(sorted, ranks)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Points > sorted[j].Points
		})

		if len(leaderboard) > 0 {
			if err := verifyLeaderboardConsistency(sorted, leaderboard); err != nil {
				log.Printf("⚠️  Leaderboard consistency warning: %v", err)
			} else {
				log.Println("✅ Leaderboard consistency verified")
			}
		}

		crossCheckPoints(outcomes, ranks)
		displayTopPlayers(sorted, leaderboard)
	}

	log.Println("✅ Result verification completed")
	return nil
}

// bucketByDistance aggregates outcomes per distance, nearest first. The
// window bounds track the release progress of makes only.
func bucketByDistance(outcomes []Outcome) []*distanceBucket {
	buckets := make(map[float64]*distanceBucket)
	for _, o := range outcomes {
		b, ok := buckets[o.Distance]
		if !ok {
			b = &distanceBucket{distance: o.Distance}
			buckets[o.Distance] = b
		}
		b.taken++
		if o.Rejected {
			b.rejected++
			continue
		}
		if o.Made {
			b.made++
			b.points += o.Points
			if b.made == 1 || o.Progress < b.bestLow {
				b.bestLow = o.Progress
			}
			if o.Progress > b.bestHigh {
				b.bestHigh = o.Progress
			}
		}
	}

	rows := make([]*distanceBucket, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, b)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].distance < rows[j].distance })
	return rows
}

// displayAccuracyTable prints per-distance accuracy, one row per sweep
// distance, with the release window that produced makes.
func displayAccuracyTable(outcomes []Outcome) {
	rows := bucketByDistance(outcomes)

	log.Println("🎯 Accuracy by distance:")
	log.Printf("   %-10s %-7s %-9s %-7s %-10s %-8s %s", "distance", "shots", "rejected", "made", "accuracy", "points", "scoring window")
	for _, b := range rows {
		launched := b.taken - b.rejected
		accuracy := 0.0
		if launched > 0 {
			accuracy = float64(b.made) / float64(launched) * PercentageMultiplier
		}
		window := "none"
		if b.made > 0 {
			window = fmt.Sprintf("%.2f..%.2f", b.bestLow, b.bestHigh)
		}
		log.Printf("   %-10s %-7d %-9d %-7d %-10s %-8d %s",
			fmt.Sprintf("%.2fm", b.distance), b.taken, b.rejected, b.made,
			fmt.Sprintf("%.1f%%", accuracy), b.points, window)
	}
}

// verifyLeaderboardConsistency checks that the leaderboard head matches
// the best-ranked sweep player and that the board is sorted.
func verifyLeaderboardConsistency(sorted, leaderboard []Entry) error {
	if len(leaderboard) == 0 {
		return fmt.Errorf("empty leaderboard")
	}

	for i := 1; i < len(leaderboard); i++ {
		if leaderboard[i].Points > leaderboard[i-1].Points {
			return fmt.Errorf("leaderboard not sorted: entry %d outscores entry %d", i, i-1)
		}
		if leaderboard[i].Rank <= leaderboard[i-1].Rank {
			return fmt.Errorf("leaderboard ranks not increasing at entry %d", i)
		}
	}

	// Sweep players share the board with anyone else who played, so
	// each rank entry is checked against the board instead of assuming
	// the sweep owns the top slot.
	board := make(map[string]Entry, len(leaderboard))
	for _, e := range leaderboard {
		board[e.PlayerID] = e
	}
	for _, r := range sorted {
		e, ok := board[r.PlayerID]
		if !ok {
			continue
		}
		if e.Points != r.Points || e.Rank != r.Rank {
			return fmt.Errorf("rank of %s disagrees with leaderboard: rank %d/%d points, board %d/%d points",
				r.PlayerID, r.Rank, r.Points, e.Rank, e.Points)
		}
	}
	return nil
}

// crossCheckPoints warns when a player's reported total is below what
// this run alone scored. Totals accumulate across runs, so the reported
// number may legitimately be higher.
func crossCheckPoints(outcomes []Outcome, ranks []Entry) {
	scored := make(map[string]int64)
	for _, o := range outcomes {
		if o.Made && !o.Rejected {
			scored[o.PlayerID] += int64(o.Points)
		}
	}
	for _, r := range ranks {
		if want := scored[r.PlayerID]; r.Points < want {
			log.Printf("⚠️  %s reports %d points but this run scored %d", r.PlayerID, r.Points, want)
		}
	}
}

// displayTopPlayers shows the sweep players' ranks next to the
// leaderboard head.
func displayTopPlayers(sorted, leaderboard []Entry) {
	log.Printf("🏆 Sweep players by points:")
	for i, entry := range sorted {
		log.Printf("   %d. %s - rank #%d with %d points", i+1, entry.PlayerID, entry.Rank, entry.Points)
	}

	if len(leaderboard) > 0 {
		topN := minInt(10, len(leaderboard))
		log.Printf("🥇 Top %d from leaderboard:", topN)
		for i := 0; i < topN; i++ {
			entry := leaderboard[i]
			log.Printf("   %d. %s - %d points", entry.Rank, entry.PlayerID, entry.Points)
		}
	}
}

// saveOutcomes writes the sweep outcomes to a JSON file.
func saveOutcomes(ctx context.Context, config *Config, outcomes []Outcome) error {
	if len(outcomes) == 0 {
		return fmt.Errorf("no outcomes to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "drill_outcomes_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Err(err))
		}
	}()

	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}
	for i, outcome := range outcomes {
		jsonData, err := json.Marshal(outcome)
		if err != nil {
			return fmt.Errorf("failed to marshal outcome %d: %w", i, err)
		}
		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write outcome %d: %w", i, err)
		}
		if i < len(outcomes)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}
	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "outcomes saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final drill statistics.
func displayFinalStats(stats *Stats) {
	var accuracy, shotsPerSecond float64

	launched := stats.ShotsTaken - stats.ShotsRejected
	if launched > 0 {
		accuracy = float64(stats.ShotsMade) / float64(launched) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		shotsPerSecond = float64(stats.ShotsTaken) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("shotsPlanned", stats.ShotsPlanned),
		logger.Int("shotsTaken", stats.ShotsTaken),
		logger.Int("shotsMade", stats.ShotsMade),
		logger.Int("shotsRejected", stats.ShotsRejected),
		logger.Int("resultsSubmitted", stats.ResultsSubmitted),
		logger.Int("resultsAccepted", stats.ResultsAccepted),
		logger.Int("resultsDuplicate", stats.ResultsDuplicate),
		logger.Int("resultsFailed", stats.ResultsFailed),
		logger.Int("ranksRetrieved", stats.RanksRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("accuracy", accuracy),
		logger.Float64("shotsPerSecond", shotsPerSecond))
}
