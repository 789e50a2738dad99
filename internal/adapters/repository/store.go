// Package repository defines the ranking store interface and errors.
package repository

import (
	"context"

	"github.com/tolgaeren/swish/internal/domain/types"
)

// Store provides read/write access to the ranking state.
type Store interface {
	// AddPoints adds points to a player's cumulative total and returns
	// the new total. A zero-point result still registers the player.
	AddPoints(ctx context.Context, playerID string, points int) (int64, error)

	// Best returns a player's cumulative points.
	// Returns ErrNotFound if the player is unknown.
	Best(ctx context.Context, playerID string) (int64, error)

	// Rank returns the current rank row for a player. Tied totals share
	// a rank number.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, playerID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by points desc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of players tracked in the leaderboard.
	Count(ctx context.Context) int

	// Snapshot returns the latest published leaderboard snapshot. Cheap
	// enough to call per broadcast frame.
	Snapshot() *Snapshot
}
