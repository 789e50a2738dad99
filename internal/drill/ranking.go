package drill

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// distinctPlayers returns the sweep's player IDs in first-seen order.
func distinctPlayers(outcomes []Outcome) []string {
	seen := make(map[string]struct{}, len(outcomes))
	players := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if _, ok := seen[o.PlayerID]; ok {
			continue
		}
		seen[o.PlayerID] = struct{}{}
		players = append(players, o.PlayerID)
	}
	return players
}

// retrieveRanks fetches the rank of every sweep player. The drill keeps
// one player per distance, so a plain loop beats a worker pool here.
func retrieveRanks(ctx context.Context, config *Config, outcomes []Outcome, stats *Stats) ([]Entry, error) {
	players := distinctPlayers(outcomes)
	log.Printf("🏆 Retrieving ranks for %d players...", len(players))

	client := newHTTPClient(config.Timeout)

	ranks := make([]Entry, 0, len(players))
	failed := 0
	for _, player := range players {
		entry, err := retrieveSingleRank(ctx, client, config.BaseURL, player)
		if err != nil {
			failed++
			log.Printf("⚠️  Failed to get rank for %s: %v", player, err)
			continue
		}
		ranks = append(ranks, entry)
		if config.Verbose {
			log.Printf("   #%d %s with %d points", entry.Rank, entry.PlayerID, entry.Points)
		}
	}

	stats.RanksRetrieved = len(ranks)
	log.Printf(`✅ Rank retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(ranks), failed)

	return ranks, nil
}

// retrieveSingleRank fetches the rank of one player.
func retrieveSingleRank(ctx context.Context, client *HTTPClient, baseURL, playerID string) (Entry, error) {
	url := fmt.Sprintf("%s/rank/%s", baseURL, playerID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return Entry{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return Entry{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entry Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return entry, nil
}

// getLeaderboard retrieves the top N leaderboard entries.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	log.Printf("🥇 Getting top %d leaderboard entries...", config.TopN)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/leaderboard?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var leaderboard []Entry
	if err := json.Unmarshal(body, &leaderboard); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.LeaderboardEntries = len(leaderboard)
	log.Printf("✅ Retrieved %d leaderboard entries", len(leaderboard))

	return leaderboard, nil
}
