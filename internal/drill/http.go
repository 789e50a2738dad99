package drill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with a per-request timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// resultPayload mirrors the POST /results request schema.
type resultPayload struct {
	ResultID   string  `json:"result_id"`
	PlayerID   string  `json:"player_id"`
	SessionID  string  `json:"session_id,omitempty"`
	Points     int     `json:"points"`
	Quality    string  `json:"quality"`
	Distance   float64 `json:"distance"`
	ReleasedAt string  `json:"released_at"`
}

// submitResults submits resolved outcomes concurrently using a worker
// pool. Rejected releases never launched a ball and are skipped.
func submitResults(ctx context.Context, config *Config, outcomes []Outcome, stats *Stats) error {
	resolved := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Rejected {
			resolved = append(resolved, o)
		}
	}
	log.Printf("🏀 Submitting %d results with %d workers...", len(resolved), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/results"

	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	outcomeChan := make(chan Outcome, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for outcome := range outcomeChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleResult(ctx, client, url, outcome)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)
						log.Printf("📊 Progress: %d/%d submitted (success: %d, duplicate: %d, failed: %d)",
							total, len(resolved), succ, dup, fail)
					}
				}
			}
		}()
	}

	go func() {
		defer close(outcomeChan)
		for _, outcome := range resolved {
			select {
			case <-ctx.Done():
				return
			case outcomeChan <- outcome:
			}
		}
	}()

	wg.Wait()

	stats.ResultsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ResultsAccepted = int(atomic.LoadInt64(&successful))
	stats.ResultsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.ResultsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Result submission completed:
   Accepted: %d
   Duplicate: %d
   Failed: %d
`, stats.ResultsAccepted, stats.ResultsDuplicate, stats.ResultsFailed)

	return nil
}

// submitSingleResult submits one outcome and classifies the response.
func submitSingleResult(ctx context.Context, client *HTTPClient, url string, outcome Outcome) string {
	payload := resultPayload{
		ResultID:   outcome.ResultID,
		PlayerID:   outcome.PlayerID,
		SessionID:  outcome.SessionID,
		Points:     outcome.Points,
		Quality:    outcome.Label,
		Distance:   outcome.Distance,
		ReleasedAt: outcome.ReleasedAt,
	}

	resp, err := client.Post(ctx, url, payload)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Status == "accepted" {
			return "success"
		}
		return "success"
	case StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate"
	default:
		return "failed"
	}
}
