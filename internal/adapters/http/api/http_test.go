package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tolgaeren/swish/internal/adapters/http/api"
	"github.com/tolgaeren/swish/internal/adapters/repository"
	"github.com/tolgaeren/swish/internal/domain/model"
	"github.com/tolgaeren/swish/internal/domain/types"
)

// mockService implements api.Dependencies for handler tests.
type mockService struct {
	seen     map[string]bool
	accept   bool
	recorded []model.Result

	topN    []types.Entry
	topNErr error
	rank    types.Entry
	rankErr error

	stats map[string]any
}

func newMockService() *mockService {
	return &mockService{
		seen:   make(map[string]bool),
		accept: true,
		stats:  map[string]any{"started": true, "sessions": 0},
	}
}

func (m *mockService) RecordResult(ctx context.Context, r model.Result) (bool, bool) {
	if m.seen[r.ResultID] {
		return true, true
	}
	if !m.accept {
		return false, false
	}
	m.seen[r.ResultID] = true
	m.recorded = append(m.recorded, r)
	return true, false
}

func (m *mockService) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockService) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	if m.rankErr != nil {
		return types.Entry{}, m.rankErr
	}
	return m.rank, nil
}

func (m *mockService) Stats(ctx context.Context) map[string]any {
	return m.stats
}

func newTestMux(deps api.Dependencies) *http.ServeMux {
	server := api.NewServer(deps, 100)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func validResultBody() string {
	return `{
		"result_id": "r-1",
		"player_id": "p-1",
		"points": 2,
		"quality": "PERFECT",
		"distance": 5.5,
		"released_at": "` + time.Now().UTC().Format(time.RFC3339) + `"
	}`
}

func TestServerRegister(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		svc := newMockService()
		mux := newTestMux(svc)

		Convey("Then the health endpoint responds", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)

			var health struct {
				Status string `json:"status"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &health), ShouldBeNil)
			So(health.Status, ShouldEqual, "ok")
		})

		Convey("Then the stats endpoint responds with the service view", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "sessions")
		})

		Convey("Then the metrics endpoint serves the scrape format", func() {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When the service has not started", func() {
			svc.stats = map[string]any{"started": false}

			Convey("Then health answers 503", func() {
				req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestPostResult(t *testing.T) {
	Convey("Given a service accepting results", t, func() {
		svc := newMockService()
		mux := newTestMux(svc)

		Convey("When a valid result is posted", func() {
			req := httptest.NewRequest(http.MethodPost, "/results", strings.NewReader(validResultBody()))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is accepted with 202", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)

				var ack struct {
					Status    string `json:"status"`
					Duplicate bool   `json:"duplicate"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &ack), ShouldBeNil)
				So(ack.Status, ShouldEqual, "accepted")
				So(ack.Duplicate, ShouldBeFalse)
				So(svc.recorded, ShouldHaveLength, 1)
				So(svc.recorded[0].PlayerID, ShouldEqual, "p-1")
			})

			Convey("And posting the same result again reports a duplicate", func() {
				req2 := httptest.NewRequest(http.MethodPost, "/results", strings.NewReader(validResultBody()))
				w2 := httptest.NewRecorder()
				mux.ServeHTTP(w2, req2)

				So(w2.Code, ShouldEqual, http.StatusOK)
				var ack struct {
					Status    string `json:"status"`
					Duplicate bool   `json:"duplicate"`
				}
				So(json.Unmarshal(w2.Body.Bytes(), &ack), ShouldBeNil)
				So(ack.Duplicate, ShouldBeTrue)
				So(svc.recorded, ShouldHaveLength, 1)
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/results", strings.NewReader("not json"))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is rejected with 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When required fields are missing", func() {
			req := httptest.NewRequest(http.MethodPost, "/results", strings.NewReader(`{"player_id":"p-1"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is rejected with 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "result_id")
			})
		})

		Convey("When the quality label is unknown", func() {
			body := strings.Replace(validResultBody(), "PERFECT", "AMAZING", 1)
			req := httptest.NewRequest(http.MethodPost, "/results", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "quality")
		})

		Convey("When the point value is not a basketball score", func() {
			body := strings.Replace(validResultBody(), `"points": 2`, `"points": 5`, 1)
			req := httptest.NewRequest(http.MethodPost, "/results", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the timestamp is not RFC3339", func() {
			body := strings.NewReader(`{
				"result_id": "r-2", "player_id": "p-1", "points": 2,
				"quality": "PERFECT", "distance": 5, "released_at": "yesterday"
			}`)
			req := httptest.NewRequest(http.MethodPost, "/results", body)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "RFC3339")
		})

		Convey("When the recorder is saturated", func() {
			svc.accept = false
			req := httptest.NewRequest(http.MethodPost, "/results", strings.NewReader(validResultBody()))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it answers 503 backpressure", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldContainSubstring, "backpressure")
			})
		})

		Convey("When the method is GET", func() {
			req := httptest.NewRequest(http.MethodGet, "/results", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the route is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestGetLeaderboard(t *testing.T) {
	Convey("Given a leaderboard with three entries", t, func() {
		svc := newMockService()
		svc.topN = []types.Entry{
			{Rank: 1, PlayerID: "ace", Points: 42},
			{Rank: 2, PlayerID: "bank", Points: 30},
			{Rank: 2, PlayerID: "curl", Points: 30},
		}
		mux := newTestMux(svc)

		Convey("When the top two are requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=2", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then both rows return in rank order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].PlayerID, ShouldEqual, "ace")
			})
		})

		Convey("When the limit is missing", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit is zero", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=0", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the cap", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=101", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "limit_exceeded")
		})

		Convey("When the store fails", func() {
			svc.topNErr = errors.New("boom")
			req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=2", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the board is empty", func() {
			svc.topN = nil
			req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=5", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then an empty array returns, not null", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})
	})
}

func TestGetRank(t *testing.T) {
	Convey("Given a ranked player", t, func() {
		svc := newMockService()
		svc.rank = types.Entry{Rank: 7, PlayerID: "dunk", Points: 12}
		mux := newTestMux(svc)

		Convey("When their rank is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/rank/dunk", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the entry returns", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var entry types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entry), ShouldBeNil)
				So(entry.Rank, ShouldEqual, 7)
				So(entry.Points, ShouldEqual, 12)
			})
		})

		Convey("When the player is unknown", func() {
			svc.rankErr = repository.ErrNotFound
			req := httptest.NewRequest(http.MethodGet, "/rank/ghost", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the store fails", func() {
			svc.rankErr = errors.New("boom")
			req := httptest.NewRequest(http.MethodGet, "/rank/dunk", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the path has no player", func() {
			req := httptest.NewRequest(http.MethodGet, "/rank/", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the path nests deeper", func() {
			req := httptest.NewRequest(http.MethodGet, "/rank/a/b", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
