package model_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	model "github.com/tolgaeren/swish/internal/domain/model"
)

func TestResult(t *testing.T) {
	Convey("Given a shot result", t, func() {
		released := time.Date(2025, 6, 1, 19, 30, 0, 0, time.UTC)
		r := model.Result{
			ResultID:   "res-1",
			PlayerID:   "player-1",
			SessionID:  "sess-1",
			Points:     3,
			Quality:    "PERFECT",
			Distance:   7.1,
			ReleasedAt: released,
		}

		Convey("Then it carries every recorded field", func() {
			So(r.ResultID, ShouldEqual, "res-1")
			So(r.PlayerID, ShouldEqual, "player-1")
			So(r.SessionID, ShouldEqual, "sess-1")
			So(r.Points, ShouldEqual, 3)
			So(r.Quality, ShouldEqual, "PERFECT")
			So(r.Distance, ShouldEqual, 7.1)
			So(r.ReleasedAt, ShouldEqual, released)
		})

		Convey("When copied by value", func() {
			c := r
			c.Points = 0

			Convey("Then the original is untouched", func() {
				So(r.Points, ShouldEqual, 3)
				So(c.Points, ShouldEqual, 0)
			})
		})
	})
}

func TestNewResultID(t *testing.T) {
	Convey("Given the result id generator", t, func() {
		Convey("When generating a batch of ids", func() {
			seen := make(map[string]bool)
			for range 64 {
				id := model.NewResultID()
				So(id, ShouldNotBeEmpty)
				So(seen[id], ShouldBeFalse)
				seen[id] = true
			}

			Convey("Then they are all distinct", func() {
				So(len(seen), ShouldEqual, 64)
			})
		})
	})
}

func TestPlayerScore(t *testing.T) {
	Convey("Given a player score", t, func() {
		s := model.PlayerScore{PlayerID: "player-9", Points: 21}

		Convey("Then it exposes the accumulated points", func() {
			So(s.PlayerID, ShouldEqual, "player-9")
			So(s.Points, ShouldEqual, 21)
		})
	})
}
