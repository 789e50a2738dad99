package types_test

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	types "github.com/tolgaeren/swish/internal/domain/types"
)

func TestEntry(t *testing.T) {
	Convey("Given a leaderboard entry", t, func() {
		e := types.Entry{Rank: 2, PlayerID: "player-7", Points: 18}

		Convey("When marshaled to JSON", func() {
			data, err := json.Marshal(e)

			Convey("Then it uses the wire field names", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"rank":2,"player_id":"player-7","points":18}`)
			})
		})

		Convey("When decoded from the wire form", func() {
			var got types.Entry
			err := json.Unmarshal([]byte(`{"rank":1,"player_id":"player-1","points":33}`), &got)

			Convey("Then every field lands", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, types.Entry{Rank: 1, PlayerID: "player-1", Points: 33})
			})
		})
	})
}
