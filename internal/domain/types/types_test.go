package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/scoring"
	types "github.com/okian/reto/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromStandings(t *testing.T) {
	Convey("Given computed standings", t, func() {
		standings := []scoring.Standing{
			{Participant: model.Participant{ID: "b", Name: "Bea"}, Total: 10, Rank: 1, Badge: scoring.BadgeGold},
			{Participant: model.Participant{ID: "c", Name: "Carl"}, Total: 0},
		}

		Convey("When converting them to entries", func() {
			entries := types.FromStandings(standings)

			Convey("Then ranked rows should carry a rank and unranked rows null", func() {
				So(*entries[0].Rank, ShouldEqual, 1)
				So(entries[0].Badge, ShouldEqual, "gold")
				So(entries[1].Rank, ShouldBeNil)

				raw, err := json.Marshal(entries[1])
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, `"rank":null`)
				So(string(raw), ShouldNotContainSubstring, "badge")
			})
		})
	})
}

func TestFromSeason(t *testing.T) {
	Convey("Given a season without a snapshot", t, func() {
		s := types.FromSeason(model.Season{ID: "t1", Name: "Temporada 1", DailyLimit: 2})

		Convey("Then collections should be empty rather than null", func() {
			So(s.Participants, ShouldNotBeNil)
			So(s.InitialPoints, ShouldNotBeNil)
			So(types.FromSeasons([]model.Season{{ID: "a"}, {ID: "b"}}), ShouldHaveLength, 2)
		})
	})
}
