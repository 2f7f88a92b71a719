package roster_test

import (
	"strings"
	"testing"

	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/roster"
	"github.com/smartystreets/goconvey/convey"
)

func TestDeriveID(t *testing.T) {
	convey.Convey("Given display names", t, func() {
		cases := map[string]string{
			"José A.":          "jose-a",
			"Kevin":            "kevin",
			"  María  José ":   "maria-jose",
			"Ñandú_99":         "nandu-99",
			"--Zoë--":          "zoe",
			"Ana & Bea (team)": "ana-bea-team",
		}
		for name, want := range cases {
			convey.So(roster.DeriveID(name), convey.ShouldEqual, want)
		}
	})

	convey.Convey("Given a name with no usable characters", t, func() {
		id := roster.NewID("!!!")

		convey.Convey("Then a fallback id should be generated", func() {
			convey.So(roster.DeriveID("!!!"), convey.ShouldBeEmpty)
			convey.So(id, convey.ShouldStartWith, roster.FallbackPrefix)
			convey.So(len(id), convey.ShouldBeGreaterThan, len(roster.FallbackPrefix))
			convey.So(roster.NewID("!!!"), convey.ShouldNotEqual, id)
		})
	})

	convey.Convey("Given a sluggable name", t, func() {
		convey.Convey("Then NewID should be deterministic", func() {
			convey.So(roster.NewID("José A."), convey.ShouldEqual, roster.NewID("jose a"))
		})
	})
}

func TestNormalize(t *testing.T) {
	convey.Convey("Given names to add", t, func() {
		name, ok := roster.Normalize("  Laura ")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(name, convey.ShouldEqual, "Laura")

		_, ok = roster.Normalize(" \t ")
		convey.So(ok, convey.ShouldBeFalse)
	})
}

func TestFromMap(t *testing.T) {
	convey.Convey("Given a default roster map", t, func() {
		ps := roster.FromMap(map[string]string{"kevin": "Kevin", "ana": "Ana", "david": "David"})

		convey.Convey("Then participants should be sorted by id", func() {
			convey.So(strings.Join(roster.IDs(ps), ","), convey.ShouldEqual, "ana,david,kevin")
			convey.So(ps[0].Name, convey.ShouldEqual, "Ana")
		})
	})
}

func TestFilterForSeason(t *testing.T) {
	convey.Convey("Given a roster", t, func() {
		all := []model.Participant{{ID: "ana"}, {ID: "david"}, {ID: "kevin"}}

		convey.Convey("When the season has a snapshot", func() {
			s := model.Season{Participants: []string{"kevin", "ana", "ghost"}}
			got := roster.FilterForSeason(s, all)

			convey.Convey("Then only enrolled roster members should remain in roster order", func() {
				convey.So(roster.IDs(got), convey.ShouldResemble, []string{"ana", "kevin"})
			})
		})

		convey.Convey("When the season has no snapshot", func() {
			got := roster.FilterForSeason(model.Season{}, all)

			convey.Convey("Then the full roster should be used", func() {
				convey.So(got, convey.ShouldResemble, all)
			})
		})
	})
}
