package model

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSeason(t *testing.T) {
	Convey("Given a season", t, func() {
		s := Season{ID: "t1", Participants: []string{"ana", "kevin"}, InitialPoints: map[string]int{"kevin": 5}}

		Convey("Then it should enroll only its snapshot", func() {
			So(s.HasSnapshot(), ShouldBeTrue)
			So(s.Enrolls("ana"), ShouldBeTrue)
			So(s.Enrolls("laura"), ShouldBeFalse)
		})

		Convey("Then initial points should default to zero", func() {
			So(s.Initial("kevin"), ShouldEqual, 5)
			So(s.Initial("ana"), ShouldEqual, 0)
		})

		Convey("When the snapshot is empty", func() {
			open := Season{ID: "t2"}

			Convey("Then everyone should be enrolled", func() {
				So(open.HasSnapshot(), ShouldBeFalse)
				So(open.Enrolls("anyone"), ShouldBeTrue)
			})
		})

		Convey("Then FindSeason should locate it by id", func() {
			found, ok := FindSeason([]Season{{ID: "x"}, s}, "t1")
			So(ok, ShouldBeTrue)
			So(found.ID, ShouldEqual, "t1")
			_, ok = FindSeason(nil, "t1")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestEventsAndRoster(t *testing.T) {
	Convey("Given events for two participants", t, func() {
		events := []Event{
			{ParticipantID: "a", Points: 1},
			{ParticipantID: "b", Points: 3},
			{ParticipantID: "a", Points: -2},
		}

		Convey("Then SumFor should add only matching events", func() {
			So(SumFor(events, "a"), ShouldEqual, -1)
			So(SumFor(events, "b"), ShouldEqual, 3)
			So(SumFor(events, "c"), ShouldEqual, 0)
		})
	})

	Convey("Given a roster", t, func() {
		roster := []Participant{{ID: "kevin", Name: "Kevin"}}

		Convey("Then NameOf should fall back to the id", func() {
			So(NameOf(roster, "kevin"), ShouldEqual, "Kevin")
			So(NameOf(roster, "ghost"), ShouldEqual, "ghost")
		})
	})
}

func TestDates(t *testing.T) {
	Convey("Given calendar dates", t, func() {
		Convey("Then a blank date should become today", func() {
			So(NormalizeDate("  "), ShouldEqual, time.Now().Format(DateLayout))
			So(NormalizeDate(" 2024-01-02 "), ShouldEqual, "2024-01-02")
		})

		Convey("Then only YYYY-MM-DD should be valid", func() {
			So(ValidDate("2024-02-29"), ShouldBeTrue)
			So(ValidDate("2023-02-29"), ShouldBeFalse)
			So(ValidDate("02/01/2024"), ShouldBeFalse)
			So(ValidDate(Today()), ShouldBeTrue)
		})
	})
}
