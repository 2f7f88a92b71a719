// Package storetest is the behavioural suite every repository.Store backend must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/reto/internal/adapters/repository"
	"github.com/okian/reto/internal/domain/model"
)

// waitTimeout bounds how long a watch may take to deliver a change.
const waitTimeout = 3 * time.Second

// Run exercises the Store contract against stores built by open.
// open is called once per leaf scenario and must return an empty store.
func Run(t *testing.T, open func(t *testing.T) repository.Store) {
	t.Helper()

	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := open(t)
		Reset(func() { _ = store.Close() })

		Convey("When seasons are created", func() {
			id1, err := store.CreateSeason(ctx, model.Season{Name: "Temporada 1", StartDate: "2024-01-01", DailyLimit: 2,
				Participants: []string{"ana", "kevin"}, InitialPoints: map[string]int{"ana": 0, "kevin": 3}})
			So(err, ShouldBeNil)
			id2, err := store.CreateSeason(ctx, model.Season{ID: "given-id", Name: "Temporada 2", StartDate: "2024-02-01", DailyLimit: 3})
			So(err, ShouldBeNil)

			Convey("Then ids should be assigned or kept and creation order preserved", func() {
				So(id1, ShouldNotBeEmpty)
				So(id2, ShouldEqual, "given-id")

				seasons, err := store.ListSeasons(ctx)
				So(err, ShouldBeNil)
				So(seasons, ShouldHaveLength, 2)
				So(seasons[0].ID, ShouldEqual, id1)
				So(seasons[0].Name, ShouldEqual, "Temporada 1")
				So(seasons[0].Participants, ShouldResemble, []string{"ana", "kevin"})
				So(seasons[0].InitialPoints, ShouldResemble, map[string]int{"ana": 0, "kevin": 3})
				So(seasons[1].ID, ShouldEqual, "given-id")
				So(seasons[1].DailyLimit, ShouldEqual, 3)
				So(seasons[1].Participants, ShouldBeEmpty)
			})

			Convey("Then deleting one should keep the other", func() {
				So(store.DeleteSeason(ctx, id1), ShouldBeNil)
				So(store.DeleteSeason(ctx, "missing"), ShouldBeNil)

				seasons, err := store.ListSeasons(ctx)
				So(err, ShouldBeNil)
				So(seasons, ShouldHaveLength, 1)
				So(seasons[0].ID, ShouldEqual, "given-id")
			})
		})

		Convey("When participants are upserted", func() {
			So(store.UpsertParticipants(ctx,
				model.Participant{ID: "kevin", Name: "Kevin"},
				model.Participant{ID: "ana", Name: "Ana"},
			), ShouldBeNil)
			So(store.UpsertParticipants(ctx, model.Participant{ID: "kevin", Name: "Kevin R."}), ShouldBeNil)

			Convey("Then they should be listed by id with the latest name", func() {
				ps, err := store.ListParticipants(ctx)
				So(err, ShouldBeNil)
				So(ps, ShouldResemble, []model.Participant{{ID: "ana", Name: "Ana"}, {ID: "kevin", Name: "Kevin R."}})
			})
		})

		Convey("When events are appended to two seasons", func() {
			e1, err := store.CreateEvent(ctx, "t1", model.Event{ParticipantID: "ana", Date: "2024-01-01", Points: 1})
			So(err, ShouldBeNil)
			e2, err := store.CreateEvent(ctx, "t1", model.Event{ID: "fixed", ParticipantID: "kevin", Date: "2024-01-01", Points: -2})
			So(err, ShouldBeNil)
			_, err = store.CreateEvent(ctx, "t2", model.Event{ParticipantID: "ana", Date: "2024-01-02", Points: 5})
			So(err, ShouldBeNil)

			Convey("Then each season should list its own events in order", func() {
				So(e2, ShouldEqual, "fixed")
				events, err := store.ListEvents(ctx, "t1")
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 2)
				So(events[0].ID, ShouldEqual, e1)
				So(events[0].SeasonID, ShouldEqual, "t1")
				So(events[0].Points, ShouldEqual, 1)
				So(events[1].Points, ShouldEqual, -2)

				other, err := store.ListEvents(ctx, "t2")
				So(err, ShouldBeNil)
				So(other, ShouldHaveLength, 1)
			})

			Convey("Then patching should overwrite points only", func() {
				So(store.PatchEvent(ctx, "t1", e1, 4), ShouldBeNil)
				events, _ := store.ListEvents(ctx, "t1")
				So(events[0].Points, ShouldEqual, 4)
				So(events[0].ParticipantID, ShouldEqual, "ana")
				So(events[0].Date, ShouldEqual, "2024-01-01")

				err := store.PatchEvent(ctx, "t1", "missing", 1)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then deleting one event should keep the rest", func() {
				So(store.DeleteEvent(ctx, "t1", e1), ShouldBeNil)
				So(store.DeleteEvent(ctx, "t1", "missing"), ShouldBeNil)
				events, _ := store.ListEvents(ctx, "t1")
				So(events, ShouldHaveLength, 1)
				So(events[0].ID, ShouldEqual, "fixed")
			})

			Convey("Then deleting a season's events should leave other seasons alone", func() {
				So(store.DeleteEventsForSeason(ctx, "t1"), ShouldBeNil)
				events, _ := store.ListEvents(ctx, "t1")
				So(events, ShouldBeEmpty)
				other, _ := store.ListEvents(ctx, "t2")
				So(other, ShouldHaveLength, 1)
			})
		})

		Convey("When watching seasons", func() {
			wctx, cancel := context.WithCancel(ctx)
			defer cancel()
			ch, err := store.WatchSeasons(wctx)
			So(err, ShouldBeNil)

			Convey("Then the current snapshot should arrive first and changes after", func() {
				So(receive(ch), ShouldBeEmpty)

				_, err := store.CreateSeason(ctx, model.Season{Name: "Temporada 1", StartDate: "2024-01-01", DailyLimit: 2})
				So(err, ShouldBeNil)
				So(await(ch, func(s []model.Season) bool { return len(s) == 1 }), ShouldBeTrue)
			})
		})

		Convey("When watching events", func() {
			wctx, cancel := context.WithCancel(ctx)
			defer cancel()
			ch, err := store.WatchEvents(wctx, "t1")
			So(err, ShouldBeNil)
			So(receive(ch), ShouldBeEmpty)

			Convey("Then every kind of event change should produce a snapshot", func() {
				id, err := store.CreateEvent(ctx, "t1", model.Event{ParticipantID: "ana", Date: "2024-01-01", Points: 1})
				So(err, ShouldBeNil)
				So(await(ch, func(e []model.Event) bool { return len(e) == 1 }), ShouldBeTrue)

				So(store.PatchEvent(ctx, "t1", id, 3), ShouldBeNil)
				So(await(ch, func(e []model.Event) bool { return len(e) == 1 && e[0].Points == 3 }), ShouldBeTrue)

				So(store.DeleteEventsForSeason(ctx, "t1"), ShouldBeNil)
				So(await(ch, func(e []model.Event) bool { return len(e) == 0 }), ShouldBeTrue)
			})

			Convey("Then other seasons' changes should not be needed to see our own", func() {
				_, err := store.CreateEvent(ctx, "t2", model.Event{ParticipantID: "ana", Date: "2024-01-01", Points: 1})
				So(err, ShouldBeNil)
				_, err = store.CreateEvent(ctx, "t1", model.Event{ParticipantID: "kevin", Date: "2024-01-01", Points: 2})
				So(err, ShouldBeNil)
				So(await(ch, func(e []model.Event) bool { return len(e) == 1 && e[0].ParticipantID == "kevin" }), ShouldBeTrue)
			})
		})

		Convey("When watching participants and the watch is cancelled", func() {
			wctx, cancel := context.WithCancel(ctx)
			ch, err := store.WatchParticipants(wctx)
			So(err, ShouldBeNil)
			So(receive(ch), ShouldBeEmpty)
			cancel()

			Convey("Then the channel should close", func() {
				closed := false
				deadline := time.After(waitTimeout)
				for !closed {
					select {
					case _, ok := <-ch:
						closed = !ok
					case <-deadline:
						closed = true
						So("watch did not close", ShouldBeEmpty)
					}
				}
			})
		})
	})
}

func receive[T any](ch <-chan T) T {
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		var zero T
		return zero
	}
}

// await reads snapshots until one satisfies ok or the timeout passes.
func await[T any](ch <-chan T, ok func(T) bool) bool {
	deadline := time.After(waitTimeout)
	for {
		select {
		case v, open := <-ch:
			if !open {
				return false
			}
			if ok(v) {
				return true
			}
		case <-deadline:
			return false
		}
	}
}
