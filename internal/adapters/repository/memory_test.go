package repository_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/reto/internal/adapters/repository"
	"github.com/okian/reto/internal/adapters/repository/storetest"
	"github.com/okian/reto/internal/domain/model"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) repository.Store {
		return repository.NewMemoryStore()
	})
}

func TestMemoryStoreOptions(t *testing.T) {
	Convey("Given a memory store with fixed ids and clock", t, func() {
		at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		n := 0
		store := repository.NewMemoryStore(
			repository.WithIDGenerator(func() string { n++; return "id-" + string(rune('0'+n)) }),
			repository.WithClock(func() time.Time { return at }),
		)
		ctx := context.Background()

		Convey("When records are created", func() {
			sid, _ := store.CreateSeason(ctx, model.Season{Name: "T"})
			eid, _ := store.CreateEvent(ctx, sid, model.Event{ParticipantID: "a", Points: 1})

			Convey("Then the generator and clock should be used", func() {
				So(sid, ShouldEqual, "id-1")
				So(eid, ShouldEqual, "id-2")
				seasons, _ := store.ListSeasons(ctx)
				So(seasons[0].CreatedAt, ShouldEqual, at)
			})
		})

		Convey("When a listed season is modified by the caller", func() {
			_, _ = store.CreateSeason(ctx, model.Season{Name: "T", Participants: []string{"a"}})
			seasons, _ := store.ListSeasons(ctx)
			seasons[0].Participants[0] = "mutated"

			Convey("Then the stored copy should be untouched", func() {
				again, _ := store.ListSeasons(ctx)
				So(again[0].Participants[0], ShouldEqual, "a")
			})
		})

		Convey("When the store is closed", func() {
			So(store.Close(), ShouldBeNil)

			Convey("Then every call should fail with ErrClosed", func() {
				_, err := store.ListSeasons(ctx)
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
				_, err = store.CreateEvent(ctx, "t", model.Event{})
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
			})
		})
	})
}

func TestHub(t *testing.T) {
	Convey("Given a hub with two subscribers on one topic", t, func() {
		hub := repository.NewHub()
		a, cancelA := hub.Subscribe("seasons")
		b, cancelB := hub.Subscribe("seasons")
		defer cancelB()

		Convey("When several changes are published before anyone reads", func() {
			hub.Publish("seasons")
			hub.Publish("seasons")
			hub.Publish("participants")

			Convey("Then each subscriber should see exactly one coalesced signal", func() {
				So(len(a), ShouldEqual, 1)
				So(len(b), ShouldEqual, 1)
			})
		})

		Convey("When a subscriber cancels", func() {
			cancelA()
			cancelA()

			Convey("Then its channel should be closed and others unaffected", func() {
				_, ok := <-a
				So(ok, ShouldBeFalse)
				hub.Publish("seasons")
				So(len(b), ShouldEqual, 1)
			})
		})

		Convey("When the hub closes", func() {
			hub.Close()

			Convey("Then subscriptions should end and new ones start closed", func() {
				_, ok := <-b
				So(ok, ShouldBeFalse)
				c, _ := hub.Subscribe("seasons")
				_, ok = <-c
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestWatchLatestWins(t *testing.T) {
	Convey("Given a watch whose reader falls behind", t, func() {
		hub := repository.NewHub()
		var version atomic.Int32
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := repository.Watch(ctx, hub, "seasons", func(context.Context) (int32, error) {
			return version.Add(1), nil
		})
		So(err, ShouldBeNil)
		So(<-ch, ShouldEqual, int32(1))

		Convey("When many changes happen", func() {
			for i := 0; i < 5; i++ {
				hub.Publish("seasons")
				time.Sleep(10 * time.Millisecond)
			}

			Convey("Then the reader should see the newest snapshot", func() {
				var last int32
				deadline := time.After(2 * time.Second)
				for last != version.Load() {
					select {
					case last = <-ch:
					case <-deadline:
						So(last, ShouldEqual, version.Load())
						return
					}
				}
				So(last, ShouldBeGreaterThan, int32(1))
			})
		})
	})

	Convey("Given a loader that fails", t, func() {
		hub := repository.NewHub()
		_, err := repository.Watch(context.Background(), hub, "x", func(context.Context) (int, error) {
			return 0, errors.New("down")
		})

		Convey("Then Watch should return the error", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "down")
		})
	})
}
