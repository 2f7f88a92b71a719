package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/reto/internal/adapters/repository"
	"github.com/okian/reto/internal/adapters/repository/storetest"
	"github.com/okian/reto/internal/domain/model"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "reto.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return openTempStore(t)
	})
}

func TestOpen(t *testing.T) {
	Convey("Given store paths", t, func() {
		Convey("When the path is empty", func() {
			_, err := Open(context.Background(), " ")

			Convey("Then Open should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When a database is reopened", func() {
			path := filepath.Join(t.TempDir(), "reto.db")
			ctx := context.Background()

			first, err := Open(ctx, path)
			So(err, ShouldBeNil)
			id, err := first.CreateSeason(ctx, model.Season{Name: "Temporada 1", StartDate: "2024-01-01", DailyLimit: 2})
			So(err, ShouldBeNil)
			_, err = first.CreateEvent(ctx, id, model.Event{ParticipantID: "ana", Date: "2024-01-01", Points: 1})
			So(err, ShouldBeNil)
			So(first.Close(), ShouldBeNil)

			second, err := Open(ctx, path)
			So(err, ShouldBeNil)
			defer func() { _ = second.Close() }()

			Convey("Then migrations should not re-run and data should survive", func() {
				var applied int
				So(second.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+migrationTable).Scan(&applied), ShouldBeNil)
				So(applied, ShouldEqual, 1)

				seasons, err := second.ListSeasons(ctx)
				So(err, ShouldBeNil)
				So(seasons, ShouldHaveLength, 1)
				So(seasons[0].ID, ShouldEqual, id)

				events, err := second.ListEvents(ctx, id)
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
			})
		})
	})
}

func TestExtractUp(t *testing.T) {
	Convey("Given a migration with up and down sections", t, func() {
		up := extractUp("-- +migrate Up\nCREATE TABLE a (x);\n-- +migrate Down\nDROP TABLE a;\n")

		Convey("Then only the up section should be returned", func() {
			So(up, ShouldContainSubstring, "CREATE TABLE a")
			So(up, ShouldNotContainSubstring, "DROP TABLE")
		})
	})

	Convey("Given a migration without markers", t, func() {
		So(extractUp("CREATE TABLE b (y);"), ShouldEqual, "CREATE TABLE b (y);")
	})
}
