package adjust_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/reto/internal/domain/adjust"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCorrection(t *testing.T) {
	Convey("Given a participant with a total of 7", t, func() {
		Convey("When correcting to 5", func() {
			delta, write, err := adjust.Correction(5, 7)

			Convey("Then a -2 compensating event should be written", func() {
				So(err, ShouldBeNil)
				So(write, ShouldBeTrue)
				So(delta, ShouldEqual, -2)
			})
		})

		Convey("When correcting to 12", func() {
			delta, write, err := adjust.Correction(12, 7)

			Convey("Then a +5 event should be written", func() {
				So(err, ShouldBeNil)
				So(write, ShouldBeTrue)
				So(delta, ShouldEqual, 5)
			})
		})

		Convey("When correcting to the same total", func() {
			_, write, err := adjust.Correction(7, 7)

			Convey("Then nothing should be written", func() {
				So(err, ShouldBeNil)
				So(write, ShouldBeFalse)
			})
		})

		Convey("When the target is invalid", func() {
			for _, v := range []float64{-1, math.NaN(), math.Inf(1), 2.5} {
				_, write, err := adjust.Correction(v, 7)
				So(errors.Is(err, adjust.ErrInvalidTotal), ShouldBeTrue)
				So(write, ShouldBeFalse)
			}
		})

		Convey("When the target is zero", func() {
			delta, write, err := adjust.Correction(0, 7)

			Convey("Then it should zero the total", func() {
				So(err, ShouldBeNil)
				So(write, ShouldBeTrue)
				So(delta, ShouldEqual, -7)
			})
		})
	})
}

func TestBoost(t *testing.T) {
	Convey("Given boost amounts", t, func() {
		p, err := adjust.Boost(11)
		So(err, ShouldBeNil)
		So(p, ShouldEqual, 11)

		for _, v := range []float64{0, -3, 1.5, math.NaN()} {
			_, err := adjust.Boost(v)
			So(errors.Is(err, adjust.ErrInvalidPoints), ShouldBeTrue)
		}
	})
}

func TestEditPoints(t *testing.T) {
	Convey("Given history edits", t, func() {
		p, ok := adjust.EditPoints(0)
		So(ok, ShouldBeTrue)
		So(p, ShouldEqual, 0)

		p, ok = adjust.EditPoints(4)
		So(ok, ShouldBeTrue)
		So(p, ShouldEqual, 4)

		for _, v := range []float64{-1, 1.2, math.NaN(), math.Inf(-1)} {
			_, ok := adjust.EditPoints(v)
			So(ok, ShouldBeFalse)
		}
	})
}
