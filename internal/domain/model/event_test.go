package model_test

import (
	"encoding/json"
	"testing"

	"github.com/medrift/medrift/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScoredPointJSON(t *testing.T) {
	Convey("Given a scored point", t, func() {
		p := model.ScoredPoint{Timestamp: 1700000000, Score: 0.4375}

		Convey("When marshalled", func() {
			b, err := json.Marshal(p)
			So(err, ShouldBeNil)

			Convey("Then it should be a [timestamp, score] pair", func() {
				So(string(b), ShouldEqual, "[1700000000,0.4375]")
			})

			Convey("And it should round-trip exactly", func() {
				var got model.ScoredPoint
				So(json.Unmarshal(b, &got), ShouldBeNil)
				So(got.Timestamp, ShouldEqual, p.Timestamp)
				So(got.Score, ShouldEqual, p.Score)
			})
		})
	})

	Convey("Given a window of points", t, func() {
		window := []model.ScoredPoint{
			{Timestamp: 100, Score: 1.5},
			{Timestamp: 200, Score: -2.25},
		}

		Convey("When marshalled and unmarshalled", func() {
			b, err := json.Marshal(window)
			So(err, ShouldBeNil)

			var got []model.ScoredPoint
			So(json.Unmarshal(b, &got), ShouldBeNil)
			So(got, ShouldResemble, window)
		})
	})

	Convey("Given malformed pair data", t, func() {
		Convey("Then unmarshal should fail", func() {
			var p model.ScoredPoint
			So(json.Unmarshal([]byte(`{"ts":1}`), &p), ShouldNotBeNil)
			So(json.Unmarshal([]byte(`["a",2]`), &p), ShouldNotBeNil)
		})
	})
}

func TestEventJSON(t *testing.T) {
	Convey("Given an ingest event payload", t, func() {
		raw := `{"user_id":"u1","timestamp":1700000000,"features":[0.1,0.2,0.3]}`

		Convey("When decoded", func() {
			var e model.Event
			So(json.Unmarshal([]byte(raw), &e), ShouldBeNil)
			So(e.UserID, ShouldEqual, "u1")
			So(e.Timestamp, ShouldEqual, 1700000000)
			So(len(e.Features), ShouldEqual, 3)
		})
	})
}
