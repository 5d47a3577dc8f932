package config_test

import (
	"testing"

	"github.com/medrift/medrift/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			convey.So(cfg.WindowSeconds, convey.ShouldEqual, 300)
			convey.So(cfg.AdmitTimeoutMS, convey.ShouldEqual, 50)
			convey.So(cfg.PersistIntervalSeconds, convey.ShouldEqual, 15)
			convey.So(cfg.StateFile, convey.ShouldEqual, "data/state.json")
			convey.So(len(cfg.FeatureWeights), convey.ShouldEqual, 3)
		})
	})
}
