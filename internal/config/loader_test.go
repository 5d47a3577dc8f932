package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/medrift/medrift/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad_Defaults(t *testing.T) {
	Convey("Given no file and no env overrides", t, func() {
		os.Unsetenv("MEDRIFT_CONFIG")

		cfg, err := config.Load(context.Background())

		Convey("Then the defaults should come through", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8080")
			So(cfg.WindowSeconds, ShouldEqual, 300)
		})
	})
}

func TestLoad_EnvOverrides(t *testing.T) {
	Convey("Given env overrides", t, func() {
		t.Setenv("MEDRIFT_ADDR", ":9090")
		t.Setenv("MEDRIFT_QUEUE_SIZE", "123")
		t.Setenv("MEDRIFT_WINDOW_SECONDS", "600")

		cfg, err := config.Load(context.Background())

		Convey("Then env values should take precedence over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9090")
			So(cfg.QueueSize, ShouldEqual, 123)
			So(cfg.WindowSeconds, ShouldEqual, 600)
		})
	})
}

func TestLoad_YAMLFile(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "medrift.yaml")
		yaml := "addr: \":7070\"\nworker_count: 8\nstate_file: \"\"\n"
		So(os.WriteFile(path, []byte(yaml), 0o644), ShouldBeNil)
		t.Setenv("MEDRIFT_CONFIG", path)

		cfg, err := config.Load(context.Background())

		Convey("Then file values should take precedence over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.WorkerCount, ShouldEqual, 8)
			So(cfg.StateFile, ShouldEqual, "")
		})
	})
}

func TestLoad_Validation(t *testing.T) {
	Convey("Given invalid overrides", t, func() {
		t.Setenv("MEDRIFT_QUEUE_SIZE", "0")

		_, err := config.Load(context.Background())

		Convey("Then load should fail with ErrInvalidConfig", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
