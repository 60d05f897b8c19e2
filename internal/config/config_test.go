package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/tagboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it validates and exposes durations", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.TickInterval(), convey.ShouldEqual, time.Second)
			convey.So(cfg.ReloadInterval(), convey.ShouldEqual, time.Duration(0))
			convey.So(cfg.FetchTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(len(cfg.Roster), convey.ShouldEqual, 13)
		})

		convey.Convey("Then the roster is a copy", func() {
			cfg.Roster[0] = "changed"
			convey.So(config.DefaultRoster[0], convey.ShouldEqual, "Tomas Magula")
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configs", t, func() {
		cases := map[string]func(*config.Config){
			"no source":     func(c *config.Config) { c.SourceURL, c.SourcePath = "", "" },
			"empty roster":  func(c *config.Config) { c.Roster = nil },
			"zero year":     func(c *config.Config) { c.ReferenceYear = 0 },
			"zero tick":     func(c *config.Config) { c.TickIntervalMS = 0 },
			"negative rule": func(c *config.Config) { c.PenaltyPerHour = -1 },
			"zero queue":    func(c *config.Config) { c.QueueSize = 0 },
		}
		for name, mutate := range cases {
			convey.Convey("When "+name, func() {
				cfg := config.New()
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
