package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/bookarena/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFile, convey.ShouldEqual, "bookarena.log")
			convey.So(cfg.DBPath, convey.ShouldEqual, "data/books.db")
			convey.So(cfg.BackupDir, convey.ShouldEqual, "backup")
			convey.So(cfg.BackupKeep, convey.ShouldEqual, 5)
			convey.So(cfg.ExportDir, convey.ShouldEqual, "exports")
			convey.So(cfg.InitialPageSize, convey.ShouldEqual, 100)
			convey.So(cfg.PageSize, convey.ShouldEqual, 50)
			convey.So(cfg.MaxRankingsLimit, convey.ShouldEqual, 1000)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New(context.Background())

		cases := map[string]func(*config.Config){
			"backup_keep":        func(c *config.Config) { c.BackupKeep = 0 },
			"page sizes":         func(c *config.Config) { c.PageSize = 0 },
			"max_rankings_limit": func(c *config.Config) { c.MaxRankingsLimit = -1 },
			"addr":               func(c *config.Config) { c.Addr = " " },
			"color":              func(c *config.Config) { c.Color = "sometimes" },
			"log_level":          func(c *config.Config) { c.LogLevel = "loud" },
		}
		for field, breakIt := range cases {
			convey.Convey("When "+field+" is invalid", func() {
				breakIt(cfg)
				err := cfg.Validate()

				convey.Convey("Then it names the field", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, field)
				})
			})
		}
	})
}

func TestConfig_UseColor(t *testing.T) {
	convey.Convey("Given each color mode", t, func() {
		cfg := config.New(context.Background())

		cfg.Color = config.ColorAuto
		convey.So(cfg.UseColor(true), convey.ShouldBeTrue)
		convey.So(cfg.UseColor(false), convey.ShouldBeFalse)

		cfg.Color = config.ColorAlways
		convey.So(cfg.UseColor(false), convey.ShouldBeTrue)

		cfg.Color = config.ColorNever
		convey.So(cfg.UseColor(true), convey.ShouldBeFalse)
	})

	convey.Convey("Given a fixed seed", t, func() {
		cfg := config.New(context.Background())
		cfg.Seed = 11
		convey.So(cfg.RandSeed(), convey.ShouldEqual, 11)
	})
}
