package config_test

import (
	"errors"
	"testing"

	"github.com/okian/draftnexus/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.RosterSource, convey.ShouldEqual, config.SourceFile)
			convey.So(cfg.ScoringRuntime, convey.ShouldEqual, config.RuntimeONNX)
			convey.So(cfg.TopK, convey.ShouldEqual, 5)
			convey.So(cfg.RedisStream, convey.ShouldEqual, "draft:recommendations")
			convey.So(cfg.SerializeScoring, convey.ShouldBeTrue)
			convey.So(cfg.InferenceTimeoutMS, convey.ShouldEqual, 2000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New()

		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero top_k", func(c *config.Config) { c.TopK = 0 }},
			{"negative inference timeout", func(c *config.Config) { c.InferenceTimeoutMS = -1 }},
			{"inverted latency range", func(c *config.Config) { c.ScoringLatencyMinMS, c.ScoringLatencyMaxMS = 30, 10 }},
			{"unknown runtime", func(c *config.Config) { c.ScoringRuntime = "tensorflow" }},
			{"onnx without model", func(c *config.Config) { c.ModelPath = "" }},
			{"unknown roster source", func(c *config.Config) { c.RosterSource = "s3" }},
			{"file source without path", func(c *config.Config) { c.RosterPath = "" }},
			{"postgres without dsn", func(c *config.Config) { c.RosterSource = config.SourcePostgres }},
		}

		for _, tc := range cases {
			convey.Convey("When it has "+tc.name, func() {
				tc.mutate(cfg)

				convey.Convey("Then Validate returns ErrInvalidConfig", func() {
					err := cfg.Validate()
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the simulated runtime has no model path", func() {
			cfg.ScoringRuntime = config.RuntimeSimulated
			cfg.ModelPath = ""

			convey.Convey("Then it is still valid", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}

func TestConfig_Origins(t *testing.T) {
	convey.Convey("Given a comma separated origin list", t, func() {
		cfg := config.New()
		cfg.CORSOrigins = " http://a.test , ,http://b.test"

		convey.So(cfg.Origins(), convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
	})
}
