package datadog

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/sprinkler-controller/internal/env"
	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
)

// statsdClient is the subset of *statsd.Client used here.
type statsdClient interface {
	Gauge(name string, value float64, tags []string, rate float64) error
}

var dogstatsd statsdClient

func InitMetrics() {
	if !env.Cfg.EnableDatadog {
		return
	}

	client, err := statsd.New(env.Cfg.DDAgentAddr)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client")
		return
	}

	client.Namespace = env.Cfg.DDNamespace
	client.Tags = env.Cfg.DDTags
	dogstatsd = client

	log.Info().
		Str("addr", env.Cfg.DDAgentAddr).
		Str("namespace", env.Cfg.DDNamespace).
		Strs("tags", env.Cfg.DDTags).
		Msg("Datadog metrics initialized")
}

func Gauge(name string, value float64, tags ...string) {
	if dogstatsd != nil {
		err := dogstatsd.Gauge(name, value, tags, 1)
		if err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
		}
	}
}

// ReportController emits one gauge per station plus controller totals.
func ReportController(c *model.Controller) {
	enabled := 0.0
	if c.Enabled() {
		enabled = 1
	}
	Gauge("controller.enabled", enabled)
	Gauge("controller.stations", float64(c.NumStations()))
	Gauge("controller.programs", float64(c.NumPrograms()))

	running := 0
	for _, s := range c.Stations() {
		if s.Running() {
			running++
		}
		Gauge("station.status", float64(s.Status), "station:"+s.Name)
	}
	Gauge("controller.stations_running", float64(running))
}
