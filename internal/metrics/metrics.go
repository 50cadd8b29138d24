package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
)

const namespace = "sprinkler"

var (
	controllerEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "controller_enabled",
		Help:      "1 when controller operation is enabled",
	})

	stationStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_status",
			Help:      "Current station status (1 = open)",
		},
		[]string{"station", "name"},
	)

	programsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "programs",
		Help:      "Number of programs stored on the controller",
	})

	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Snapshot polls by result",
		},
		[]string{"result"},
	)

	pollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_duration_seconds",
		Help:      "Time to fetch and decode one snapshot",
		Buckets:   prometheus.DefBuckets,
	})

	lastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_successful_poll_timestamp_seconds",
		Help:      "Unix time of the last successful poll",
	})

	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Device commands issued through the API",
		},
		[]string{"command", "result"},
	)
)

// ObserveController records the state carried by a decoded snapshot.
func ObserveController(c *model.Controller) {
	if c.Enabled() {
		controllerEnabled.Set(1)
	} else {
		controllerEnabled.Set(0)
	}

	stationStatus.Reset()
	for _, s := range c.Stations() {
		stationStatus.WithLabelValues(strconv.Itoa(s.Index), s.Name).Set(float64(s.Status))
	}
	programsTotal.Set(float64(c.NumPrograms()))
}

func ObservePoll(duration time.Duration, err error) {
	pollDuration.Observe(duration.Seconds())
	if err != nil {
		pollsTotal.WithLabelValues("error").Inc()
		return
	}
	pollsTotal.WithLabelValues("ok").Inc()
	lastSuccess.SetToCurrentTime()
}

func ObserveCommand(command string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	commandsTotal.WithLabelValues(command, result).Inc()
}
