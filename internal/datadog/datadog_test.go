package datadog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
	"github.com/thatsimonsguy/sprinkler-controller/internal/registry"
	"github.com/thatsimonsguy/sprinkler-controller/internal/snapshot"
)

type gaugeCall struct {
	name  string
	value float64
	tags  []string
}

type recordingClient struct {
	calls []gaugeCall
}

func (r *recordingClient) Gauge(name string, value float64, tags []string, _ float64) error {
	r.calls = append(r.calls, gaugeCall{name: name, value: value, tags: tags})
	return nil
}

func TestReportController(t *testing.T) {
	rec := &recordingClient{}
	dogstatsd = rec
	t.Cleanup(func() { dogstatsd = nil })

	c := model.NewController(registry.Resolve(snapshot.Snapshot{}), true, []model.Station{
		{Index: 0, Name: "Front Lawn", Status: 1},
		{Index: 1, Name: "Beds"},
	}, nil)

	ReportController(c)

	assert.Equal(t, []gaugeCall{
		{name: "controller.enabled", value: 1},
		{name: "controller.stations", value: 2},
		{name: "controller.programs", value: 0},
		{name: "station.status", value: 1, tags: []string{"station:Front Lawn"}},
		{name: "station.status", value: 0, tags: []string{"station:Beds"}},
		{name: "controller.stations_running", value: 1},
	}, rec.calls)
}

func TestGauge_NoClient(t *testing.T) {
	dogstatsd = nil
	assert.NotPanics(t, func() { Gauge("controller.enabled", 1) })
}
