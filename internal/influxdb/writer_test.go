package influxdb

import (
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
	"github.com/thatsimonsguy/sprinkler-controller/internal/registry"
	"github.com/thatsimonsguy/sprinkler-controller/internal/snapshot"
)

type capturingWriter struct {
	lines   []string
	flushed bool
}

func (c *capturingWriter) WritePoint(p *write.Point) {
	c.lines = append(c.lines, strings.TrimSpace(write.PointToLineProtocol(p, time.Second)))
}

func (c *capturingWriter) Flush() { c.flushed = true }

func TestWriteController(t *testing.T) {
	cw := &capturingWriter{}
	w := NewWriter(cw)

	c := model.NewController(registry.Resolve(snapshot.Snapshot{}), true, []model.Station{
		{Index: 0, Name: "Front", Status: 1},
		{Index: 1, Name: "Beds", Disabled: true},
	}, nil)
	ts := time.Unix(1780000000, 0)

	w.WriteController(c, ts)

	require.Len(t, cw.lines, 3)
	assert.Equal(t, "station_status,name=Front,station=0 disabled=false,status=1i 1780000000", cw.lines[0])
	assert.Equal(t, "station_status,name=Beds,station=1 disabled=true,status=0i 1780000000", cw.lines[1])
	assert.Contains(t, cw.lines[2], "controller,firmware=")
	assert.Contains(t, cw.lines[2], "enabled=true,stations_running=1i")

	w.Close()
	assert.True(t, cw.flushed)
}
