package influxdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/sprinkler-controller/internal/config"
	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
)

const pingTimeout = 5 * time.Second

var ErrConnectionFailed = errors.New("influxdb: connection failed")

// pointWriter is the subset of api.WriteAPI used here.
type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// Writer records station status and controller state as time series.
// Writes are non-blocking and batched by the client library.
type Writer struct {
	client   influxdb2.Client
	writeAPI pointWriter
}

func Connect(cfg config.InfluxDB) (*Writer, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			log.Warn().Err(err).Msg("InfluxDB write failed")
		}
	}()

	log.Info().Str("url", cfg.URL).Str("bucket", cfg.Bucket).Msg("InfluxDB writer connected")
	return &Writer{client: client, writeAPI: writeAPI}, nil
}

func NewWriter(w pointWriter) *Writer {
	return &Writer{writeAPI: w}
}

// WriteController writes one station_status point per station and one
// controller point, all stamped ts.
func (w *Writer) WriteController(c *model.Controller, ts time.Time) {
	for _, s := range c.Stations() {
		w.writeAPI.WritePoint(write.NewPoint(
			"station_status",
			map[string]string{
				"station": strconv.Itoa(s.Index),
				"name":    s.Name,
			},
			map[string]interface{}{
				"status":   s.Status,
				"disabled": s.Disabled,
			},
			ts,
		))
	}

	running := 0
	for _, s := range c.Stations() {
		if s.Running() {
			running++
		}
	}
	w.writeAPI.WritePoint(write.NewPoint(
		"controller",
		map[string]string{"firmware": c.FirmwareVersion()},
		map[string]interface{}{
			"enabled":          c.Enabled(),
			"stations_running": running,
		},
		ts,
	))
}

func (w *Writer) Close() {
	w.writeAPI.Flush()
	if w.client != nil {
		w.client.Close()
	}
}
