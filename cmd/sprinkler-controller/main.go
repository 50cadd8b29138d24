package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thatsimonsguy/sprinkler-controller/db"
	"github.com/thatsimonsguy/sprinkler-controller/internal/api"
	"github.com/thatsimonsguy/sprinkler-controller/internal/command"
	"github.com/thatsimonsguy/sprinkler-controller/internal/config"
	"github.com/thatsimonsguy/sprinkler-controller/internal/datadog"
	"github.com/thatsimonsguy/sprinkler-controller/internal/env"
	"github.com/thatsimonsguy/sprinkler-controller/internal/influxdb"
	"github.com/thatsimonsguy/sprinkler-controller/internal/logging"
	"github.com/thatsimonsguy/sprinkler-controller/internal/monitor"
	"github.com/thatsimonsguy/sprinkler-controller/internal/mqtt"
	"github.com/thatsimonsguy/sprinkler-controller/internal/notifications"
	"github.com/thatsimonsguy/sprinkler-controller/internal/opensprinkler"
	"github.com/thatsimonsguy/sprinkler-controller/system/shutdown"
	"github.com/thatsimonsguy/sprinkler-controller/system/startup"
)

func main() {
	cfg := config.Load()
	env.Cfg = &cfg
	logging.Init(cfg.LogLevel, cfg.LogFile)

	if cfg.InstallService {
		if err := startup.InstallService(); err != nil {
			shutdown.ShutdownWithError(err, "Failed to install systemd unit")
		}
		log.Info().Str("path", cfg.Service.UnitPath).Msg("Installed systemd unit")
		return
	}

	log.Info().
		Str("device", cfg.Device.BaseURL()).
		Str("db", cfg.DBPath).
		Int("poll_interval_seconds", cfg.PollIntervalSeconds).
		Msg("Starting sprinkler controller")

	notifications.Init()
	datadog.InitMetrics()

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to open database")
	}
	shutdown.OnShutdown(func() { dbConn.Close() })
	if err := db.ApplyMigrations(dbConn); err != nil {
		shutdown.ShutdownWithError(err, "Failed to apply migrations")
	}

	client := opensprinkler.New(cfg.Device.BaseURL(), cfg.Device.Password,
		time.Duration(cfg.Device.RequestTimeoutSeconds)*time.Second)

	var publisher monitor.Publisher
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			log.Warn().Err(err).Str("broker", cfg.MQTT.Broker).Msg("MQTT unavailable, state will not be published")
		} else {
			publisher = p
			shutdown.OnShutdown(p.Close)
		}
	}

	var points monitor.PointWriter
	if cfg.InfluxDB.URL != "" {
		w, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.InfluxDB.URL).Msg("InfluxDB unavailable, history will not be written")
		} else {
			points = w
			shutdown.OnShutdown(w.Close)
		}
	}

	mon := monitor.NewService(dbConn, client, publisher, points)
	server := api.NewServer(dbConn, mon, command.NewDispatcher(client, mon))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mon.Run(ctx) })
	g.Go(func() error { return server.Start(ctx, cfg.APIPort) })

	if err := g.Wait(); err != nil {
		shutdown.ShutdownWithError(err, "Sprinkler controller failed")
	}
	shutdown.Shutdown()
}
