package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/sprinkler-controller/db"
	"github.com/thatsimonsguy/sprinkler-controller/internal/datadog"
	"github.com/thatsimonsguy/sprinkler-controller/internal/decode"
	"github.com/thatsimonsguy/sprinkler-controller/internal/env"
	"github.com/thatsimonsguy/sprinkler-controller/internal/metrics"
	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
	"github.com/thatsimonsguy/sprinkler-controller/internal/notifications"
	"github.com/thatsimonsguy/sprinkler-controller/internal/snapshot"
)

// Fetcher retrieves a raw device snapshot
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (snapshot.Snapshot, []byte, error)
}

// Notifier interface for sending notifications
type Notifier interface {
	Send(e notifications.Event) error
}

// Publisher pushes controller state to a message broker
type Publisher interface {
	PublishController(c *model.Controller) error
}

// PointWriter records controller state as time series
type PointWriter interface {
	WriteController(c *model.Controller, ts time.Time)
}

type Status struct {
	LastPoll            time.Time `json:"last_poll"`
	LastSuccess         time.Time `json:"last_success"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

type Service struct {
	dbConn       *sql.DB
	fetcher      Fetcher
	pollInterval time.Duration

	// Configuration
	retention   int
	notifyAfter int

	mutex    sync.RWMutex
	current  *model.Controller
	status   Status
	alerting bool

	// Dependencies (for testing)
	notifier  Notifier
	publisher Publisher
	points    PointWriter
	now       func() time.Time
}

func NewService(dbConn *sql.DB, fetcher Fetcher, publisher Publisher, points PointWriter) *Service {
	return &Service{
		dbConn:       dbConn,
		fetcher:      fetcher,
		pollInterval: time.Duration(env.Cfg.PollIntervalSeconds) * time.Second,
		retention:    env.Cfg.SnapshotRetention,
		notifyAfter:  env.Cfg.NotifyAfterFailures,
		notifier:     &realNotifier{},
		publisher:    publisher,
		points:       points,
		now:          time.Now,
	}
}

// TestDeps holds test dependencies
type TestDeps struct {
	Fetcher   Fetcher
	Notifier  Notifier
	Publisher Publisher
	Points    PointWriter
	Now       func() time.Time
}

// NewServiceForTest creates a service with injectable dependencies for testing
func NewServiceForTest(dbConn *sql.DB, pollInterval time.Duration, deps *TestDeps) *Service {
	s := &Service{
		dbConn:       dbConn,
		fetcher:      deps.Fetcher,
		pollInterval: pollInterval,
		retention:    5,
		notifyAfter:  3,
		notifier:     deps.Notifier,
		publisher:    deps.Publisher,
		points:       deps.Points,
		now:          deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Real implementations
type realNotifier struct{}

func (r *realNotifier) Send(e notifications.Event) error {
	return notifications.Send(e)
}

// Controller returns the most recently decoded controller.
func (s *Service) Controller() (*model.Controller, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.current, s.current != nil
}

func (s *Service) Status() Status {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.status
}

// Run polls immediately and then every poll interval until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	log.Info().Dur("interval", s.pollInterval).Msg("Starting snapshot monitor")

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if err := s.Poll(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("Snapshot poll failed")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Snapshot monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Poll runs one fetch, decode and publish cycle.
func (s *Service) Poll(ctx context.Context) error {
	start := s.now()

	snap, raw, err := s.fetcher.FetchSnapshot(ctx)
	var c *model.Controller
	if err == nil {
		c, err = decode.Assemble(snap)
	}
	metrics.ObservePoll(s.now().Sub(start), err)

	if err != nil {
		s.recordFailure(start, err)
		return fmt.Errorf("poll: %w", err)
	}

	prev := s.recordSuccess(start, c)

	log.Info().
		Bool("enabled", c.Enabled()).
		Int("stations", c.NumStations()).
		Int("programs", c.NumPrograms()).
		Msg("Controller snapshot decoded")

	s.persist(start, raw, changedStations(prev, c))

	metrics.ObserveController(c)
	datadog.ReportController(c)

	if s.publisher != nil {
		if err := s.publisher.PublishController(c); err != nil {
			log.Warn().Err(err).Msg("Failed to publish controller state")
		}
	}
	if s.points != nil {
		s.points.WriteController(c, start)
	}

	if prev != nil && prev.Enabled() && !c.Enabled() {
		s.notify(notifications.ControllerDisabled())
	}
	return nil
}

func (s *Service) recordFailure(at time.Time, err error) {
	s.mutex.Lock()
	s.status.LastPoll = at
	s.status.LastError = err.Error()
	s.status.ConsecutiveFailures++
	failures := s.status.ConsecutiveFailures
	alert := failures == s.notifyAfter
	if alert {
		s.alerting = true
	}
	s.mutex.Unlock()

	log.Error().Err(err).Int("consecutive_failures", failures).Msg("Failed to read controller snapshot")

	if alert {
		s.notify(notifications.ControllerUnreachable(failures, err))
	}
}

// recordSuccess swaps in c and returns the controller it replaced.
func (s *Service) recordSuccess(at time.Time, c *model.Controller) *model.Controller {
	s.mutex.Lock()
	prev := s.current
	s.current = c
	s.status.LastPoll = at
	s.status.LastSuccess = at
	s.status.LastError = ""
	s.status.ConsecutiveFailures = 0
	recovered := s.alerting
	s.alerting = false
	s.mutex.Unlock()

	if recovered {
		s.notify(notifications.ControllerReachable())
	}
	return prev
}

func (s *Service) persist(at time.Time, raw []byte, changed []model.Station) {
	if s.dbConn == nil {
		return
	}

	if _, err := db.SaveSnapshot(s.dbConn, at, raw); err != nil {
		log.Warn().Err(err).Msg("Failed to store snapshot")
	}
	if err := db.RecordStationEvents(s.dbConn, changed, at); err != nil {
		log.Warn().Err(err).Msg("Failed to record station events")
	}
	for _, st := range changed {
		log.Info().Int("station", st.Index).Str("name", st.Name).Int("status", st.Status).Msg("Station status changed")
	}
	if s.retention > 0 {
		if n, err := db.PruneSnapshots(s.dbConn, s.retention); err != nil {
			log.Warn().Err(err).Msg("Failed to prune snapshots")
		} else if n > 0 {
			log.Debug().Int64("removed", n).Msg("Pruned snapshot history")
		}
	}
}

func (s *Service) notify(e notifications.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(e); err != nil {
		log.Warn().Err(err).Str("title", e.Title).Msg("Failed to send notification")
	}
}

// changedStations returns the stations whose status differs from prev.
// Every station counts as changed on the first snapshot.
func changedStations(prev, cur *model.Controller) []model.Station {
	stations := cur.Stations()
	if prev == nil {
		return stations
	}

	before := make(map[int]int, prev.NumStations())
	for _, st := range prev.Stations() {
		before[st.Index] = st.Status
	}

	var changed []model.Station
	for _, st := range stations {
		if status, ok := before[st.Index]; !ok || status != st.Status {
			changed = append(changed, st)
		}
	}
	return changed
}
