package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/sprinkler-controller/db"
	"github.com/thatsimonsguy/sprinkler-controller/internal/command"
	"github.com/thatsimonsguy/sprinkler-controller/internal/metrics"
	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
	"github.com/thatsimonsguy/sprinkler-controller/internal/monitor"
	"github.com/thatsimonsguy/sprinkler-controller/internal/registry"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500

	commandRateLimit  = 10
	commandRateWindow = time.Minute
)

// Monitor exposes the cached controller and poll health.
type Monitor interface {
	Controller() (*model.Controller, bool)
	Status() monitor.Status
}

// Commands issues device commands by station or program reference.
type Commands interface {
	StartStation(ctx context.Context, ref string, minutes int) (model.Station, error)
	StopStation(ctx context.Context, ref string) (model.Station, error)
	StartProgram(ctx context.Context, ref string, useWeather bool) (model.Program, error)
	SetEnabled(ctx context.Context, enabled bool) error
	SetRainDelay(ctx context.Context, hours int) error
}

type Server struct {
	db       *sql.DB
	monitor  Monitor
	commands Commands
	router   chi.Router
}

type StartStationRequest struct {
	Minutes int `json:"minutes"`
}

type StartProgramRequest struct {
	UseWeather *bool `json:"use_weather"`
}

type EnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

type RainDelayRequest struct {
	Hours int `json:"hours"`
}

type CommandResponse struct {
	Command string `json:"command"`
	Index   int    `json:"index"`
	Name    string `json:"name"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(database *sql.DB, mon Monitor, commands Commands) *Server {
	s := &Server{
		db:       database,
		monitor:  mon,
		commands: commands,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.getStatus)

		r.Get("/controller", s.getController)
		r.Get("/controller/properties", s.getProperties)
		r.Get("/controller/properties/{name}", s.getProperty)

		r.Get("/stations", s.getStations)
		r.Get("/stations/{id}", s.getStation)
		r.Get("/stations/{id}/events", s.getStationEvents)

		r.Get("/programs", s.getPrograms)
		r.Get("/programs/{id}", s.getProgram)

		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(
				commandRateLimit,
				commandRateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "Too many commands, try again later")
				}),
			))

			r.Post("/stations/{id}/start", s.startStation)
			r.Post("/stations/{id}/stop", s.stopStation)
			r.Post("/programs/{id}/start", s.startProgram)
			r.Put("/controller/enabled", s.setEnabled)
			r.Put("/controller/rain-delay", s.setRainDelay)
		})
	})
	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("address", addr).Msg("Starting REST API server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

func (s *Server) controller(w http.ResponseWriter) (*model.Controller, bool) {
	c, ok := s.monitor.Controller()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "No controller snapshot available yet")
		return nil, false
	}
	return c, true
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Status())
}

func (s *Server) getController(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) getProperties(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Properties())
}

func (s *Server) getProperty(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	val, err := c.Property(name)
	if errors.Is(err, registry.ErrPropertyNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, registry.Property{Name: name, Value: val})
}

func (s *Server) getStations(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Stations())
}

func (s *Server) getStation(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(w, r)
	if !ok {
		return
	}
	c, ok := s.controller(w)
	if !ok {
		return
	}
	st, err := c.Station(idx)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) getStationEvents(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(w, r)
	if !ok {
		return
	}
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "Event history not available")
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := db.GetStationEvents(s.db, idx, limit)
	if err != nil {
		log.Error().Err(err).Int("station", idx).Msg("Failed to load station events")
		writeError(w, http.StatusInternalServerError, "Failed to load station events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) getPrograms(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Programs())
}

func (s *Server) getProgram(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(w, r)
	if !ok {
		return
	}
	c, ok := s.controller(w)
	if !ok {
		return
	}
	p, err := c.Program(idx)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) startStation(w http.ResponseWriter, r *http.Request) {
	var req StartStationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	st, err := s.commands.StartStation(r.Context(), chi.URLParam(r, "id"), req.Minutes)
	metrics.ObserveCommand("start_station", err)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, CommandResponse{Command: "start_station", Index: st.Index, Name: st.Name})
}

func (s *Server) stopStation(w http.ResponseWriter, r *http.Request) {
	st, err := s.commands.StopStation(r.Context(), chi.URLParam(r, "id"))
	metrics.ObserveCommand("stop_station", err)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, CommandResponse{Command: "stop_station", Index: st.Index, Name: st.Name})
}

func (s *Server) startProgram(w http.ResponseWriter, r *http.Request) {
	var req StartProgramRequest
	// An empty body starts the program with weather adjustment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	useWeather := true
	if req.UseWeather != nil {
		useWeather = *req.UseWeather
	}

	p, err := s.commands.StartProgram(r.Context(), chi.URLParam(r, "id"), useWeather)
	metrics.ObserveCommand("start_program", err)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, CommandResponse{Command: "start_program", Index: p.Index, Name: p.Name})
}

func (s *Server) setEnabled(w http.ResponseWriter, r *http.Request) {
	var req EnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, `Body must be {"enabled": true|false}`)
		return
	}

	err := s.commands.SetEnabled(r.Context(), *req.Enabled)
	metrics.ObserveCommand("set_enabled", err)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"enabled": *req.Enabled})
}

func (s *Server) setRainDelay(w http.ResponseWriter, r *http.Request) {
	var req RainDelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	err := s.commands.SetRainDelay(r.Context(), req.Hours)
	metrics.ObserveCommand("set_rain_delay", err)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"hours": req.Hours})
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Index must be an integer")
		return 0, false
	}
	return idx, true
}

func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, command.ErrNoController):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, command.ErrUnknownReference):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, command.ErrStationDisabled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, command.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("Device command failed")
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}
