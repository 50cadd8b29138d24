package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
)

var (
	ErrNoController     = errors.New("no controller snapshot available")
	ErrUnknownReference = errors.New("unknown reference")
	ErrStationDisabled  = errors.New("station is disabled")
	ErrInvalidDuration  = errors.New("duration must be positive")
)

// Commander sends control verbs to the device.
type Commander interface {
	RunStation(ctx context.Context, sid, seconds int) error
	StopStation(ctx context.Context, sid int) error
	RunProgram(ctx context.Context, pid int, useWeather bool) error
	SetEnabled(ctx context.Context, enabled bool) error
	SetRainDelay(ctx context.Context, hours int) error
}

// Source supplies the most recently decoded controller.
type Source interface {
	Controller() (*model.Controller, bool)
}

// Dispatcher validates station and program references against the latest
// snapshot before commanding the device. A reference is either a decimal
// index or a name.
type Dispatcher struct {
	device Commander
	source Source
}

func NewDispatcher(device Commander, source Source) *Dispatcher {
	return &Dispatcher{device: device, source: source}
}

func (d *Dispatcher) controller() (*model.Controller, error) {
	c, ok := d.source.Controller()
	if !ok || c == nil {
		return nil, ErrNoController
	}
	return c, nil
}

// ResolveStation finds a station by index or name.
func ResolveStation(c *model.Controller, ref string) (model.Station, error) {
	var (
		st  model.Station
		err error
	)
	if idx, convErr := strconv.Atoi(ref); convErr == nil {
		st, err = c.Station(idx)
	} else {
		st, err = c.StationByName(ref)
	}
	if err != nil {
		return model.Station{}, fmt.Errorf("%w: station %q: %w", ErrUnknownReference, ref, err)
	}
	return st, nil
}

// ResolveProgram finds a program by index or name.
func ResolveProgram(c *model.Controller, ref string) (model.Program, error) {
	var (
		p   model.Program
		err error
	)
	if idx, convErr := strconv.Atoi(ref); convErr == nil {
		p, err = c.Program(idx)
	} else {
		p, err = c.ProgramByName(ref)
	}
	if err != nil {
		return model.Program{}, fmt.Errorf("%w: program %q: %w", ErrUnknownReference, ref, err)
	}
	return p, nil
}

// StartStation runs a station for the given number of minutes. Disabled
// stations are refused without contacting the device.
func (d *Dispatcher) StartStation(ctx context.Context, ref string, minutes int) (model.Station, error) {
	if minutes <= 0 {
		return model.Station{}, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, minutes)
	}
	c, err := d.controller()
	if err != nil {
		return model.Station{}, err
	}
	st, err := ResolveStation(c, ref)
	if err != nil {
		return model.Station{}, err
	}
	if st.Disabled {
		log.Warn().Int("station", st.Index).Str("name", st.Name).Msg("Refusing to start disabled station")
		return st, fmt.Errorf("station %d (%s): %w", st.Index, st.Name, ErrStationDisabled)
	}

	if err := d.device.RunStation(ctx, st.Index, minutes*60); err != nil {
		return st, fmt.Errorf("failed to start station %d: %w", st.Index, err)
	}
	log.Info().Int("station", st.Index).Str("name", st.Name).Int("minutes", minutes).Msg("Station started")
	return st, nil
}

func (d *Dispatcher) StopStation(ctx context.Context, ref string) (model.Station, error) {
	c, err := d.controller()
	if err != nil {
		return model.Station{}, err
	}
	st, err := ResolveStation(c, ref)
	if err != nil {
		return model.Station{}, err
	}

	if err := d.device.StopStation(ctx, st.Index); err != nil {
		return st, fmt.Errorf("failed to stop station %d: %w", st.Index, err)
	}
	log.Info().Int("station", st.Index).Str("name", st.Name).Msg("Station stopped")
	return st, nil
}

// StartProgram runs a program now, optionally applying the weather
// adjustment.
func (d *Dispatcher) StartProgram(ctx context.Context, ref string, useWeather bool) (model.Program, error) {
	c, err := d.controller()
	if err != nil {
		return model.Program{}, err
	}
	p, err := ResolveProgram(c, ref)
	if err != nil {
		return model.Program{}, err
	}

	if err := d.device.RunProgram(ctx, p.Index, useWeather); err != nil {
		return p, fmt.Errorf("failed to start program %d: %w", p.Index, err)
	}
	log.Info().Int("program", p.Index).Str("name", p.Name).Bool("use_weather", useWeather).Msg("Program started")
	return p, nil
}

func (d *Dispatcher) SetEnabled(ctx context.Context, enabled bool) error {
	if err := d.device.SetEnabled(ctx, enabled); err != nil {
		return fmt.Errorf("failed to set controller enabled=%t: %w", enabled, err)
	}
	log.Info().Bool("enabled", enabled).Msg("Controller operation changed")
	return nil
}

// SetRainDelay sets the rain delay in hours. Zero clears it.
func (d *Dispatcher) SetRainDelay(ctx context.Context, hours int) error {
	if hours < 0 {
		return fmt.Errorf("%w: %d hours", ErrInvalidDuration, hours)
	}
	if err := d.device.SetRainDelay(ctx, hours); err != nil {
		return fmt.Errorf("failed to set rain delay: %w", err)
	}
	log.Info().Int("hours", hours).Msg("Rain delay set")
	return nil
}
