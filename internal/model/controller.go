package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/thatsimonsguy/sprinkler-controller/internal/registry"
)

var (
	ErrNoWeatherKey   = errors.New("no weather service API key configured")
	ErrStationIndex   = errors.New("station index out of range")
	ErrProgramIndex   = errors.New("program index out of range")
	ErrNameNotMatched = errors.New("no entry with that name")
)

// hwtAC is the hardware type code reported by AC powered boards.
const hwtAC = 172

// Controller is the decoded state of one device snapshot. Only SetProperty
// mutates it, and callers must not race it against readers.
type Controller struct {
	props    *registry.Properties
	enabled  bool
	stations []Station
	programs []Program
}

func NewController(props *registry.Properties, enabled bool, stations []Station, programs []Program) *Controller {
	return &Controller{
		props:    props,
		enabled:  enabled,
		stations: stations,
		programs: programs,
	}
}

func (c *Controller) Enabled() bool {
	return c.enabled
}

func (c *Controller) Property(name string) (any, error) {
	return c.props.Get(name)
}

func (c *Controller) SetProperty(name string, value any) error {
	return c.props.Set(name, value)
}

func (c *Controller) Properties() []registry.Property {
	return c.props.All()
}

func (c *Controller) NumStations() int {
	return len(c.stations)
}

func (c *Controller) NumPrograms() int {
	return len(c.programs)
}

func (c *Controller) Stations() []Station {
	out := make([]Station, len(c.stations))
	copy(out, c.stations)
	return out
}

func (c *Controller) Station(idx int) (Station, error) {
	if idx < 0 || idx >= len(c.stations) {
		return Station{}, fmt.Errorf("%w: %d (have %d)", ErrStationIndex, idx, len(c.stations))
	}
	return c.stations[idx], nil
}

// StationByName returns the first station with the given name. Names are
// not unique; the lowest index wins.
func (c *Controller) StationByName(name string) (Station, error) {
	for _, s := range c.stations {
		if s.Name == name {
			return s, nil
		}
	}
	return Station{}, fmt.Errorf("station %q: %w", name, ErrNameNotMatched)
}

func (c *Controller) Programs() []Program {
	out := make([]Program, len(c.programs))
	for i, p := range c.programs {
		out[i] = p.clone()
	}
	return out
}

func (c *Controller) Program(idx int) (Program, error) {
	if idx < 0 || idx >= len(c.programs) {
		return Program{}, fmt.Errorf("%w: %d (have %d)", ErrProgramIndex, idx, len(c.programs))
	}
	return c.programs[idx].clone(), nil
}

func (c *Controller) ProgramByName(name string) (Program, error) {
	for _, p := range c.programs {
		if p.Name == name {
			return p.clone(), nil
		}
	}
	return Program{}, fmt.Errorf("program %q: %w", name, ErrNameNotMatched)
}

// FirmwareVersion renders fwv/fwm as "2.1.9 rev. 3".
func (c *Controller) FirmwareVersion() string {
	fv, _ := c.props.String("firmware_version")
	fm, _ := c.props.String("firmware_minor_version")

	parts := make([]string, 0, 3)
	if len(fv) > 0 {
		parts = append(parts, fv[:1])
	}
	if len(fv) > 1 {
		parts = append(parts, fv[1:2])
	}
	if len(fv) > 2 {
		parts = append(parts, fv[2:])
	}
	return strings.Join(parts, ".") + " rev. " + fm
}

func (c *Controller) HardwareType() string {
	hwt, err := c.props.Int("hardware_type")
	if err == nil && hwt == hwtAC {
		return "AC Powered"
	}
	return "DC Powered"
}

// WeatherCallOK reports whether the last weather lookup succeeded.
func (c *Controller) WeatherCallOK() (bool, error) {
	key, _ := c.props.String("wunderground_api_key")
	if key == "" {
		return false, ErrNoWeatherKey
	}
	last, err := c.props.Int("last_weather_call")
	if err != nil {
		return false, err
	}
	lastOK, err := c.props.Int("last_successful_weather_call")
	if err != nil {
		return false, err
	}
	return last == lastOK, nil
}

func (c *Controller) MarshalJSON() ([]byte, error) {
	props := make(map[string]any)
	for _, p := range c.props.All() {
		props[p.Name] = p.Value
	}
	return json.Marshal(struct {
		Enabled    bool           `json:"enabled"`
		Properties map[string]any `json:"properties"`
		Stations   []Station      `json:"stations"`
		Programs   []Program      `json:"programs"`
	}{
		Enabled:    c.enabled,
		Properties: props,
		Stations:   c.stations,
		Programs:   c.programs,
	})
}
