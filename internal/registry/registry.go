package registry

import (
	"github.com/thatsimonsguy/sprinkler-controller/internal/snapshot"
)

type Section string

const (
	SectionSettings Section = "settings"
	SectionOptions  Section = "options"
	SectionStations Section = "stations"
	SectionStatus   Section = "status"
	SectionPrograms Section = "programs"
	SectionDerived  Section = "derived"
)

// Kind selects the declared default for a property.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindList
	KindObject
	KindBool
)

// Definition declares where a controller property lives in a snapshot.
// Derived definitions carry a Formula instead of a Key and are never
// evaluated.
type Definition struct {
	Name    string
	Section Section
	Key     string
	Formula string
	Kind    Kind
}

func (d Definition) Derived() bool {
	return d.Section == SectionDerived
}

func (d Definition) defaultValue() any {
	switch d.Kind {
	case KindString:
		return ""
	case KindList:
		return []any{}
	case KindObject:
		return map[string]any{}
	case KindBool:
		return false
	default:
		return 0
	}
}

func (d Definition) coerce(v any) any {
	if d.Kind == KindBool {
		return snapshot.Bool(v)
	}
	return v
}

func settings(name, key string, kind Kind) Definition {
	return Definition{Name: name, Section: SectionSettings, Key: key, Kind: kind}
}

func options(name, key string) Definition {
	return Definition{Name: name, Section: SectionOptions, Key: key, Kind: KindNumber}
}

func derived(name, formula string, kind Kind) Definition {
	return Definition{Name: name, Section: SectionDerived, Formula: formula, Kind: kind}
}

var definitions = []Definition{
	settings("device_time", "devt", KindNumber),
	settings("num_boards", "nbrd", KindNumber),
	settings("enabled", "en", KindBool),
	settings("rain_delay", "rd", KindNumber),
	settings("rain_sensor_status", "rs", KindNumber),
	settings("rain_delay_stop_time", "rdst", KindNumber),
	settings("location", "loc", KindString),
	settings("wunderground_api_key", "wtkey", KindString),
	settings("sunrise", "sunrise", KindNumber),
	settings("sunset", "sunset", KindNumber),
	settings("external_ip_address", "eip", KindNumber),
	settings("last_weather_call", "lwc", KindNumber),
	settings("last_successful_weather_call", "lswc", KindNumber),
	settings("last_run_record", "lrun", KindNumber),
	settings("weather_options", "wto", KindObject),

	options("firmware_version", "fwv"),
	options("firmware_minor_version", "fwm"),
	options("time_zone", "tz"),
	options("ntp_synch_flag", "ntp"),
	options("use_dhcp_flag", "dhcp"),
	options("ip1", "ip1"),
	options("ip2", "ip2"),
	options("ip3", "ip3"),
	options("ip4", "ip4"),
	options("gw1", "gw1"),
	options("gw2", "gw2"),
	options("gw3", "gw3"),
	options("gw4", "gw4"),
	options("ntp1", "ntp1"),
	options("ntp2", "ntp2"),
	options("ntp3", "ntp3"),
	options("ntp4", "ntp4"),
	options("hp0", "hp0"),
	options("hp1", "hp1"),
	options("hardware_version", "hwv"),
	options("hardware_type", "hwt"),
	options("num_expansion_boards", "ext"),
	options("station_delay_time", "sdt"),
	options("master_station_1", "mas"),
	options("master_station_2", "mas2"),
	options("master_station_1_on_delay", "mton"),
	options("master_station_2_on_delay", "mton2"),
	options("master_station_1_off_delay", "mtof"),
	options("master_station_2_off_delay", "mtof2"),
	options("use_rain_sensor", "urs"),
	options("rain_sensor_type", "rso"),
	options("water_level", "wl"),
	options("operation_enabled", "den"),
	options("ignore_password", "ipas"),
	options("device_id", "devid"),
	options("lcd_contrast", "con"),
	options("lcd_backlight", "lit"),
	options("lcd_dimming", "dim"),
	options("boost_time", "bst"),
	options("weather_adjustment_method", "uwt"),
	options("enable_logging", "lg"),
	options("fpr0", "fpr0"),
	options("fpr1", "fpr1"),
	options("remote_extension_mode", "re"),
	options("detected_extension_boards", "dexp"),
	options("max_extension_boards", "mexp"),

	{Name: "station_names", Section: SectionStations, Key: "snames", Kind: KindList},
	{Name: "station_status", Section: SectionStatus, Key: "sn", Kind: KindList},
	{Name: "num_stations", Section: SectionStatus, Key: "nstations", Kind: KindNumber},
	{Name: "num_programs", Section: SectionPrograms, Key: "nprogs", Kind: KindNumber},
	{Name: "max_programs", Section: SectionPrograms, Key: "mnp", Kind: KindNumber},
	{Name: "max_start_times", Section: SectionPrograms, Key: "mnst", Kind: KindNumber},
	{Name: "program_name_size", Section: SectionPrograms, Key: "pnsize", Kind: KindNumber},

	// registered for completeness; formulas are metadata only
	derived("ntp_ipv4_address", "", KindString),
	derived("dhcp_ipv4_address", "", KindString),
	derived("gw_ipv4_address", "", KindString),
	derived("port_number", "hp1 << 8 + hp0", KindNumber),
	derived("flow_pulse_rate", "fpr1 << 8 + fpr0", KindString),
}

var index = buildIndex()

func buildIndex() map[string]int {
	idx := make(map[string]int, len(definitions))
	for i, d := range definitions {
		if _, dup := idx[d.Name]; dup {
			panic("duplicate property definition: " + d.Name)
		}
		idx[d.Name] = i
	}
	return idx
}

// Definitions returns a copy of the registry table in declaration order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, error) {
	i, ok := index[name]
	if !ok {
		return Definition{}, &PropertyNotFoundError{Name: name}
	}
	return definitions[i], nil
}

// Resolve reads every non-derived property from the snapshot. Properties
// whose section or key is absent keep their declared default.
func Resolve(snap snapshot.Snapshot) *Properties {
	p := &Properties{values: make([]any, len(definitions))}
	for i, d := range definitions {
		p.values[i] = d.defaultValue()
		if d.Derived() {
			continue
		}
		if v, ok := snap.Lookup(string(d.Section), d.Key); ok {
			p.values[i] = d.coerce(v)
		}
	}
	return p
}
