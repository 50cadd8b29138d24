// Package report renders controller state as plain text for terminals.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
)

type summaryLine struct {
	label    string
	property string
}

var summaryLines = []summaryLine{
	{"# Physical boards", "num_boards"},
	{"# Stations", "num_stations"},
	{"Device Location", "location"},
	{"# Expansion Boards", "num_expansion_boards"},
	{"Device Local Time", "device_time"},
	{"Sunrise", "sunrise"},
	{"Sunset", "sunset"},
}

const labelWidth = 20

func line(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%*s: %v\n", labelWidth, label, value)
}

func property(c *model.Controller, name string) any {
	v, err := c.Property(name)
	if err != nil {
		return "?"
	}
	return v
}

// Controller writes the key characteristics of c.
func Controller(w io.Writer, c *model.Controller) {
	state := "DISABLED"
	if c.Enabled() {
		state = "ENABLED"
	}
	fmt.Fprintf(w, "  This controller is: %s\n", state)
	line(w, "Firmware Version", c.FirmwareVersion())
	line(w, "Hardware", c.HardwareType())
	for _, l := range summaryLines {
		line(w, l.label, property(c, l.property))
	}

	if key := property(c, "wunderground_api_key"); key != "" && key != nil {
		line(w, "Wunderground API Key", key)
	} else {
		line(w, "Wunderground API Key", "none")
	}
	line(w, "Last Weather Update", property(c, "last_successful_weather_call"))
	if ok, err := c.WeatherCallOK(); err == nil {
		line(w, "Weather Call OK", ok)
	}
	line(w, "Weather Options", property(c, "weather_options"))
	line(w, "Rain Sensor Status", property(c, "rain_sensor_status"))
	fmt.Fprintln(w)
}

// Properties writes every registry property as a NAME : VALUE table.
func Properties(w io.Writer, c *model.Controller) {
	fmt.Fprintln(w, "Controller Properties")
	fmt.Fprintf(w, "%30s : %s\n", "NAME", "VALUE")
	for _, p := range c.Properties() {
		fmt.Fprintf(w, "%30s : %v\n", p.Name, p.Value)
	}
}

func Station(w io.Writer, s model.Station) {
	fmt.Fprintf(w, "     Station: %d\n", s.Index)
	fmt.Fprintf(w, "        Name: %s\n", s.Name)
	fmt.Fprintf(w, "      Status: %d\n", s.Status)
	fmt.Fprintf(w, " Ignore Rain: %t\n", s.IgnoreRain)
	fmt.Fprintf(w, "  Sequential: %t\n", s.Sequential)
	fmt.Fprintf(w, "    Disabled: %t\n", s.Disabled)
	fmt.Fprintf(w, "     Special: %t\n", s.Special)
	fmt.Fprintln(w)
}

// Program writes the schedule, start times and non-zero zone durations of p.
func Program(w io.Writer, p model.Program) {
	fmt.Fprintf(w, "\tProgram Name: %s\n", p.Name)
	fmt.Fprintf(w, "\t     Enabled: %t\n", p.Enabled)
	fmt.Fprintf(w, "\t Restriction: %s\n", p.Restriction)

	for i, start := range startTimes(p) {
		if i == 0 {
			fmt.Fprintf(w, "\t    Start at: %s\n", start)
		} else {
			fmt.Fprintf(w, "\t              %s\n", start)
		}
	}

	if days, ok := p.Weekdays(); ok {
		fmt.Fprintf(w, "\t      Run on: %s\n", strings.Join(days.Days(), " "))
	} else if iv, ok := p.Interval(); ok {
		fmt.Fprintf(w, "\t         Run: every %d days starting in %d days\n", iv.Interval, iv.Delay)
	}

	first := true
	for idx, secs := range p.ZoneDurations {
		if secs <= 0 {
			continue
		}
		if first {
			fmt.Fprintf(w, "\t       Zones: Run Zone %d for %d seconds\n", idx, secs)
			first = false
		} else {
			fmt.Fprintf(w, "\t\t      Run Zone %d for %d seconds\n", idx, secs)
		}
	}
	if first {
		fmt.Fprintln(w, "\t       Zones: none")
	}
	fmt.Fprintln(w)
}

func startTimes(p model.Program) []string {
	var out []string
	if fixed, ok := p.FixedStartTimes(); ok {
		for _, m := range fixed {
			out = append(out, fmt.Sprintf("%02d:%02d", m/60, m%60))
		}
	}
	if rep, ok := p.RepeatingStartTimes(); ok {
		for _, st := range rep {
			dir := "after"
			if st.Sign == model.SignMinus {
				dir = "before"
			}
			out = append(out, fmt.Sprintf("%d minutes %s %s", st.OffsetMinutes, dir, st.Basis))
		}
	}
	return out
}
