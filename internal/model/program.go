package model

// Schedule is either a WeekdaySchedule or an IntervalSchedule.
type Schedule interface {
	Type() ScheduleType
}

type DaySchedule struct {
	Day       string `json:"day"`
	Scheduled bool   `json:"scheduled"`
}

type WeekdaySchedule [7]DaySchedule

func (WeekdaySchedule) Type() ScheduleType { return ScheduleWeekday }

// Days returns the labels of the scheduled days, Monday first.
func (w WeekdaySchedule) Days() []string {
	var days []string
	for _, d := range w {
		if d.Scheduled {
			days = append(days, d.Day)
		}
	}
	return days
}

type IntervalSchedule struct {
	Interval int `json:"interval"`
	Delay    int `json:"delay"`
}

func (IntervalSchedule) Type() ScheduleType { return ScheduleInterval }

// StartTimes is either FixedStartTimes or RepeatingStartTimes; a program
// never mixes the two forms.
type StartTimes interface {
	Type() StartTimeType
	Len() int
}

// FixedStartTimes are minutes from midnight.
type FixedStartTimes []int

func (FixedStartTimes) Type() StartTimeType { return StartTimeFixed }
func (f FixedStartTimes) Len() int         { return len(f) }

type RepeatingStartTime struct {
	Basis         StartBasis `json:"basis"`
	Sign          OffsetSign `json:"sign"`
	OffsetMinutes int        `json:"offset"`
}

type RepeatingStartTimes []RepeatingStartTime

func (RepeatingStartTimes) Type() StartTimeType { return StartTimeRepeating }
func (r RepeatingStartTimes) Len() int         { return len(r) }

type Program struct {
	Index                int           `json:"index"`
	Name                 string        `json:"name"`
	Enabled              bool          `json:"enabled"`
	UseWeatherAdjustment bool          `json:"use_weather_adjustment"`
	Restriction          Restriction   `json:"restriction"`
	ScheduleType         ScheduleType  `json:"schedule_type"`
	StartTimeType        StartTimeType `json:"start_time_type"`
	Schedule             Schedule      `json:"schedule"`
	StartTimes           StartTimes    `json:"start_times"`
	ZoneDurations        []int         `json:"zone_durations"`
}

// clone copies the slices a Program shares with its Controller.
func (p Program) clone() Program {
	if p.ZoneDurations != nil {
		p.ZoneDurations = append([]int(nil), p.ZoneDurations...)
	}
	switch st := p.StartTimes.(type) {
	case FixedStartTimes:
		p.StartTimes = append(FixedStartTimes(nil), st...)
	case RepeatingStartTimes:
		p.StartTimes = append(RepeatingStartTimes(nil), st...)
	}
	return p
}

// Weekdays returns the weekday schedule, if the program has one.
func (p Program) Weekdays() (WeekdaySchedule, bool) {
	w, ok := p.Schedule.(WeekdaySchedule)
	return w, ok
}

// Interval returns the interval schedule, if the program has one.
func (p Program) Interval() (IntervalSchedule, bool) {
	i, ok := p.Schedule.(IntervalSchedule)
	return i, ok
}

func (p Program) FixedStartTimes() (FixedStartTimes, bool) {
	f, ok := p.StartTimes.(FixedStartTimes)
	return f, ok
}

func (p Program) RepeatingStartTimes() (RepeatingStartTimes, bool) {
	r, ok := p.StartTimes.(RepeatingStartTimes)
	return r, ok
}

// Duration returns the run time in seconds for a station index, or 0 when
// the program carries no entry for it.
func (p Program) Duration(station int) int {
	if station < 0 || station >= len(p.ZoneDurations) {
		return 0
	}
	return p.ZoneDurations[station]
}
