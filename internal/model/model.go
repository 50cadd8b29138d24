package model

type Restriction string

const (
	RestrictionNone Restriction = "None"
	RestrictionOdd  Restriction = "Odd"
	RestrictionEven Restriction = "Even"
)

type ScheduleType string

const (
	ScheduleWeekday  ScheduleType = "Weekday"
	ScheduleInterval ScheduleType = "Interval"
)

type StartTimeType string

const (
	StartTimeFixed     StartTimeType = "Fixed"
	StartTimeRepeating StartTimeType = "Repeating"
)

type StartBasis string

const (
	BasisMidnight StartBasis = "Midnight"
	BasisSunrise  StartBasis = "Sunrise"
	BasisSunset   StartBasis = "Sunset"
)

type OffsetSign string

const (
	SignPlus  OffsetSign = "plus"
	SignMinus OffsetSign = "minus"
)

// Weekdays is the Monday-first label table used by weekday schedules.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type Station struct {
	Name       string `json:"name"`
	Status     int    `json:"status"`
	Index      int    `json:"index"`
	IgnoreRain bool   `json:"ignore_rain"`
	Sequential bool   `json:"sequential"`
	Disabled   bool   `json:"disabled"`
	Special    bool   `json:"special"`
}

// Running reports a non-zero status code.
func (s Station) Running() bool {
	return s.Status != 0
}
