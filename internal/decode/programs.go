package decode

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
	"github.com/thatsimonsguy/sprinkler-controller/internal/snapshot"
)

// Program flag bits.
const (
	flagEnabled    = 1 << 0
	flagWeatherAdj = 1 << 1
	flagOdd        = 1 << 2
	flagEven       = 1 << 3
	flagInterval1  = 1 << 4
	flagInterval2  = 1 << 5
	flagFixed      = 1 << 6
)

// Repeating start time bits. The device labels bit 13 "sunrise" and bit 12
// "sunset", but the decoded basis follows the observed controller output:
// 0x2000 is Sunset and 0x1000 is Sunrise.
const (
	startSunset  = 0x2000
	startSunrise = 0x1000
	startPlus    = 0x800
	startOffset  = 0x7FF
)

const programTupleLen = 6

// RawProgram is one entry of programs.pd:
// [flags, days0, days1, [start times], [durations], name].
type RawProgram struct {
	Flags      int
	Days0      int
	Days1      int
	StartTimes []int
	Durations  []int
	Name       string
}

// ParseProgramTuple validates the shape of a pd entry.
func ParseProgramTuple(raw any) (RawProgram, error) {
	tuple, ok := snapshot.Array(raw)
	if !ok {
		return RawProgram{}, &ProgramDecodeError{Index: -1, Field: "tuple", Err: fmt.Errorf("%T is not an array", raw)}
	}
	if len(tuple) != programTupleLen {
		return RawProgram{}, &ProgramDecodeError{Index: -1, Field: "tuple", Err: fmt.Errorf("want %d fields, got %d", programTupleLen, len(tuple))}
	}

	var rp RawProgram
	var err error
	if rp.Flags, err = snapshot.Int(tuple[0]); err != nil {
		return RawProgram{}, &ProgramDecodeError{Index: -1, Field: "flags", Err: err}
	}
	if rp.Days0, err = snapshot.Int(tuple[1]); err != nil {
		return RawProgram{}, &ProgramDecodeError{Index: -1, Field: "days0", Err: err}
	}
	if rp.Days1, err = snapshot.Int(tuple[2]); err != nil {
		return RawProgram{}, &ProgramDecodeError{Index: -1, Field: "days1", Err: err}
	}
	if rp.StartTimes, err = snapshot.Ints(tuple[3]); err != nil {
		return RawProgram{}, &ProgramDecodeError{Index: -1, Field: "start_times", Err: err}
	}
	if rp.Durations, err = snapshot.Ints(tuple[4]); err != nil {
		return RawProgram{}, &ProgramDecodeError{Index: -1, Field: "durations", Err: err}
	}
	name, ok := tuple[5].(string)
	if !ok {
		return RawProgram{}, &ProgramDecodeError{Index: -1, Field: "name", Err: fmt.Errorf("%T is not a string", tuple[5])}
	}
	rp.Name = name
	return rp, nil
}

// Program decodes a pd entry. Nothing is returned unless every field
// decodes.
func Program(raw any) (model.Program, error) {
	rp, err := ParseProgramTuple(raw)
	if err != nil {
		return model.Program{}, err
	}
	return ProgramFromRaw(rp), nil
}

// ProgramFromRaw expands the packed flags, days and start times.
func ProgramFromRaw(rp RawProgram) model.Program {
	p := model.Program{
		Name:                 rp.Name,
		Enabled:              rp.Flags&flagEnabled != 0,
		UseWeatherAdjustment: rp.Flags&flagWeatherAdj != 0,
		Restriction:          restriction(rp.Flags),
		ScheduleType:         model.ScheduleWeekday,
		StartTimeType:        model.StartTimeRepeating,
		ZoneDurations:        append([]int(nil), rp.Durations...),
	}
	if rp.Flags&(flagInterval1|flagInterval2) != 0 {
		p.ScheduleType = model.ScheduleInterval
	}
	if rp.Flags&flagFixed != 0 {
		p.StartTimeType = model.StartTimeFixed
	}

	if p.ScheduleType == model.ScheduleWeekday {
		p.Schedule = weekdaySchedule(rp.Days0)
	} else {
		p.Schedule = model.IntervalSchedule{Interval: rp.Days1, Delay: rp.Days0}
	}

	if p.StartTimeType == model.StartTimeFixed {
		p.StartTimes = fixedStartTimes(rp.StartTimes)
	} else {
		p.StartTimes = repeatingStartTimes(rp.StartTimes)
	}

	log.Debug().
		Str("program", p.Name).
		Int("flags", rp.Flags).
		Str("schedule_type", string(p.ScheduleType)).
		Str("start_time_type", string(p.StartTimeType)).
		Int("start_times", p.StartTimes.Len()).
		Msg("Decoded program")

	return p
}

func restriction(flags int) model.Restriction {
	switch {
	case flags&flagOdd != 0:
		return model.RestrictionOdd
	case flags&flagEven != 0:
		return model.RestrictionEven
	default:
		return model.RestrictionNone
	}
}

func weekdaySchedule(days0 int) model.WeekdaySchedule {
	var w model.WeekdaySchedule
	for i, day := range model.Weekdays {
		w[i] = model.DaySchedule{Day: day, Scheduled: (days0>>i)&1 == 1}
	}
	return w
}

// Unused slots are stored as 0 (or negative on newer firmware) and dropped.
func fixedStartTimes(raw []int) model.FixedStartTimes {
	out := model.FixedStartTimes{}
	for _, st := range raw {
		if st > 0 {
			out = append(out, st)
		}
	}
	return out
}

func repeatingStartTimes(raw []int) model.RepeatingStartTimes {
	out := model.RepeatingStartTimes{}
	for _, st := range raw {
		if st <= 0 {
			continue
		}
		out = append(out, RepeatingStartTime(st))
	}
	return out
}

// RepeatingStartTime decodes one packed repeating start time.
func RepeatingStartTime(st int) model.RepeatingStartTime {
	basis := model.BasisMidnight
	switch {
	case st&startSunset != 0:
		basis = model.BasisSunset
	case st&startSunrise != 0:
		basis = model.BasisSunrise
	}
	sign := model.SignMinus
	if st&startPlus != 0 {
		sign = model.SignPlus
	}
	return model.RepeatingStartTime{Basis: basis, Sign: sign, OffsetMinutes: st & startOffset}
}
