package domain

import (
	"fmt"
	"time"
)

const (
	MinJourneyDuration = 30 * time.Minute
	MaxJourneyDuration = 24 * time.Hour
	clockLayout        = "15:04"
)

// ParseClock parses "HH:MM" (seconds are tolerated) into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	if len(s) > 5 {
		s = s[:5]
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, ValidationError{Field: "time", Msg: fmt.Sprintf("invalid time %q, expected HH:MM", s)}
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// JourneyDuration computes arrival - departure. Without a day offset an arrival earlier
// than the departure wraps to the next day.
func JourneyDuration(departure, arrival string, arrivalDayOffset int) (time.Duration, error) {
	dep, err := ParseClock(departure)
	if err != nil {
		return 0, ValidationError{Field: "departureTime", Msg: err.Error()}
	}
	arr, err := ParseClock(arrival)
	if err != nil {
		return 0, ValidationError{Field: "arrivalTime", Msg: err.Error()}
	}
	if arrivalDayOffset < 0 {
		return 0, ValidationError{Field: "arrivalDayOffset", Msg: "must not be negative"}
	}
	d := arr + time.Duration(arrivalDayOffset)*24*time.Hour - dep
	if arrivalDayOffset == 0 && d < 0 {
		d = (d%(24*time.Hour) + 24*time.Hour) % (24 * time.Hour)
	}
	return d, nil
}

// ValidateJourney enforces the 30 minute to 24 hour journey window.
func ValidateJourney(departure, arrival string, arrivalDayOffset int) (time.Duration, error) {
	d, err := JourneyDuration(departure, arrival, arrivalDayOffset)
	if err != nil {
		return 0, err
	}
	if d < MinJourneyDuration {
		return d, ValidationError{Field: "arrivalTime", Msg: "journey must last at least 30 minutes"}
	}
	if d > MaxJourneyDuration {
		return d, ValidationError{Field: "arrivalTime", Msg: "journey must not exceed 24 hours"}
	}
	return d, nil
}

// DepartureAt combines a travel date with a HH:MM clock in loc.
func DepartureAt(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	offset, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(offset), nil
}

// DateOnly truncates t to midnight in loc.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
