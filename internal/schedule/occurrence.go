package schedule

import (
	"time"

	"schedcal/internal/input"
)

// EarliestLocal resolves a wall-clock time on a calendar date in a zone to
// the earliest valid instant. A wall time erased by a spring-forward gap
// has no instant at all (ok == false); a wall time repeated by a fall-back
// resolves to the earlier of the two candidates.
func EarliestLocal(date input.Date, minutes int, loc *time.Location) (time.Time, bool) {
	t := time.Date(date.Year, date.Month, date.Day, minutes/60, minutes%60, 0, 0, loc)
	if !sameWall(t, date, minutes) {
		return time.Time{}, false
	}
	// An ambiguous wall time maps to two instants and the runtime picks
	// one of them. Probe the usual saving deltas for an earlier instant
	// showing the same wall clock.
	for _, delta := range []time.Duration{-time.Hour, -30 * time.Minute} {
		if alt := t.Add(delta); sameWall(alt, date, minutes) {
			return alt, true
		}
	}
	return t, true
}

func sameWall(t time.Time, date input.Date, minutes int) bool {
	return t.Year() == date.Year && t.Month() == date.Month && t.Day() == date.Day &&
		t.Hour()*60+t.Minute() == minutes && t.Second() == 0
}

// OccurrenceInstant computes the instant the event starts on the given
// date, or ok == false when the date is outside the event's bounds, the
// weekday is unscheduled (unless force), or the local time does not exist.
// force treats an unscheduled weekday as if it ran at the base start time,
// which is how author-confirmed dates are interpreted.
func OccurrenceInstant(ev *input.Event, date input.Date, loc *time.Location, force bool) (time.Time, bool) {
	if ev.StartDate != nil && date.Before(*ev.StartDate) {
		return time.Time{}, false
	}
	if ev.EndDate != nil && date.After(*ev.EndDate) {
		return time.Time{}, false
	}
	day := ev.Days.On(date.Weekday())
	if day == nil && !force {
		return time.Time{}, false
	}
	start := ev.Start
	if day != nil && day.Start != nil {
		start = *day.Start
	}
	return EarliestLocal(date, start, loc)
}

// EffectiveDay resolves the layered configuration for one weekday: the
// day's own start/duration when set, the event's base values otherwise.
// scheduled is false when the weekday has no entry at all.
func EffectiveDay(ev *input.Event, weekday time.Weekday) (start, duration int, scheduled bool) {
	day := ev.Days.On(weekday)
	if day == nil {
		return 0, 0, false
	}
	start = ev.Start
	if day.Start != nil {
		start = *day.Start
	}
	duration = ev.Duration
	if day.Duration != nil {
		duration = *day.Duration
	}
	return start, duration, true
}
