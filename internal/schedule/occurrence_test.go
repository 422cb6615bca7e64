package schedule

import (
	"testing"
	"time"
	_ "time/tzdata"

	"schedcal/internal/input"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return loc
}

// TestEarliestLocalPlainDay checks the straightforward case far from any
// transition.
func TestEarliestLocalPlainDay(t *testing.T) {
	loc := berlin(t)
	got, ok := EarliestLocal(input.Date{Year: 2024, Month: time.June, Day: 1}, 10*60, loc)
	if !ok {
		t.Fatalf("expected an instant")
	}
	want := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestEarliestLocalSpringGap checks that a wall time erased by the
// spring-forward transition yields no instant.
func TestEarliestLocalSpringGap(t *testing.T) {
	loc := berlin(t)
	// Berlin skips 02:00-03:00 on 2024-03-31.
	if _, ok := EarliestLocal(input.Date{Year: 2024, Month: time.March, Day: 31}, 2*60+30, loc); ok {
		t.Fatalf("02:30 on the spring-forward day should not exist")
	}
	if _, ok := EarliestLocal(input.Date{Year: 2024, Month: time.March, Day: 31}, 3*60, loc); !ok {
		t.Fatalf("03:00 on the spring-forward day should exist")
	}
}

// TestEarliestLocalFallBackAmbiguity checks that a repeated wall time
// resolves to the earlier instant.
func TestEarliestLocalFallBackAmbiguity(t *testing.T) {
	loc := berlin(t)
	// Berlin repeats 02:00-03:00 on 2024-10-27; the earlier pass is
	// still on the +02:00 offset.
	got, ok := EarliestLocal(input.Date{Year: 2024, Month: time.October, Day: 27}, 2*60+30, loc)
	if !ok {
		t.Fatalf("expected an instant")
	}
	want := time.Date(2024, time.October, 27, 0, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ambiguous wall time resolved to %v, want %v", got, want)
	}
}

func mondayOnlyEvent() *input.Event {
	ev := &input.Event{
		Timezone: "Europe/Berlin",
		Start:    20 * 60,
		Duration: 90,
	}
	ev.Days.Set(time.Monday, &input.Day{})
	return ev
}

// TestOccurrenceInstantWeekday checks the scheduled/unscheduled weekday
// distinction and the force escape hatch.
func TestOccurrenceInstantWeekday(t *testing.T) {
	loc := berlin(t)
	ev := mondayOnlyEvent()

	monday := input.Date{Year: 2024, Month: time.June, Day: 3}
	tuesday := input.Date{Year: 2024, Month: time.June, Day: 4}

	got, ok := OccurrenceInstant(ev, monday, loc, false)
	if !ok {
		t.Fatalf("expected an occurrence on a scheduled Monday")
	}
	want := time.Date(2024, time.June, 3, 18, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if _, ok := OccurrenceInstant(ev, tuesday, loc, false); ok {
		t.Fatalf("Tuesday is unscheduled and should yield no occurrence")
	}
	if _, ok := OccurrenceInstant(ev, tuesday, loc, true); !ok {
		t.Fatalf("force should treat an unscheduled weekday as happening")
	}
}

// TestOccurrenceInstantDayStartOverride checks that a per-day start wins
// over the event base start.
func TestOccurrenceInstantDayStartOverride(t *testing.T) {
	loc := berlin(t)
	ev := mondayOnlyEvent()
	start := 21 * 60
	ev.Days.Set(time.Monday, &input.Day{Start: &start})

	got, ok := OccurrenceInstant(ev, input.Date{Year: 2024, Month: time.June, Day: 3}, loc, false)
	if !ok {
		t.Fatalf("expected an occurrence")
	}
	want := time.Date(2024, time.June, 3, 19, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestOccurrenceInstantBounds checks the start/end date window.
func TestOccurrenceInstantBounds(t *testing.T) {
	loc := berlin(t)
	ev := mondayOnlyEvent()
	startDate := input.Date{Year: 2024, Month: time.June, Day: 1}
	endDate := input.Date{Year: 2024, Month: time.June, Day: 30}
	ev.StartDate = &startDate
	ev.EndDate = &endDate

	if _, ok := OccurrenceInstant(ev, input.Date{Year: 2024, Month: time.May, Day: 27}, loc, false); ok {
		t.Fatalf("a Monday before the start date should yield no occurrence")
	}
	if _, ok := OccurrenceInstant(ev, input.Date{Year: 2024, Month: time.July, Day: 1}, loc, false); ok {
		t.Fatalf("a Monday after the end date should yield no occurrence")
	}
	if _, ok := OccurrenceInstant(ev, input.Date{Year: 2024, Month: time.June, Day: 10}, loc, false); !ok {
		t.Fatalf("a Monday inside the window should yield an occurrence")
	}
}

// TestEffectiveDay checks the layered start/duration lookup.
func TestEffectiveDay(t *testing.T) {
	ev := mondayOnlyEvent()
	duration := 120
	ev.Days.Set(time.Monday, &input.Day{Duration: &duration})

	start, dur, scheduled := EffectiveDay(ev, time.Monday)
	if !scheduled || start != 20*60 || dur != 120 {
		t.Fatalf("unexpected effective Monday: %d/%d/%v", start, dur, scheduled)
	}
	if _, _, scheduled := EffectiveDay(ev, time.Friday); scheduled {
		t.Fatalf("Friday should be unscheduled")
	}
}
