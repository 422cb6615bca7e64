package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"schedcal/internal/input"
)

var exportNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func exportEvent() *input.Event {
	name := "Dance Night"
	ev := &input.Event{
		File:      "events/dance-night.toml",
		Info:      input.Info{Name: &name},
		Timezone:  "Etc/UTC",
		Start:     20 * 60,
		Duration:  90,
		Platforms: []input.Platform{input.PlatformPC},
		Confirmed: input.AllDates(),
		Canceled:  input.NoDates(),
	}
	ev.Days.Set(time.Monday, &input.Day{})
	ev.Days.Set(time.Wednesday, &input.Day{})
	return ev
}

func writeCalendar(t *testing.T, events []*input.Event) string {
	t.Helper()
	dir := t.TempDir()
	meta := &input.Meta{Title: "Weekly Events"}
	if err := WriteICS(dir, meta, events, exportNow); err != nil {
		t.Fatalf("WriteICS returned error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

// TestWriteICSWeeklyRule checks the weekly recurrence and the first
// upcoming occurrence as DTSTART.
func TestWriteICSWeeklyRule(t *testing.T) {
	got := writeCalendar(t, []*input.Event{exportEvent()})

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"SUMMARY:Dance Night",
		"RRULE:FREQ=WEEKLY;BYDAY=MO,WE",
		"UID:dance-night@schedcal",
		"END:VEVENT",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("calendar missing %q:\n%s", want, got)
		}
	}
	// The first occurrence after Saturday 2024-06-01 is Monday the 3rd.
	if !strings.Contains(got, "DTSTART:20240603T200000Z") {
		t.Errorf("unexpected DTSTART:\n%s", got)
	}
	if !strings.Contains(got, "DTEND:20240603T213000Z") {
		t.Errorf("unexpected DTEND:\n%s", got)
	}
}

// TestWriteICSExcludesFutureCancellations checks EXDATE emission.
func TestWriteICSExcludesFutureCancellations(t *testing.T) {
	ev := exportEvent()
	ev.Canceled = input.DateSet{Dates: []input.Date{
		{Year: 2024, Month: time.May, Day: 27},  // past, ignored
		{Year: 2024, Month: time.June, Day: 10}, // future Monday
	}}
	got := writeCalendar(t, []*input.Event{ev})

	if !strings.Contains(got, "EXDATE:20240610T200000Z") {
		t.Errorf("missing future cancellation:\n%s", got)
	}
	if strings.Contains(got, "20240527") {
		t.Errorf("past cancellation should be dropped:\n%s", got)
	}
}

// TestWriteICSSkipsFinishedEvents checks that an event past its end date
// is left out without failing the export.
func TestWriteICSSkipsFinishedEvents(t *testing.T) {
	ev := exportEvent()
	endDate := input.Date{Year: 2024, Month: time.May, Day: 1}
	ev.EndDate = &endDate
	got := writeCalendar(t, []*input.Event{ev})

	if strings.Contains(got, "BEGIN:VEVENT") {
		t.Errorf("finished event should be skipped:\n%s", got)
	}
	if !strings.Contains(got, "BEGIN:VCALENDAR") {
		t.Errorf("calendar shell missing:\n%s", got)
	}
}

// TestWriteICSHonorsEndDate checks the UNTIL bound on the recurrence.
func TestWriteICSHonorsEndDate(t *testing.T) {
	ev := exportEvent()
	endDate := input.Date{Year: 2024, Month: time.December, Day: 31}
	ev.EndDate = &endDate
	got := writeCalendar(t, []*input.Event{ev})

	if !strings.Contains(got, "UNTIL=20241231T235959Z") {
		t.Errorf("missing UNTIL bound:\n%s", got)
	}
}
