// Package export renders the resolved schedule as an iCalendar file so
// the events can be subscribed to from a regular calendar client.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"schedcal/internal/fsx"
	"schedcal/internal/input"
	"schedcal/internal/log"
	"schedcal/internal/schedule"
)

// FileName is the calendar artifact written into the output directory.
const FileName = "schedule.ics"

// occurrenceScanDays bounds the search for the first upcoming occurrence
// used as DTSTART. Anything without an occurrence within a year of now is
// over and left out of the calendar.
const occurrenceScanDays = 370

var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// WriteICS serializes the events as weekly recurring VEVENTs and writes
// the result atomically. Events that cannot be exported (no upcoming
// occurrence, unloadable zone) are logged and skipped so one stale event
// does not block the calendar.
func WriteICS(outputDir string, meta *input.Meta, events []*input.Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//schedcal//EN")
	cal.SetName(meta.Title)
	if meta.Description != nil {
		cal.SetDescription(*meta.Description)
	}

	for _, ev := range events {
		if err := addEvent(cal, ev, now); err != nil {
			log.Warn("event left out of calendar export", "file", ev.File, "reason", err)
		}
	}

	return fsx.WriteFileAtomic(filepath.Join(outputDir, FileName), []byte(cal.Serialize()))
}

func addEvent(cal *ical.Calendar, ev *input.Event, now time.Time) error {
	loc, err := time.LoadLocation(ev.Timezone)
	if err != nil {
		return err
	}

	weekdays := byWeekdays(ev)
	if len(weekdays) == 0 {
		return fmt.Errorf("no scheduled weekdays")
	}

	start, duration, ok := firstOccurrence(ev, loc, now)
	if !ok {
		return fmt.Errorf("no upcoming occurrence")
	}

	opt := rrule.ROption{Freq: rrule.WEEKLY, Byweekday: weekdays}
	if ev.EndDate != nil {
		if bound, boundOK := schedule.EarliestLocal(ev.EndDate.AddDays(1), 0, loc); boundOK {
			opt.Until = bound.Add(-time.Second).UTC()
		}
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return err
	}

	ve := cal.AddEvent(eventUID(ev))
	ve.SetDtStampTime(now)
	ve.SetSummary(eventSummary(ev))
	if ev.Info.Description != nil {
		ve.SetDescription(*ev.Info.Description)
	}
	if ev.Info.Web != nil {
		ve.SetURL(*ev.Info.Web)
	}
	if ev.Info.World != nil {
		ve.SetLocation(ev.Info.World.Name)
	}
	ve.SetStartAt(start)
	ve.SetEndAt(start.Add(time.Duration(duration) * time.Minute))
	ve.AddRrule(rule.OrigOptions.RRuleString())

	if ev.Canceled.IsList() {
		for _, date := range ev.Canceled.Dates {
			when, occOK := schedule.OccurrenceInstant(ev, date, loc, false)
			if !occOK || !now.Before(when) {
				continue
			}
			ve.AddExdate(when.UTC().Format("20060102T150405Z"))
		}
	}

	return nil
}

// firstOccurrence scans forward from now for the first instant the event
// actually happens, which becomes DTSTART. The per-day duration override
// is honored for that first day.
func firstOccurrence(ev *input.Event, loc *time.Location, now time.Time) (time.Time, int, bool) {
	local := now.In(loc)
	date := input.Date{Year: local.Year(), Month: local.Month(), Day: local.Day()}
	if ev.StartDate != nil && date.Before(*ev.StartDate) {
		date = *ev.StartDate
	}
	for range occurrenceScanDays {
		if when, ok := schedule.OccurrenceInstant(ev, date, loc, false); ok && now.Before(when) {
			_, duration, _ := schedule.EffectiveDay(ev, date.Weekday())
			return when, duration, true
		}
		date = date.AddDays(1)
	}
	return time.Time{}, 0, false
}

func byWeekdays(ev *input.Event) []rrule.Weekday {
	var out []rrule.Weekday
	for w := time.Sunday; w <= time.Saturday; w++ {
		if ev.Days.On(w) != nil {
			out = append(out, rruleWeekdays[w])
		}
	}
	return out
}

func eventSummary(ev *input.Event) string {
	if ev.Info.Name != nil {
		return *ev.Info.Name
	}
	base := filepath.Base(ev.File)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func eventUID(ev *input.Event) string {
	base := filepath.Base(ev.File)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "@schedcal"
}
