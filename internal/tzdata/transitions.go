package tzdata

import (
	"math"
	"sort"
	"time"
)

// DefaultHorizonDays is the forward window queried by Transitions when the
// caller has no override configured.
const DefaultHorizonDays = 365 * 5

// minInstant marks the start of a zone's first span, which has no lower
// bound.
const minInstant = math.MinInt64

// Span is a maximal interval of constant total UTC offset. Start is a unix
// timestamp, minInstant for the first span of a zone.
type Span struct {
	Start  int64
	Offset int // seconds east of UTC
}

// Transition is one entry of the sparse forward-looking table emitted into
// the compiled output. A nil Start means "already in effect at the start of
// the window"; a nil Offset means the offset is zero (or not representable
// in 16-bit minutes, which true UTC offsets never hit).
type Transition struct {
	Start  *int64 `json:"s,omitempty"`
	Offset *int16 `json:"o,omitempty"`
}

// Transitions computes the zone's offset-change points relevant to the
// window [now, now+horizonDays). The first returned span is always the one
// in effect at now, with its start omitted. Returns nil for unknown zones.
func (t *Table) Transitions(name string, now time.Time, horizonDays int) []Transition {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	spans := t.Spans(name, now.Year()+horizonDays/365+2)
	if spans == nil {
		return nil
	}

	nowTS := now.Unix()
	limitTS := now.AddDate(0, 0, horizonDays).Unix()

	// The span in effect at now is the one with the greatest start ≤ now,
	// or the first span when none qualifies.
	idx := sort.Search(len(spans), func(i int) bool { return spans[i].Start > nowTS })
	current := idx - 1
	if current < 0 {
		current = 0
	}
	spans = spans[current:]

	out := make([]Transition, 0, len(spans))
	for _, span := range spans {
		if span.Start >= limitTS {
			break
		}
		var tr Transition
		if span.Start > nowTS {
			start := span.Start
			tr.Start = &start
		}
		mins := span.Offset / 60
		if mins != 0 && mins >= math.MinInt16 && mins <= math.MaxInt16 {
			offset := int16(mins)
			tr.Offset = &offset
		}
		out = append(out, tr)
	}
	return out
}

// Spans computes the zone's full transition history, expanding recurring
// rules up to and including untilYear for open-ended segments. Returns nil
// for unknown zones. Spans are strictly ordered by start and consecutive
// spans always differ in offset.
func (t *Table) Spans(name string, untilYear int) []Span {
	segments, err := t.resolve(name)
	if err != nil {
		return nil
	}

	spans := make([]Span, 0, 16)
	cursor := int64(minInstant)
	save := 0

	for _, seg := range segments {
		switch seg.Rules.Kind {
		case rulesNone:
			save = 0
		case rulesFixed:
			save = seg.Rules.Save
		case rulesNamed:
			save = t.saveInEffect(seg.Rules.Name, seg.StdOffset, cursor)
		}
		spans = appendSpan(spans, cursor, seg.StdOffset+save)

		if seg.Rules.Kind == rulesNamed {
			spans, save = t.expandRules(spans, seg, cursor, save, untilYear)
		}

		if seg.Until == nil {
			break
		}
		cursor = untilInstant(seg.Until, seg.StdOffset, save)
	}
	return spans
}

// expandRules walks a segment's named rule set year by year, emitting a
// span for every activation inside the segment and tracking the running
// daylight saving.
func (t *Table) expandRules(spans []Span, seg ZoneSegment, cursor int64, save int, untilYear int) ([]Span, int) {
	rules := t.ruleSets[seg.Rules.Name]

	startYear := yearOf(cursor)
	if startYear == 0 {
		startYear = earliestFrom(rules)
	}
	endYear := untilYear
	if seg.Until != nil && seg.Until.Year < endYear {
		endYear = seg.Until.Year
	}

	for year := startYear; year <= endYear; year++ {
		for _, rule := range sortedForYear(rules, year) {
			when := ruleInstant(rule, year, seg.StdOffset, save)
			if when <= cursor {
				continue
			}
			if seg.Until != nil && when >= untilInstant(seg.Until, seg.StdOffset, save) {
				return spans, save
			}
			spans = appendSpan(spans, when, seg.StdOffset+rule.Save)
			save = rule.Save
		}
	}
	return spans, save
}

// saveInEffect finds the daylight saving a rule set has already put in
// place when a segment opens mid-stream: the save of the latest activation
// at or before the cursor in the surrounding two years.
func (t *Table) saveInEffect(ruleSet string, stdOffset int, cursor int64) int {
	if cursor == minInstant {
		return 0
	}
	rules := t.ruleSets[ruleSet]
	year := yearOf(cursor)

	best := int64(minInstant)
	save := 0
	for _, y := range []int{year - 1, year} {
		for _, rule := range sortedForYear(rules, y) {
			when := ruleInstant(rule, y, stdOffset, 0)
			if when <= cursor && when > best {
				best = when
				save = rule.Save
			}
		}
	}
	return save
}

// sortedForYear returns the rules applicable to a year ordered by their
// calendar position within it.
func sortedForYear(rules []RuleLine, year int) []RuleLine {
	out := make([]RuleLine, 0, len(rules))
	for _, rule := range rules {
		if rule.AppliesTo(year) {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		da, db := a.Day.Resolve(year, a.Month), b.Day.Resolve(year, b.Month)
		if da != db {
			return da < db
		}
		return a.At.Seconds < b.At.Seconds
	})
	return out
}

// ruleInstant converts a rule's activation in a given year to UTC, using
// the prevailing standard offset and saving for wall/standard clocks.
func ruleInstant(rule RuleLine, year int, stdOffset, save int) int64 {
	day := rule.Day.Resolve(year, rule.Month)
	return clockInstant(year, rule.Month, day, rule.At, stdOffset, save)
}

func untilInstant(until *UntilSpec, stdOffset, save int) int64 {
	day := until.Day.Resolve(until.Year, until.Month)
	return clockInstant(until.Year, until.Month, day, until.Time, stdOffset, save)
}

func clockInstant(year int, month time.Month, day int, at ClockTime, stdOffset, save int) int64 {
	base := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() + int64(at.Seconds)
	switch at.Kind {
	case ClockUniversal:
		return base
	case ClockStandard:
		return base - int64(stdOffset)
	default: // wall
		return base - int64(stdOffset) - int64(save)
	}
}

func yearOf(ts int64) int {
	if ts == minInstant {
		return 0
	}
	return time.Unix(ts, 0).UTC().Year()
}

func earliestFrom(rules []RuleLine) int {
	year := maxYear
	for _, rule := range rules {
		if rule.FromYear < year {
			year = rule.FromYear
		}
	}
	if year == maxYear || year < 1800 {
		return 1800
	}
	return year
}

// appendSpan keeps the span list strictly ordered and offset-distinct: a
// repeat of the previous offset is dropped, and a same-instant change
// replaces the previous entry.
func appendSpan(spans []Span, start int64, offset int) []Span {
	if n := len(spans); n > 0 {
		if spans[n-1].Offset == offset {
			return spans
		}
		if spans[n-1].Start == start {
			if n > 1 && spans[n-2].Offset == offset {
				return spans[:n-1]
			}
			spans[n-1].Offset = offset
			return spans
		}
	}
	return append(spans, Span{Start: start, Offset: offset})
}
