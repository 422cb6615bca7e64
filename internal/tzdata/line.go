// Package tzdata builds per-zone UTC-offset transition tables from the
// line-oriented zic source format (Rule / Zone / continuation / Link
// lines). The build is fail-fast: the first malformed line aborts with a
// diagnostic naming the file and 1-based line number. The resulting table
// answers forward-looking transition queries for the compiled output.
package tzdata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ClockKind says which clock an in-file time value is expressed against.
type ClockKind int

const (
	// ClockWall is local wall-clock time (standard offset plus any
	// daylight saving in effect). The default.
	ClockWall ClockKind = iota
	// ClockStandard is local standard time (no daylight saving).
	ClockStandard
	// ClockUniversal is UTC.
	ClockUniversal
)

// ClockTime is a time-of-day (possibly ≥ 24:00 or negative) with the clock
// it is measured against.
type ClockTime struct {
	Seconds int
	Kind    ClockKind
}

type dayKind int

const (
	dayFixed dayKind = iota // a literal day of month
	dayLast                 // last <weekday> of the month
	dayGE                   // first <weekday> on or after a day
	dayLE                   // last <weekday> on or before a day
)

// DaySpec selects a day of a given month and year.
type DaySpec struct {
	Kind    dayKind
	Day     int
	Weekday time.Weekday
}

// Resolve returns the concrete day of month the spec selects.
func (d DaySpec) Resolve(year int, month time.Month) int {
	switch d.Kind {
	case dayFixed:
		return d.Day
	case dayLast:
		day := lastDayOfMonth(year, month)
		for weekdayOf(year, month, day) != d.Weekday {
			day--
		}
		return day
	case dayGE:
		day := d.Day
		for weekdayOf(year, month, day) != d.Weekday {
			day++
		}
		return day
	default: // dayLE
		day := d.Day
		for weekdayOf(year, month, day) != d.Weekday {
			day--
		}
		return day
	}
}

func weekdayOf(year int, month time.Month, day int) time.Weekday {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday()
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day zero of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// maxYear marks an open-ended rule ("max") or an unbounded span.
const maxYear = math.MaxInt32

// RuleLine is one recurring daylight-saving rule belonging to a named set.
type RuleLine struct {
	Name     string
	FromYear int
	ToYear   int // maxYear when open-ended
	Month    time.Month
	Day      DaySpec
	At       ClockTime
	Save     int // seconds added to the standard offset
	Letter   string
}

// AppliesTo reports whether the rule is active in the given year.
func (r RuleLine) AppliesTo(year int) bool {
	return r.FromYear <= year && year <= r.ToYear
}

type rulesKind int

const (
	rulesNone  rulesKind = iota // "-": plain standard time
	rulesFixed                  // a literal save offset
	rulesNamed                  // reference to a rule set
)

// SegmentRules is the RULES column of a zone line.
type SegmentRules struct {
	Kind rulesKind
	Save int    // rulesFixed
	Name string // rulesNamed
}

// UntilSpec bounds a zone segment: the segment applies strictly before this
// moment. Month, day and time default to the start of the year.
type UntilSpec struct {
	Year  int
	Month time.Month
	Day   DaySpec
	Time  ClockTime
}

// ZoneSegment is one offset regime of a zone: a standard offset, the
// daylight rules layered on top, and an optional end bound.
type ZoneSegment struct {
	StdOffset int // seconds east of UTC
	Rules     SegmentRules
	Format    string
	Until     *UntilSpec
}

// ZoneLine opens a new named zone with its first segment.
type ZoneLine struct {
	Name    string
	Segment ZoneSegment
}

// LinkLine aliases Name to the zone Target.
type LinkLine struct {
	Target string
	Name   string
}

// Line is one classified zic source line. Exactly one field is set, or
// none for a blank line.
type Line struct {
	Rule         *RuleLine
	Zone         *ZoneLine
	Continuation *ZoneSegment
	Link         *LinkLine
}

// IsBlank reports whether the line carried no content.
func (l Line) IsBlank() bool {
	return l.Rule == nil && l.Zone == nil && l.Continuation == nil && l.Link == nil
}

// ParseLine classifies and parses a single line that has already had its
// trailing comment stripped.
func ParseLine(s string) (Line, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Line{}, nil
	}
	switch fields[0] {
	case "Rule":
		r, err := parseRule(fields)
		if err != nil {
			return Line{}, err
		}
		return Line{Rule: r}, nil
	case "Zone":
		if len(fields) < 5 {
			return Line{}, fmt.Errorf("zone line needs at least name, offset, rules and format")
		}
		seg, err := parseSegment(fields[2:])
		if err != nil {
			return Line{}, err
		}
		return Line{Zone: &ZoneLine{Name: fields[1], Segment: *seg}}, nil
	case "Link":
		if len(fields) != 3 {
			return Line{}, fmt.Errorf("link line needs exactly a target and a name")
		}
		return Line{Link: &LinkLine{Target: fields[1], Name: fields[2]}}, nil
	default:
		if s[0] != ' ' && s[0] != '\t' {
			return Line{}, fmt.Errorf("unrecognized line %q", strings.TrimSpace(s))
		}
		seg, err := parseSegment(fields)
		if err != nil {
			return Line{}, fmt.Errorf("malformed continuation: %w", err)
		}
		return Line{Continuation: seg}, nil
	}
}

func parseRule(fields []string) (*RuleLine, error) {
	if len(fields) != 10 {
		return nil, fmt.Errorf("rule line needs 10 columns, got %d", len(fields))
	}
	r := &RuleLine{Name: fields[1]}

	from := fields[2]
	switch {
	case strings.HasPrefix("minimum", from) && !isDigits(from):
		r.FromYear = 0
	default:
		year, err := strconv.Atoi(from)
		if err != nil {
			return nil, fmt.Errorf("invalid FROM year %q", from)
		}
		r.FromYear = year
	}

	to := fields[3]
	switch {
	case strings.HasPrefix("maximum", to) && !isDigits(to):
		r.ToYear = maxYear
	case strings.HasPrefix("only", to) && !isDigits(to):
		r.ToYear = r.FromYear
	default:
		year, err := strconv.Atoi(to)
		if err != nil {
			return nil, fmt.Errorf("invalid TO year %q", to)
		}
		r.ToYear = year
	}

	if fields[4] != "-" {
		return nil, fmt.Errorf("rule TYPE must be \"-\", got %q", fields[4])
	}

	month, err := parseMonth(fields[5])
	if err != nil {
		return nil, err
	}
	r.Month = month

	r.Day, err = parseDaySpec(fields[6])
	if err != nil {
		return nil, err
	}
	r.At, err = parseClock(fields[7])
	if err != nil {
		return nil, fmt.Errorf("invalid AT time %q", fields[7])
	}
	r.Save, err = parseOffset(fields[8])
	if err != nil {
		return nil, fmt.Errorf("invalid SAVE offset %q", fields[8])
	}
	if fields[9] != "-" {
		r.Letter = fields[9]
	}
	return r, nil
}

func parseSegment(fields []string) (*ZoneSegment, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("need offset, rules and format columns")
	}
	std, err := parseOffset(fields[0])
	if err != nil {
		return nil, fmt.Errorf("invalid standard offset %q", fields[0])
	}
	rules, err := parseSegmentRules(fields[1])
	if err != nil {
		return nil, err
	}
	seg := &ZoneSegment{StdOffset: std, Rules: rules, Format: fields[2]}
	if len(fields) > 3 {
		until, err := parseUntil(fields[3:])
		if err != nil {
			return nil, err
		}
		seg.Until = until
	}
	return seg, nil
}

func parseSegmentRules(s string) (SegmentRules, error) {
	if s == "-" {
		return SegmentRules{Kind: rulesNone}, nil
	}
	if strings.ContainsAny(s, "0123456789") && (s[0] == '-' || s[0] == '+' || (s[0] >= '0' && s[0] <= '9')) {
		save, err := parseOffset(s)
		if err != nil {
			return SegmentRules{}, fmt.Errorf("invalid fixed save %q", s)
		}
		return SegmentRules{Kind: rulesFixed, Save: save}, nil
	}
	return SegmentRules{Kind: rulesNamed, Name: s}, nil
}

func parseUntil(fields []string) (*UntilSpec, error) {
	if len(fields) > 4 {
		return nil, fmt.Errorf("until clause has too many columns")
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("invalid UNTIL year %q", fields[0])
	}
	until := &UntilSpec{
		Year:  year,
		Month: time.January,
		Day:   DaySpec{Kind: dayFixed, Day: 1},
	}
	if len(fields) > 1 {
		until.Month, err = parseMonth(fields[1])
		if err != nil {
			return nil, err
		}
	}
	if len(fields) > 2 {
		until.Day, err = parseDaySpec(fields[2])
		if err != nil {
			return nil, err
		}
	}
	if len(fields) > 3 {
		until.Time, err = parseClock(fields[3])
		if err != nil {
			return nil, fmt.Errorf("invalid UNTIL time %q", fields[3])
		}
	}
	return until, nil
}

var monthNames = [...]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

func parseMonth(s string) (time.Month, error) {
	lower := strings.ToLower(s)
	if len(lower) < 3 {
		return 0, fmt.Errorf("invalid month %q", s)
	}
	for i, name := range monthNames {
		if strings.HasPrefix(name, lower) {
			return time.Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("invalid month %q", s)
}

var weekdayNames = [...]string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

func parseWeekday(s string) (time.Weekday, error) {
	lower := strings.ToLower(s)
	if len(lower) < 3 {
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
	for i, name := range weekdayNames {
		if strings.HasPrefix(name, lower) {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

func parseDaySpec(s string) (DaySpec, error) {
	if isDigits(s) {
		day, err := strconv.Atoi(s)
		if err != nil || day < 1 || day > 31 {
			return DaySpec{}, fmt.Errorf("invalid day %q", s)
		}
		return DaySpec{Kind: dayFixed, Day: day}, nil
	}
	if rest, ok := strings.CutPrefix(s, "last"); ok {
		weekday, err := parseWeekday(rest)
		if err != nil {
			return DaySpec{}, fmt.Errorf("invalid day %q", s)
		}
		return DaySpec{Kind: dayLast, Weekday: weekday}, nil
	}
	for _, op := range []string{">=", "<="} {
		name, num, ok := strings.Cut(s, op)
		if !ok {
			continue
		}
		weekday, err := parseWeekday(name)
		if err != nil {
			return DaySpec{}, fmt.Errorf("invalid day %q", s)
		}
		day, err := strconv.Atoi(num)
		if err != nil || day < 1 || day > 31 {
			return DaySpec{}, fmt.Errorf("invalid day %q", s)
		}
		kind := dayGE
		if op == "<=" {
			kind = dayLE
		}
		return DaySpec{Kind: kind, Day: day, Weekday: weekday}, nil
	}
	return DaySpec{}, fmt.Errorf("invalid day %q", s)
}

// parseClock parses "h[:mm[:ss]]" with an optional sign and an optional
// trailing clock-kind letter (w = wall, s = standard, u/g/z = universal).
func parseClock(s string) (ClockTime, error) {
	kind := ClockWall
	if len(s) > 0 {
		switch s[len(s)-1] {
		case 'w':
			s = s[:len(s)-1]
		case 's':
			kind = ClockStandard
			s = s[:len(s)-1]
		case 'u', 'g', 'z':
			kind = ClockUniversal
			s = s[:len(s)-1]
		}
	}
	secs, err := parseOffset(s)
	if err != nil {
		return ClockTime{}, err
	}
	return ClockTime{Seconds: secs, Kind: kind}, nil
}

// parseOffset parses "[-]h[:mm[:ss]]" into seconds.
func parseOffset(s string) (int, error) {
	sign := 1
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		sign = -1
		s = rest
	} else if rest, ok := strings.CutPrefix(s, "+"); ok {
		s = rest
	}
	parts := strings.Split(s, ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	units := []int{3600, 60, 1}
	total := 0
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
		if i > 0 && v > 59 {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
		total += v * units[i]
	}
	return sign * total, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
