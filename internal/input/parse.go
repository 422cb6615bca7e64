package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"schedcal/internal/diag"
)

// ParseError is a parse or validation failure tied to a source position.
type ParseError struct {
	File string
	Pos  diag.Pos
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Pos.Line, e.Pos.Col, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

// Diagnostic converts the error into a reportable diagnostic.
func (e *ParseError) Diagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SeverityFatal,
		File:     e.File,
		Pos:      e.Pos,
		Message:  e.Msg,
	}
}

type rawInfo struct {
	Name        *string `toml:"name"`
	Description *string `toml:"description"`
	Web         *string `toml:"web"`
	Poster      *string `toml:"poster"`
	Hashtag     *string `toml:"hashtag"`
	Twitter     *string `toml:"twitter"`
	Group       *string `toml:"group"`
	Discord     *string `toml:"discord"`
	Join        []User  `toml:"join"`
	World       *World  `toml:"world"`
	Weeks       []int   `toml:"weeks"`
}

type rawDay struct {
	rawInfo
	Start    any `toml:"start"`
	Duration any `toml:"duration"`
}

type rawDays struct {
	Monday    *rawDay `toml:"monday"`
	Tuesday   *rawDay `toml:"tuesday"`
	Wednesday *rawDay `toml:"wednesday"`
	Thursday  *rawDay `toml:"thursday"`
	Friday    *rawDay `toml:"friday"`
	Saturday  *rawDay `toml:"saturday"`
	Sunday    *rawDay `toml:"sunday"`
}

type rawLanguage struct {
	rawInfo
	rawDays
}

type rawEvent struct {
	rawInfo
	StartDate *toml.LocalDate        `toml:"start_date"`
	EndDate   *toml.LocalDate        `toml:"end_date"`
	Timezone  string                 `toml:"timezone"`
	Start     any                    `toml:"start"`
	Duration  any                    `toml:"duration"`
	Platforms []string               `toml:"platforms"`
	Days      *rawDays               `toml:"days"`
	Languages map[string]rawLanguage `toml:"languages"`
	Confirmed any                    `toml:"confirmed"`
	Canceled  any                    `toml:"canceled"`
}

type rawMeta struct {
	Title       *string                    `toml:"title"`
	Description *string                    `toml:"description"`
	Link        *string                    `toml:"link"`
	Languages   map[string]rawMetaLanguage `toml:"languages"`
}

type rawMetaLanguage struct {
	Title       *string `toml:"title"`
	Description *string `toml:"description"`
	Link        *string `toml:"link"`
}

// decodeStrict unmarshals TOML rejecting unknown fields, translating
// library errors into positioned ParseErrors.
func decodeStrict(file string, data []byte, v any) error {
	dec := toml.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err == nil {
		return nil
	}

	var strict *toml.StrictMissingError
	if errors.As(err, &strict) && len(strict.Errors) > 0 {
		e := strict.Errors[0]
		row, col := e.Position()
		return &ParseError{
			File: file,
			Pos:  diag.Pos{Line: row, Col: col},
			Msg:  fmt.Sprintf("unknown field %s", strings.Join(e.Key(), ".")),
		}
	}
	var decErr *toml.DecodeError
	if errors.As(err, &decErr) {
		row, col := decErr.Position()
		return &ParseError{
			File: file,
			Pos:  diag.Pos{Line: row, Col: col},
			Msg:  decErr.Error(),
		}
	}
	return &ParseError{File: file, Msg: err.Error()}
}

// ParseEvent parses and validates one event definition file.
func ParseEvent(file string, data []byte) (*Event, error) {
	var raw rawEvent
	if err := decodeStrict(file, data, &raw); err != nil {
		return nil, err
	}

	ev := &Event{
		File:        file,
		TimezonePos: keyPos(data, "timezone"),
		Info:        raw.rawInfo.normalize(),
		Timezone:    raw.Timezone,
		Languages:   make(map[string]*Language, len(raw.Languages)),
	}

	if raw.StartDate != nil {
		d := localDate(*raw.StartDate)
		ev.StartDate = &d
	}
	if raw.EndDate != nil {
		d := localDate(*raw.EndDate)
		ev.EndDate = &d
	}
	if ev.Timezone == "" {
		return nil, &ParseError{File: file, Msg: "missing timezone"}
	}

	start, err := timeOfDay(raw.Start, "start")
	if err != nil {
		return nil, &ParseError{File: file, Msg: err.Error()}
	}
	ev.Start = start
	duration, err := minutes(raw.Duration, "duration")
	if err != nil {
		return nil, &ParseError{File: file, Msg: err.Error()}
	}
	ev.Duration = duration

	ev.Platforms, err = platforms(raw.Platforms)
	if err != nil {
		return nil, &ParseError{File: file, Msg: err.Error()}
	}

	if raw.Days == nil {
		// No [days] table at all: every weekday is scheduled with no
		// overrides.
		for w := time.Sunday; w <= time.Saturday; w++ {
			ev.Days.Set(w, &Day{})
		}
	} else {
		ev.Days, err = days(raw.Days)
		if err != nil {
			return nil, &ParseError{File: file, Msg: err.Error()}
		}
	}

	for code, rl := range raw.Languages {
		norm, err := LanguageCode(code)
		if err != nil {
			return nil, &ParseError{File: file, Msg: err.Error()}
		}
		lang := &Language{Info: rl.rawInfo.normalize()}
		lang.Days, err = days(&rl.rawDays)
		if err != nil {
			return nil, &ParseError{File: file, Msg: fmt.Sprintf("language %s: %v", code, err)}
		}
		ev.Languages[norm] = lang
	}

	ev.Confirmed, err = dateSet(raw.Confirmed, AllDates())
	if err != nil {
		return nil, &ParseError{File: file, Msg: fmt.Sprintf("confirmed: %v", err)}
	}
	ev.Canceled, err = dateSet(raw.Canceled, NoDates())
	if err != nil {
		return nil, &ParseError{File: file, Msg: fmt.Sprintf("canceled: %v", err)}
	}

	return ev, nil
}

// ParseMeta parses and validates the global metadata file.
func ParseMeta(file string, data []byte) (*Meta, error) {
	var raw rawMeta
	if err := decodeStrict(file, data, &raw); err != nil {
		return nil, err
	}
	if raw.Title == nil || *raw.Title == "" {
		return nil, &ParseError{File: file, Msg: "missing title"}
	}
	meta := &Meta{
		Title:       *raw.Title,
		Description: raw.Description,
		Link:        raw.Link,
		Languages:   make(map[string]*MetaLanguage, len(raw.Languages)),
	}
	for code, rl := range raw.Languages {
		norm, err := LanguageCode(code)
		if err != nil {
			return nil, &ParseError{File: file, Msg: err.Error()}
		}
		meta.Languages[norm] = &MetaLanguage{
			Title:       rl.Title,
			Description: rl.Description,
			Link:        rl.Link,
		}
	}
	return meta, nil
}

// LanguageCode validates an ISO 639-1 language code and returns its
// canonical lowercase form.
func LanguageCode(code string) (string, error) {
	if len(code) != 2 {
		return "", fmt.Errorf("language key %q is not a two-letter ISO 639-1 code", code)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("unknown language code %q", code)
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", fmt.Errorf("unknown language code %q", code)
	}
	return strings.ToLower(base.String()), nil
}

func (r rawInfo) normalize() Info {
	return Info{
		Name:        r.Name,
		Description: r.Description,
		Web:         r.Web,
		Poster:      r.Poster,
		Hashtag:     r.Hashtag,
		Twitter:     r.Twitter,
		Group:       r.Group,
		Discord:     r.Discord,
		Join:        r.Join,
		World:       r.World,
		Weeks:       r.Weeks,
	}
}

func days(raw *rawDays) (Days, error) {
	var out Days
	for _, e := range []struct {
		weekday time.Weekday
		raw     *rawDay
	}{
		{time.Monday, raw.Monday},
		{time.Tuesday, raw.Tuesday},
		{time.Wednesday, raw.Wednesday},
		{time.Thursday, raw.Thursday},
		{time.Friday, raw.Friday},
		{time.Saturday, raw.Saturday},
		{time.Sunday, raw.Sunday},
	} {
		if e.raw == nil {
			continue
		}
		day := &Day{Info: e.raw.rawInfo.normalize()}
		if e.raw.Start != nil {
			v, err := timeOfDay(e.raw.Start, "start")
			if err != nil {
				return out, fmt.Errorf("%s: %w", strings.ToLower(e.weekday.String()), err)
			}
			day.Start = &v
		}
		if e.raw.Duration != nil {
			v, err := minutes(e.raw.Duration, "duration")
			if err != nil {
				return out, fmt.Errorf("%s: %w", strings.ToLower(e.weekday.String()), err)
			}
			day.Duration = &v
		}
		out.Set(e.weekday, day)
	}
	return out, nil
}

// minutes interprets the three accepted spellings of a minute count: a
// bare integer, an "HH:MM" (or plain-number) string, or a TOML local time
// with whole minutes.
func minutes(v any, what string) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("missing %s", what)
	case int64:
		if t < 0 {
			return 0, fmt.Errorf("%s must not be negative", what)
		}
		return int(t), nil
	case string:
		if h, m, ok := strings.Cut(t, ":"); ok {
			hours, err := strconv.ParseUint(h, 10, 16)
			if err != nil {
				return 0, fmt.Errorf("invalid %s %q", what, t)
			}
			mins, err := strconv.ParseUint(m, 10, 16)
			if err != nil {
				return 0, fmt.Errorf("invalid %s %q", what, t)
			}
			return int(hours)*60 + int(mins), nil
		}
		mins, err := strconv.ParseUint(t, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", what, t)
		}
		return int(mins), nil
	case toml.LocalTime:
		if t.Second != 0 || t.Nanosecond != 0 {
			return 0, fmt.Errorf("%s must contain whole minutes", what)
		}
		return t.Hour*60 + t.Minute, nil
	default:
		return 0, fmt.Errorf("invalid %s value %v", what, v)
	}
}

// timeOfDay is minutes constrained to a single day.
func timeOfDay(v any, what string) (int, error) {
	m, err := minutes(v, what)
	if err != nil {
		return 0, err
	}
	if m >= 24*60 {
		return 0, fmt.Errorf("%s must be less than 24:00", what)
	}
	return m, nil
}

func platforms(raw []string) ([]Platform, error) {
	if raw == nil {
		return []Platform{PlatformPC}, nil
	}
	out := make([]Platform, 0, len(raw))
	for _, p := range raw {
		switch Platform(p) {
		case PlatformPC, PlatformQuest:
			out = append(out, Platform(p))
		default:
			return nil, fmt.Errorf("unknown platform %q", p)
		}
	}
	return out, nil
}

func dateSet(v any, def DateSet) (DateSet, error) {
	switch t := v.(type) {
	case nil:
		return def, nil
	case bool:
		return DateSet{All: t}, nil
	case []any:
		dates := make([]Date, 0, len(t))
		for _, e := range t {
			switch d := e.(type) {
			case toml.LocalDate:
				dates = append(dates, localDate(d))
			case string:
				parsed, err := ParseDate(d)
				if err != nil {
					return DateSet{}, err
				}
				dates = append(dates, parsed)
			default:
				return DateSet{}, fmt.Errorf("expected a date, got %v", e)
			}
		}
		return DateSet{Dates: dates}, nil
	default:
		return DateSet{}, fmt.Errorf("expected a boolean or a list of dates, got %v", v)
	}
}

func localDate(d toml.LocalDate) Date {
	return Date{Year: d.Year, Month: time.Month(d.Month), Day: d.Day}
}

// keyPos locates the first top-level assignment of the given key so that
// diagnostics can point at it. Best effort; returns a zero Pos when the key
// is not found on its own line.
func keyPos(data []byte, key string) diag.Pos {
	for i, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		rest, ok := strings.CutPrefix(trimmed, key)
		if !ok {
			continue
		}
		rest = strings.TrimLeft(rest, " \t")
		if strings.HasPrefix(rest, "=") {
			return diag.Pos{Line: i + 1, Col: len(line) - len(trimmed) + 1}
		}
	}
	return diag.Pos{}
}
