// Package input parses the TOML event and metadata files that make up a
// schedule source directory. Parsing is strict: unknown fields are rejected
// with the row/column of the offending key so that diagnostics point at the
// exact spot in the file.
package input

import (
	"time"

	"schedcal/internal/diag"
)

// Platform identifies where an event can be attended.
type Platform string

const (
	PlatformPC    Platform = "pc"
	PlatformQuest Platform = "quest"
)

// User is a named participant reference.
type User struct {
	Name string `toml:"name" json:"name"`
	ID   string `toml:"id" json:"id"`
}

// World is a venue reference.
type World struct {
	Name string `toml:"name" json:"name"`
	ID   string `toml:"id" json:"id"`
}

// Info is one layer of the cascading event description. Nil fields are
// unset and fall through to the enclosing scope when the schedule is
// interpreted; see schedule.EffectiveDay for the resolution rule.
type Info struct {
	Name        *string
	Description *string
	Web         *string
	Poster      *string
	Hashtag     *string
	Twitter     *string
	Group       *string
	Discord     *string
	Join        []User
	World       *World
	Weeks       []int
}

// Day is a per-weekday override: an info layer plus optional start
// time-of-day and duration, both in minutes.
type Day struct {
	Info     Info
	Start    *int
	Duration *int
}

// Days holds the optional per-weekday overrides, indexed by time.Weekday.
type Days [7]*Day

// On returns the override for the given weekday, or nil.
func (d Days) On(w time.Weekday) *Day { return d[w] }

// Set replaces the override for the given weekday.
func (d *Days) Set(w time.Weekday, day *Day) { d[w] = day }

// Language is a per-language override: an info layer plus its own nested
// per-weekday overrides.
type Language struct {
	Info Info
	Days Days
}

// Event is a parsed event definition.
type Event struct {
	// File is the path of the source file, kept for diagnostics and for
	// poster guessing by file stem.
	File string

	// TimezonePos is the position of the timezone key in the source file,
	// so that "unknown time zone" diagnostics point at the value.
	TimezonePos diag.Pos

	Info      Info
	StartDate *Date
	EndDate   *Date
	Timezone  string
	Start     int // minutes since local midnight
	Duration  int // minutes
	Platforms []Platform
	Days      Days
	Languages map[string]*Language
	Confirmed DateSet
	Canceled  DateSet
}

// Meta is the parsed global metadata file.
type Meta struct {
	Title       string
	Description *string
	Link        *string
	Languages   map[string]*MetaLanguage
}

// MetaLanguage is a per-language override of the global metadata fields.
type MetaLanguage struct {
	Title       *string
	Description *string
	Link        *string
}
