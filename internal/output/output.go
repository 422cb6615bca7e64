// Package output defines the compiled schedule document. Encoding is
// deliberately sparse: unset or default fields are omitted entirely so
// that clients treat absence as fallthrough to the enclosing scope.
package output

import (
	"encoding/json"
	"fmt"

	"schedcal/internal/input"
	"schedcal/internal/tzdata"
)

// Document is the whole compiled artifact.
type Document struct {
	Meta   *Meta           `json:"meta"`
	Events []*Event        `json:"events"`
	Zones  map[string]Zone `json:"zones"`
}

// Meta is the resolved global metadata.
type Meta struct {
	Title        string                   `json:"title"`
	Description  *string                  `json:"desc,omitempty"`
	Link         *string                  `json:"link,omitempty"`
	CompiledTime int64                    `json:"ts"`
	Languages    map[string]*MetaLanguage `json:"lang,omitempty"`
}

type MetaLanguage struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"desc,omitempty"`
	Link        *string `json:"link,omitempty"`
}

// PosterRef points into the poster store: slot number plus pixel size.
type PosterRef struct {
	Number uint8  `json:"n"`
	Width  uint16 `json:"w"`
	Height uint16 `json:"h"`
}

// Hashtag is emitted as a bare string when it is already safe to splice
// into a URL component, otherwise as a display/escaped pair.
type Hashtag struct {
	Display string
	Escaped string // empty when Display is already safe
}

func (h Hashtag) MarshalJSON() ([]byte, error) {
	if h.Escaped == "" {
		return json.Marshal(h.Display)
	}
	return json.Marshal(struct {
		Display string `json:"display"`
		Escaped string `json:"escaped"`
	}{h.Display, h.Escaped})
}

// Info is one resolved layer of the cascading event description.
type Info struct {
	Poster      *PosterRef   `json:"poster,omitempty"`
	Web         *string      `json:"web,omitempty"`
	Discord     *string      `json:"discord,omitempty"`
	Group       *string      `json:"group,omitempty"`
	Hashtag     *Hashtag     `json:"hashtag,omitempty"`
	Twitter     *string      `json:"twitter,omitempty"`
	Join        []input.User `json:"join,omitempty"`
	World       *input.World `json:"world,omitempty"`
	Weeks       []int        `json:"weeks,omitempty"`
	Description *string      `json:"desc,omitempty"`
}

// Day is a resolved per-weekday override.
type Day struct {
	Name     *string `json:"name,omitempty"`
	Start    *int    `json:"start,omitempty"`
	Duration *int    `json:"duration,omitempty"`
	Info
}

// Days holds the seven optional per-weekday overrides.
type Days struct {
	Monday    *Day `json:"monday,omitempty"`
	Tuesday   *Day `json:"tuesday,omitempty"`
	Wednesday *Day `json:"wednesday,omitempty"`
	Thursday  *Day `json:"thursday,omitempty"`
	Friday    *Day `json:"friday,omitempty"`
	Saturday  *Day `json:"saturday,omitempty"`
	Sunday    *Day `json:"sunday,omitempty"`
}

// Language is a resolved per-language override.
type Language struct {
	Name *string `json:"name,omitempty"`
	Info
	Days
}

// DateSet is the filtered confirmed/canceled form: either the boolean
// marker or a non-empty explicit date list.
type DateSet struct {
	All   bool
	Dates []input.Date // nil means the boolean form
}

func (s DateSet) MarshalJSON() ([]byte, error) {
	if s.Dates != nil {
		return json.Marshal(s.Dates)
	}
	return json.Marshal(s.All)
}

// Event is one resolved event.
type Event struct {
	Name      string  `json:"name"`
	StartDate *int64  `json:"start_date,omitempty"`
	EndDate   *int64  `json:"end_date,omitempty"`
	Info
	Timezone  string               `json:"tz"`
	Start     int                  `json:"start"`
	Duration  int                  `json:"duration"`
	Platforms []input.Platform     `json:"platforms"`
	Days
	Languages map[string]*Language `json:"lang,omitempty"`
	// Confirmed is omitted in the default "all" form, Canceled in the
	// default "none" form; the resolver leaves them nil in those cases.
	Confirmed *DateSet `json:"confirmed,omitempty"`
	Canceled  *DateSet `json:"canceled,omitempty"`
}

// Zone is a sparse forward-looking transition table.
type Zone struct {
	Offsets []tzdata.Transition `json:"r"`
}

// SetDay stores a resolved day under its weekday slot, mirroring
// input.Days indexing.
func (d *Days) SetDay(weekday int, day *Day) error {
	switch weekday {
	case 0:
		d.Sunday = day
	case 1:
		d.Monday = day
	case 2:
		d.Tuesday = day
	case 3:
		d.Wednesday = day
	case 4:
		d.Thursday = day
	case 5:
		d.Friday = day
	case 6:
		d.Saturday = day
	default:
		return fmt.Errorf("invalid weekday %d", weekday)
	}
	return nil
}
