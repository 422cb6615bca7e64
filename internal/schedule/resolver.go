// Package schedule turns parsed event definitions into resolved output
// events: it validates the declared zone, computes concrete instants for
// date bounds and author-asserted dates, resolves the cascading info
// layers, and interns every referenced poster.
package schedule

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"schedcal/internal/diag"
	"schedcal/internal/input"
	"schedcal/internal/output"
	"schedcal/internal/poster"
	"schedcal/internal/tzdata"
)

// Resolver carries the collaborators shared across one run.
type Resolver struct {
	Zones        *tzdata.Table
	Posters      *poster.Cache
	Files        map[string]struct{} // every path in the input directory
	Now          time.Time
	MaxPosterDim int
	Reporter     *diag.Reporter
}

// Resolve validates and converts one event. Diagnostics are reported as
// they are found; a returned error means the event was excluded from the
// output (and a fatal diagnostic was raised), while warnings leave the
// event intact.
func (r *Resolver) Resolve(ev *input.Event) (*output.Event, error) {
	if !r.Zones.Has(ev.Timezone) {
		r.Reporter.Fatalf(ev.File, ev.TimezonePos, "unknown time zone %q", ev.Timezone)
		return nil, fmt.Errorf("unknown time zone %q", ev.Timezone)
	}
	loc, err := time.LoadLocation(ev.Timezone)
	if err != nil {
		r.Reporter.Fatalf(ev.File, ev.TimezonePos, "unknown time zone %q", ev.Timezone)
		return nil, fmt.Errorf("unknown time zone %q: %w", ev.Timezone, err)
	}

	out := &output.Event{
		Name:      eventName(ev),
		Timezone:  ev.Timezone,
		Start:     ev.Start,
		Duration:  ev.Duration,
		Platforms: ev.Platforms,
	}

	if ev.StartDate != nil {
		t, ok := EarliestLocal(*ev.StartDate, 0, loc)
		if !ok {
			r.Reporter.Fatalf(ev.File, diag.Pos{}, "midnight of start date %s does not exist in %s", ev.StartDate, ev.Timezone)
			return nil, fmt.Errorf("non-existent start bound")
		}
		ts := t.Unix()
		out.StartDate = &ts
	}
	if ev.EndDate != nil {
		// The end bound is the midnight after the last included day.
		after := ev.EndDate.AddDays(1)
		t, ok := EarliestLocal(after, 0, loc)
		if !ok {
			r.Reporter.Fatalf(ev.File, diag.Pos{}, "midnight of day after end date %s does not exist in %s", ev.EndDate, ev.Timezone)
			return nil, fmt.Errorf("non-existent end bound")
		}
		ts := t.Unix()
		out.EndDate = &ts
	}

	out.Info = r.convertInfo(ev, ev.Info)
	if ev.Info.Poster == nil {
		if guessed, ok := r.guessPoster(ev); ok {
			out.Info.Poster = r.internPoster(guessed)
		}
	}
	out.Days = r.convertDays(ev, ev.Days)

	if len(ev.Languages) > 0 {
		out.Languages = make(map[string]*output.Language, len(ev.Languages))
		for code, lang := range ev.Languages {
			out.Languages[code] = &output.Language{
				Name: lang.Info.Name,
				Info: r.convertInfo(ev, lang.Info),
				Days: r.convertDays(ev, lang.Days),
			}
		}
	}

	out.Confirmed = r.filterDates(ev, loc, ev.Confirmed, "confirmed", true)
	out.Canceled = r.filterDates(ev, loc, ev.Canceled, "canceled", false)

	return out, nil
}

// filterDates retains only future assertions, warns about dates the event
// cannot occur on, and collapses an emptied list to the boolean "none"
// form. The returned pointer is nil when the set equals its serialized
// default ("all" for confirmed, "none" for canceled) so that the output
// stays sparse.
func (r *Resolver) filterDates(ev *input.Event, loc *time.Location, set input.DateSet, what string, force bool) *output.DateSet {
	if !set.IsList() {
		return boolDateSet(set.All, force)
	}
	future := make([]input.Date, 0, len(set.Dates))
	for _, date := range set.Dates {
		when, ok := OccurrenceInstant(ev, date, loc, force)
		if !ok {
			r.Reporter.Warnf(ev.File, diag.Pos{},
				"the event is %s for %s, but the event is not happening on this day", what, date)
			continue
		}
		if r.Now.Before(when) {
			future = append(future, date)
		}
	}
	if len(future) == 0 {
		return boolDateSet(false, force)
	}
	return &output.DateSet{Dates: future}
}

// boolDateSet maps a boolean form to its output representation, nil when
// it matches the field's serialized default.
func boolDateSet(all bool, confirmed bool) *output.DateSet {
	if confirmed && all {
		return nil // confirmed defaults to "all"
	}
	if !confirmed && !all {
		return nil // canceled defaults to "none"
	}
	return &output.DateSet{All: all}
}

func (r *Resolver) convertDays(ev *input.Event, days input.Days) output.Days {
	var out output.Days
	for w := time.Sunday; w <= time.Saturday; w++ {
		day := days.On(w)
		if day == nil {
			continue
		}
		converted := &output.Day{
			Name:     day.Info.Name,
			Start:    day.Start,
			Duration: day.Duration,
			Info:     r.convertInfo(ev, day.Info),
		}
		out.SetDay(int(w), converted)
	}
	return out
}

// convertInfo maps one info layer into its output form, interning any
// poster it names. Unset fields stay nil so the sparse encoding keeps the
// fallthrough semantics.
func (r *Resolver) convertInfo(ev *input.Event, info input.Info) output.Info {
	out := output.Info{
		Web:         info.Web,
		Discord:     info.Discord,
		Group:       info.Group,
		Twitter:     info.Twitter,
		Join:        info.Join,
		World:       info.World,
		Weeks:       info.Weeks,
		Description: info.Description,
	}
	if info.Hashtag != nil {
		h := MakeHashtag(*info.Hashtag)
		out.Hashtag = &h
	}
	if info.Poster != nil {
		out.Poster = r.internPoster(r.posterPath(ev, *info.Poster))
	}
	return out
}

func (r *Resolver) internPoster(path string) *output.PosterRef {
	img := poster.LoadImage(path, r.MaxPosterDim, r.Reporter)
	if img == nil {
		return nil
	}
	ref, ok := r.Posters.Intern(img)
	if !ok {
		return nil
	}
	return &output.PosterRef{Number: ref.Number, Width: ref.Width, Height: ref.Height}
}

// posterPath resolves an explicit poster reference relative to the event
// file's directory.
func (r *Resolver) posterPath(ev *input.Event, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(ev.File), ref)
}

// guessPoster probes sibling files sharing the event's stem, in a fixed
// extension preference order. Later matches beyond the first are reported
// as warnings but do not change the pick.
func (r *Resolver) guessPoster(ev *input.Event) (string, bool) {
	stem := strings.TrimSuffix(ev.File, filepath.Ext(ev.File))
	found := ""
	for _, ext := range []string{"webp", "jpeg", "jpg", "png"} {
		candidate := stem + "." + ext
		if _, ok := r.Files[candidate]; !ok {
			continue
		}
		if found == "" {
			found = candidate
			continue
		}
		r.Reporter.Report(diag.Diagnostic{
			Severity: diag.SeverityWarning,
			File:     ev.File,
			Message:  fmt.Sprintf("ignoring poster %q and using %q instead", candidate, found),
			Help:     "events should only have one poster",
		})
	}
	return found, found != ""
}

func eventName(ev *input.Event) string {
	if ev.Info.Name != nil {
		return *ev.Info.Name
	}
	base := filepath.Base(ev.File)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
