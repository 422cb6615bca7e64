package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"schedcal/internal/input"
)

// TestHashtagMarshal checks the bare-string versus display/escaped pair
// encodings.
func TestHashtagMarshal(t *testing.T) {
	plain, err := json.Marshal(Hashtag{Display: "dance"})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(plain) != `"dance"` {
		t.Errorf("safe hashtag should encode as a bare string, got %s", plain)
	}

	pair, err := json.Marshal(Hashtag{Display: "dance night", Escaped: "dance%20night"})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	want := `{"display":"dance night","escaped":"dance%20night"}`
	if string(pair) != want {
		t.Errorf("got %s, want %s", pair, want)
	}
}

// TestDateSetMarshal checks the boolean and list encodings.
func TestDateSetMarshal(t *testing.T) {
	tests := []struct {
		set  DateSet
		want string
	}{
		{set: DateSet{All: true}, want: `true`},
		{set: DateSet{All: false}, want: `false`},
		{set: DateSet{Dates: []input.Date{{Year: 2024, Month: time.June, Day: 3}}}, want: `["2024-06-03"]`},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.set)
		if err != nil {
			t.Errorf("Marshal(%+v) returned error: %v", tt.set, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("Marshal(%+v) = %s, want %s", tt.set, got, tt.want)
		}
	}
}

// TestEventMarshalSparse checks that unset fields disappear from the
// encoded event and set ones use their wire names.
func TestEventMarshalSparse(t *testing.T) {
	ev := &Event{
		Name:      "dance-night",
		Timezone:  "Europe/Berlin",
		Start:     1200,
		Duration:  90,
		Platforms: []input.Platform{input.PlatformPC},
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	s := string(data)
	for _, absent := range []string{"confirmed", "canceled", "lang", "start_date", "end_date", "poster", "monday"} {
		if strings.Contains(s, `"`+absent+`"`) {
			t.Errorf("unset field %q should be omitted: %s", absent, s)
		}
	}
	for _, present := range []string{`"tz":"Europe/Berlin"`, `"start":1200`, `"duration":90`} {
		if !strings.Contains(s, present) {
			t.Errorf("missing %s in %s", present, s)
		}
	}
}

// TestEventMarshalDateSets checks the explicit confirmed/canceled forms
// survive into the encoding.
func TestEventMarshalDateSets(t *testing.T) {
	ev := &Event{
		Name:      "x",
		Timezone:  "UTC",
		Platforms: []input.Platform{input.PlatformPC},
		Confirmed: &DateSet{},
		Canceled:  &DateSet{Dates: []input.Date{{Year: 2024, Month: time.June, Day: 10}}},
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"confirmed":false`) {
		t.Errorf("expected collapsed confirmed, got %s", s)
	}
	if !strings.Contains(s, `"canceled":["2024-06-10"]`) {
		t.Errorf("expected canceled date list, got %s", s)
	}
}

// TestDaysSetDay checks weekday slot mapping.
func TestDaysSetDay(t *testing.T) {
	var days Days
	day := &Day{}
	if err := days.SetDay(int(time.Wednesday), day); err != nil {
		t.Fatalf("SetDay returned error: %v", err)
	}
	if days.Wednesday != day {
		t.Fatalf("Wednesday slot not set")
	}
	if err := days.SetDay(7, day); err == nil {
		t.Fatalf("expected an error for an invalid weekday")
	}
}
