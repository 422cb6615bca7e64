package poster

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"schedcal/internal/state"
)

var cacheNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func testImage(t *testing.T, dir string, seed byte) *Image {
	t.Helper()
	source := filepath.Join(dir, "src-"+string('a'+rune(seed)))
	if err := os.WriteFile(source, []byte{seed, seed, seed}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	img := &Image{Source: source, Width: 100, Height: 50}
	img.SHA256[0] = seed
	return img
}

// TestInternAssignsSequentialSlots checks slot numbering and the on-disk
// two-hex-digit names.
func TestInternAssignsSequentialSlots(t *testing.T) {
	dir := t.TempDir()
	cache := Load(filepath.Join(dir, "posters"), &state.State{}, cacheNow)

	for seed := byte(0); seed < 3; seed++ {
		ref, ok := cache.Intern(testImage(t, dir, seed))
		if !ok {
			t.Fatalf("Intern failed for seed %d", seed)
		}
		if ref.Number != seed {
			t.Errorf("expected slot %d, got %d", seed, ref.Number)
		}
		if ref.Width != 100 || ref.Height != 50 {
			t.Errorf("dimensions lost: %+v", ref)
		}
	}
	if cache.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", cache.Len())
	}
	for _, name := range []string{"00", "01", "02"} {
		if _, err := os.Stat(filepath.Join(dir, "posters", name)); err != nil {
			t.Errorf("missing slot file %s: %v", name, err)
		}
	}
}

// TestInternIdempotent checks that re-interning the same content is a
// hit: same slot, no growth, no file rewrite needed.
func TestInternIdempotent(t *testing.T) {
	dir := t.TempDir()
	cache := Load(filepath.Join(dir, "posters"), &state.State{}, cacheNow)

	img := testImage(t, dir, 1)
	first, ok := cache.Intern(img)
	if !ok {
		t.Fatalf("Intern failed")
	}

	// Remove the source: a hit must not touch it.
	if err := os.Remove(img.Source); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	second, ok := cache.Intern(img)
	if !ok {
		t.Fatalf("second Intern failed")
	}
	if first.Number != second.Number || cache.Len() != 1 {
		t.Fatalf("re-intern changed the catalogue: %+v vs %+v, len %d", first, second, cache.Len())
	}
}

// TestInternEvictsLRU checks that a full catalogue evicts the oldest
// entry and reuses its slot.
func TestInternEvictsLRU(t *testing.T) {
	dir := t.TempDir()

	st := &state.State{Posters: make([]state.Poster, MaxEntries)}
	for i := range st.Posters {
		st.Posters[i].LastUsed = cacheNow.Add(-time.Duration(i) * time.Minute)
		st.Posters[i].SHA256[0] = byte(i)
		st.Posters[i].SHA256[1] = 0xff
	}
	// Slot 7 is the stalest.
	st.Posters[7].LastUsed = cacheNow.Add(-24 * time.Hour)

	cache := Load(filepath.Join(dir, "posters"), st, cacheNow)
	img := testImage(t, dir, 1)
	ref, ok := cache.Intern(img)
	if !ok {
		t.Fatalf("Intern failed")
	}
	if ref.Number != 7 {
		t.Fatalf("expected eviction of slot 7, got %d", ref.Number)
	}
	if cache.Len() != MaxEntries {
		t.Fatalf("catalogue size changed: %d", cache.Len())
	}
}

// TestInternEvictionTieBreaksLowestSlot checks deterministic eviction
// when several entries share the oldest stamp.
func TestInternEvictionTieBreaksLowestSlot(t *testing.T) {
	dir := t.TempDir()

	st := &state.State{Posters: make([]state.Poster, MaxEntries)}
	for i := range st.Posters {
		st.Posters[i].LastUsed = cacheNow.Add(-time.Hour)
		st.Posters[i].SHA256[0] = byte(i)
		st.Posters[i].SHA256[1] = 0xff
	}

	cache := Load(filepath.Join(dir, "posters"), st, cacheNow)
	ref, ok := cache.Intern(testImage(t, dir, 1))
	if !ok {
		t.Fatalf("Intern failed")
	}
	if ref.Number != 0 {
		t.Fatalf("tie should evict the lowest slot, got %d", ref.Number)
	}
}

// TestSaveRoundTrip checks that the catalogue survives a save/load cycle.
func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache := Load(filepath.Join(dir, "posters"), &state.State{}, cacheNow)
	img := testImage(t, dir, 5)
	if _, ok := cache.Intern(img); !ok {
		t.Fatalf("Intern failed")
	}

	var st state.State
	cache.Save(&st)
	if len(st.Posters) != 1 || st.Posters[0].SHA256 != img.SHA256 {
		t.Fatalf("unexpected saved state: %+v", st)
	}
	if !st.Posters[0].LastUsed.Equal(cacheNow) {
		t.Fatalf("unexpected last-used stamp: %v", st.Posters[0].LastUsed)
	}

	reloaded := Load(filepath.Join(dir, "posters"), &st, cacheNow.Add(time.Hour))
	ref, ok := reloaded.Intern(img)
	if !ok {
		t.Fatalf("Intern after reload failed")
	}
	if ref.Number != 0 {
		t.Fatalf("slot not stable across reload: %d", ref.Number)
	}
}
