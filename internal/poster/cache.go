// Package poster deduplicates promotional images into a bounded
// content-addressed store. Images are keyed by the SHA-256 of their bytes;
// each distinct image gets a stable one-byte slot whose two-hex-digit name
// is the file on disk. When the catalogue is full the least-recently-used
// entry is evicted and its slot reused.
package poster

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"schedcal/internal/log"
	"schedcal/internal/state"
)

// MaxEntries caps the catalogue; slot numbers range 0 through
// MaxEntries-1.
const MaxEntries = 255

// Ref is the stable output reference to a cached image.
type Ref struct {
	Number uint8
	Width  uint16
	Height uint16
}

// Cache is the in-memory catalogue plus the on-disk slot directory.
type Cache struct {
	dir      string
	posters  []state.Poster
	bySHA256 map[state.Digest]uint8
	now      time.Time
}

// Load seeds a cache from the persisted catalogue and ensures the slot
// directory exists. Directory creation failure is logged, not fatal: the
// run can still resolve events, it just loses poster output.
func Load(dir string, st *state.State, now time.Time) *Cache {
	posters := make([]state.Poster, len(st.Posters))
	copy(posters, st.Posters)

	bySHA256 := make(map[state.Digest]uint8, len(posters))
	for i, p := range posters {
		bySHA256[p.SHA256] = uint8(i)
	}

	if _, err := os.Stat(dir); err != nil {
		if err := os.Mkdir(dir, 0o755); err != nil {
			log.Error("could not create poster directory", err, "dir", dir)
		}
	}

	return &Cache{dir: dir, posters: posters, bySHA256: bySHA256, now: now}
}

// Save writes the catalogue back into the durable state.
func (c *Cache) Save(st *state.State) {
	st.Posters = c.posters
}

// Len reports the number of catalogued entries.
func (c *Cache) Len() int { return len(c.posters) }

// Intern resolves an image to its slot reference, inserting or evicting
// as needed. A hit refreshes the entry's last-used stamp and performs no
// file I/O. Returns false when the image bytes could not be copied into
// the store; the caller proceeds without a poster.
func (c *Cache) Intern(img *Image) (Ref, bool) {
	if index, hit := c.bySHA256[img.SHA256]; hit {
		c.posters[index].LastUsed = c.now
		return Ref{Number: index, Width: img.Width, Height: img.Height}, true
	}

	var index uint8
	if len(c.posters) < MaxEntries {
		index = uint8(len(c.posters))
		c.posters = append(c.posters, state.Poster{LastUsed: c.now, SHA256: img.SHA256})
	} else {
		index = c.evictLRU()
		c.posters[index] = state.Poster{LastUsed: c.now, SHA256: img.SHA256}
	}
	c.bySHA256[img.SHA256] = index

	if err := c.copyInto(index, img.Source); err != nil {
		log.Error("could not store poster", err, "source", img.Source, "slot", index)
		return Ref{}, false
	}
	return Ref{Number: index, Width: img.Width, Height: img.Height}, true
}

// evictLRU picks the entry with the oldest last-used stamp, ties broken
// by lowest slot, and removes its digest mapping. The slot is left for the
// caller to overwrite.
func (c *Cache) evictLRU() uint8 {
	index := 0
	for i := 1; i < len(c.posters); i++ {
		if c.posters[i].LastUsed.Before(c.posters[index].LastUsed) {
			index = i
		}
	}
	delete(c.bySHA256, c.posters[index].SHA256)
	return uint8(index)
}

func (c *Cache) copyInto(index uint8, source string) error {
	src, err := os.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(c.dir, fmt.Sprintf("%02x", index)))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
