package tzdata

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

//go:embed data
var bundled embed.FS

// BundledFiles returns the zone database shipped inside the binary,
// trimmed to the current-era rules the forward window consumes.
func BundledFiles() []File {
	entries, err := bundled.ReadDir("data")
	if err != nil {
		// The embedded tree is part of the build; its absence is a
		// programming error.
		panic(err)
	}
	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		data, err := bundled.ReadFile("data/" + entry.Name())
		if err != nil {
			panic(err)
		}
		files = append(files, File{Name: entry.Name(), Data: data})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

// LoadDir reads a zic source tree from disk, for use with a full IANA
// database instead of the bundled one. Subdirectories are skipped.
func LoadDir(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read tzdata dir: %w", err)
	}
	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read tzdata file: %w", err)
		}
		files = append(files, File{Name: entry.Name(), Data: data})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
