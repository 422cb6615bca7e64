package output

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"schedcal/internal/fsx"
)

const FileName = "data.json"

// Write marshals the document compactly and writes it atomically into the
// output directory.
func Write(outputDir string, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	return fsx.WriteFileAtomic(filepath.Join(outputDir, FileName), append(data, '\n'))
}
