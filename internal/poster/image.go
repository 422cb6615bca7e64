package poster

import (
	"crypto/sha256"
	"fmt"
	"image"
	"io"
	"os"

	// Dimension probing for the accepted poster formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"schedcal/internal/diag"
	"schedcal/internal/state"
)

// Image is a loaded poster candidate ready for interning: its source
// path, probed dimensions and content digest.
type Image struct {
	Source string
	Width  uint16
	Height uint16
	SHA256 state.Digest
}

// LoadImage probes and digests an image file. Every failure mode is a
// warning, never fatal: the event simply proceeds without this poster.
// maxDim bounds both width and height.
func LoadImage(path string, maxDim int, rep *diag.Reporter) *Image {
	f, err := os.Open(path)
	if err != nil {
		rep.Warnf(path, diag.Pos{}, "could not open poster: %v", err)
		return nil
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		rep.Warnf(path, diag.Pos{}, "poster could not be processed: %v", err)
		return nil
	}
	if cfg.Width > maxDim || cfg.Height > maxDim {
		rep.Report(diag.Diagnostic{
			Severity: diag.SeverityWarning,
			File:     path,
			Message:  fmt.Sprintf("image is too large (%dx%d)", cfg.Width, cfg.Height),
			Help:     fmt.Sprintf("images cannot be larger than %dx%d", maxDim, maxDim),
		})
		return nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		rep.Warnf(path, diag.Pos{}, "could not read poster: %v", err)
		return nil
	}
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		rep.Warnf(path, diag.Pos{}, "could not read poster: %v", err)
		return nil
	}

	img := &Image{
		Source: path,
		Width:  uint16(cfg.Width),
		Height: uint16(cfg.Height),
	}
	copy(img.SHA256[:], hasher.Sum(nil))
	return img
}
