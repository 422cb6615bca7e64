package poster

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"schedcal/internal/diag"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// TestLoadImage checks probing of a well-formed poster.
func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poster.png")
	writePNG(t, path, 320, 180)

	var buf bytes.Buffer
	img := LoadImage(path, 2048, diag.NewReporter(&buf))
	if img == nil {
		t.Fatalf("LoadImage returned nil: %s", buf.String())
	}
	if img.Width != 320 || img.Height != 180 {
		t.Errorf("unexpected dimensions: %dx%d", img.Width, img.Height)
	}
	if img.SHA256 == ([32]byte{}) {
		t.Errorf("digest not computed")
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected diagnostics: %s", buf.String())
	}
}

// TestLoadImageTooLarge checks the dimension bound warning.
func TestLoadImageTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poster.png")
	writePNG(t, path, 64, 64)

	var buf bytes.Buffer
	rep := diag.NewReporter(&buf)
	if img := LoadImage(path, 32, rep); img != nil {
		t.Fatalf("oversized image should be rejected")
	}
	if !strings.Contains(buf.String(), "too large") {
		t.Errorf("expected a size warning, got %q", buf.String())
	}
	if rep.Fatals() != 0 {
		t.Errorf("size rejection must not be fatal")
	}
}

// TestLoadImageUnreadable checks the missing-file warning path.
func TestLoadImageUnreadable(t *testing.T) {
	var buf bytes.Buffer
	if img := LoadImage(filepath.Join(t.TempDir(), "absent.png"), 2048, diag.NewReporter(&buf)); img != nil {
		t.Fatalf("missing file should yield nil")
	}
	if !strings.Contains(buf.String(), "could not open poster") {
		t.Errorf("expected an open warning, got %q", buf.String())
	}
}

// TestLoadImageGarbage checks the undecodable-content warning path.
func TestLoadImageGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poster.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var buf bytes.Buffer
	if img := LoadImage(path, 2048, diag.NewReporter(&buf)); img != nil {
		t.Fatalf("garbage content should yield nil")
	}
	if !strings.Contains(buf.String(), "could not be processed") {
		t.Errorf("expected a decode warning, got %q", buf.String())
	}
}
