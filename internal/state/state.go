// Package state persists the poster catalogue between runs. The state
// file lives next to the compiled output and is rewritten atomically at
// the end of every successful run.
package state

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"schedcal/internal/fsx"
)

const FileName = "state.json"

// Digest is a SHA-256 content digest, serialized as standard base64.
type Digest [sha256.Size]byte

func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(d[:]))
}

func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid digest encoding: %w", err)
	}
	if len(raw) != sha256.Size {
		return fmt.Errorf("unexpected digest length %d", len(raw))
	}
	copy(d[:], raw)
	return nil
}

// Poster is one catalogue entry. Its index in the Posters slice is the
// cache slot number.
type Poster struct {
	LastUsed time.Time `json:"last_used"`
	SHA256   Digest    `json:"sha256"`
}

// State is the durable record carried across runs.
type State struct {
	Posters []Poster `json:"posters"`
}

// ParseError is a malformed state file, positioned for diagnostics.
type ParseError struct {
	File string
	Line int
	Col  int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.File, e.Line, e.Col, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads the state file from the output directory. A missing file is
// not an error: it yields an empty state and ok == false so the caller can
// log the first-run case. A malformed file is returned as a *ParseError.
func Load(outputDir string) (st *State, ok bool, err error) {
	path := filepath.Join(outputDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &State{}, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	st = &State{}
	if err := json.Unmarshal(data, st); err != nil {
		line, col := 1, 1
		var syntax *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntax):
			line, col = offsetPos(data, syntax.Offset)
		case errors.As(err, &typ):
			line, col = offsetPos(data, typ.Offset)
		}
		return nil, false, &ParseError{File: path, Line: line, Col: col, Err: err}
	}
	return st, true, nil
}

// Save writes the state file atomically into the output directory.
func (s *State) Save(outputDir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return fsx.WriteFileAtomic(filepath.Join(outputDir, FileName), append(data, '\n'))
}

// offsetPos converts a byte offset into a 1-based line and column.
func offsetPos(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := data[:offset]
	line = bytes.Count(prefix, []byte{'\n'}) + 1
	last := bytes.LastIndexByte(prefix, '\n')
	col = int(offset) - last
	return line, col
}
