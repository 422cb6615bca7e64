// Package diag collects and renders run diagnostics. The compiler keeps
// going after most problems so that a single run surfaces everything wrong
// with the input; the Reporter counts fatal diagnostics so that the driver
// can decide whether the output artifacts may be written at all.
package diag

import (
	"fmt"
	"io"
	"strings"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

// Pos is a 1-based position inside a source file. A zero Line means the
// position is unknown and only the file name is rendered.
type Pos struct {
	Line int
	Col  int
}

// Diagnostic is a single reportable condition tied to an input file.
type Diagnostic struct {
	Severity Severity
	File     string
	Pos      Pos
	Message  string
	Help     string
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	if d.File != "" {
		b.WriteString(d.File)
		if d.Pos.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Pos.Line)
			if d.Pos.Col > 0 {
				fmt.Fprintf(&b, ":%d", d.Pos.Col)
			}
		}
		b.WriteString(": ")
	}
	b.WriteString(d.Message)
	if d.Help != "" {
		b.WriteString("\n  help: ")
		b.WriteString(d.Help)
	}
	return b.String()
}

// Reporter renders diagnostics to a stream and owns the fatal counter that
// gates artifact writing and the process exit status.
type Reporter struct {
	out    io.Writer
	fatals int
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) Report(d Diagnostic) {
	if d.Severity == SeverityFatal {
		r.fatals++
	}
	fmt.Fprintln(r.out, d.String())
}

func (r *Reporter) Fatalf(file string, pos Pos, format string, args ...any) {
	r.Report(Diagnostic{
		Severity: SeverityFatal,
		File:     file,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *Reporter) Warnf(file string, pos Pos, format string, args ...any) {
	r.Report(Diagnostic{
		Severity: SeverityWarning,
		File:     file,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *Reporter) Infof(format string, args ...any) {
	r.Report(Diagnostic{
		Severity: SeverityInfo,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Fatals reports how many fatal diagnostics have been seen so far.
func (r *Reporter) Fatals() int {
	return r.fatals
}
