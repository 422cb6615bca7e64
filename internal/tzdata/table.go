package tzdata

import (
	"fmt"
	"sort"
)

// File is one zic source file to feed into Build.
type File struct {
	Name string
	Data []byte
}

// Table is the fully built zone database: named rule sets, zones as
// ordered segment lists, and alias links.
type Table struct {
	ruleSets map[string][]RuleLine
	zones    map[string][]ZoneSegment
	links    map[string]string
}

// Builder accumulates classified lines into a Table. Continuation lines
// extend the most recently opened zone.
type Builder struct {
	table   Table
	current string
}

func NewBuilder() *Builder {
	return &Builder{
		table: Table{
			ruleSets: make(map[string][]RuleLine),
			zones:    make(map[string][]ZoneSegment),
			links:    make(map[string]string),
		},
	}
}

// Add merges one classified line into the table under construction.
func (b *Builder) Add(ln Line) error {
	switch {
	case ln.Rule != nil:
		b.table.ruleSets[ln.Rule.Name] = append(b.table.ruleSets[ln.Rule.Name], *ln.Rule)
		b.current = ""
	case ln.Zone != nil:
		name := ln.Zone.Name
		if _, dup := b.table.zones[name]; dup {
			return fmt.Errorf("duplicate zone %q", name)
		}
		b.table.zones[name] = []ZoneSegment{ln.Zone.Segment}
		if ln.Zone.Segment.Until == nil {
			// A zone whose first segment is unbounded takes no
			// continuations.
			b.current = ""
		} else {
			b.current = name
		}
	case ln.Continuation != nil:
		if b.current == "" {
			return fmt.Errorf("continuation line without an open zone")
		}
		b.table.zones[b.current] = append(b.table.zones[b.current], *ln.Continuation)
		if ln.Continuation.Until == nil {
			b.current = ""
		}
	case ln.Link != nil:
		b.table.links[ln.Link.Name] = ln.Link.Target
		b.current = ""
	}
	return nil
}

// Table finalizes the build: every zone must end in an unbounded segment
// and every referenced rule set must exist.
func (b *Builder) Table() (*Table, error) {
	for name, segments := range b.table.zones {
		last := segments[len(segments)-1]
		if last.Until != nil {
			return nil, fmt.Errorf("zone %q has no unbounded final segment", name)
		}
		for _, seg := range segments {
			if seg.Rules.Kind == rulesNamed {
				if _, ok := b.table.ruleSets[seg.Rules.Name]; !ok {
					return nil, fmt.Errorf("zone %q references undefined rule set %q", name, seg.Rules.Name)
				}
			}
		}
	}
	for name, target := range b.table.links {
		if _, err := b.table.resolve(target); err != nil {
			return nil, fmt.Errorf("link %q: %w", name, err)
		}
	}
	return &b.table, nil
}

// Build parses every file and accumulates the whole database, aborting on
// the first malformed line with a file:line diagnostic.
func Build(files []File) (*Table, error) {
	builder := NewBuilder()
	for _, file := range files {
		lineNo := 0
		for line := range splitLines(file.Data) {
			lineNo++
			line = stripComment(line)
			parsed, err := ParseLine(line)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", file.Name, lineNo, err)
			}
			if parsed.IsBlank() {
				continue
			}
			if err := builder.Add(parsed); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", file.Name, lineNo, err)
			}
		}
	}
	return builder.Table()
}

// resolve follows links to a real zone's segment list.
func (t *Table) resolve(name string) ([]ZoneSegment, error) {
	for range 4 {
		if segments, ok := t.zones[name]; ok {
			return segments, nil
		}
		target, ok := t.links[name]
		if !ok {
			return nil, fmt.Errorf("unknown zone %q", name)
		}
		name = target
	}
	return nil, fmt.Errorf("link chain too deep at %q", name)
}

// Has reports whether the name is a known zone or alias.
func (t *Table) Has(name string) bool {
	_, err := t.resolve(name)
	return err == nil
}

// Names returns every zone and alias name in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.zones)+len(t.links))
	for name := range t.zones {
		names = append(names, name)
	}
	for name := range t.links {
		if _, shadowed := t.zones[name]; !shadowed {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '#' {
			return line[:i]
		}
	}
	return line
}

// splitLines yields the lines of data without their terminators. A final
// line without a trailing newline still counts.
func splitLines(data []byte) func(func(string) bool) {
	return func(yield func(string) bool) {
		start := 0
		for i := 0; i < len(data); i++ {
			if data[i] == '\n' {
				end := i
				if end > start && data[end-1] == '\r' {
					end--
				}
				if !yield(string(data[start:end])) {
					return
				}
				start = i + 1
			}
		}
		if start < len(data) {
			yield(string(data[start:]))
		}
	}
}
