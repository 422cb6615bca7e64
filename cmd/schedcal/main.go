package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"schedcal/internal/config"
	"schedcal/internal/diag"
	"schedcal/internal/export"
	"schedcal/internal/input"
	appLog "schedcal/internal/log"
	"schedcal/internal/output"
	"schedcal/internal/poster"
	"schedcal/internal/schedule"
	"schedcal/internal/state"
	"schedcal/internal/tzdata"
)

type flagConfig struct {
	configPath string
	tzdataDir  string
	now        string
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: schedcal [flags] INPUT_DIR OUTPUT_DIR")
		flag.PrintDefaults()
		return 2
	}
	inputDir := flag.Arg(0)
	outputDir := flag.Arg(1)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return 1
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	now := time.Now()
	if flags.now != "" {
		now, err = time.Parse(time.RFC3339, flags.now)
		if err != nil {
			appLog.Error("invalid -now value", err, "now", flags.now)
			return 1
		}
	}

	rep := diag.NewReporter(os.Stderr)

	zoneFiles := tzdata.BundledFiles()
	if flags.tzdataDir != "" {
		zoneFiles, err = tzdata.LoadDir(flags.tzdataDir)
		if err != nil {
			appLog.Error("failed to read zone database", err, "dir", flags.tzdataDir)
			return 1
		}
	}
	zones, err := tzdata.Build(zoneFiles)
	if err != nil {
		appLog.Error("failed to parse zone database", err)
		return 1
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		appLog.Error("failed to create output directory", err, "dir", outputDir)
		return 1
	}

	st, found, err := state.Load(outputDir)
	if err != nil {
		var pe *state.ParseError
		if errors.As(err, &pe) {
			rep.Report(diag.Diagnostic{
				Severity: diag.SeverityFatal,
				File:     pe.File,
				Pos:      diag.Pos{Line: pe.Line, Col: pe.Col},
				Message:  pe.Err.Error(),
				Help:     "delete the state file to start over",
			})
		} else {
			appLog.Error("failed to load state", err)
		}
		return 1
	}
	if !found {
		rep.Infof("initializing new state")
	}
	posters := poster.Load(filepath.Join(outputDir, "posters"), st, now)

	inputFiles, eventFiles, err := scanInput(inputDir)
	if err != nil {
		appLog.Error("failed to read input directory", err, "dir", inputDir)
		return 1
	}

	meta := loadMeta(inputDir, rep)

	res := &schedule.Resolver{
		Zones:        zones,
		Posters:      posters,
		Files:        inputFiles,
		Now:          now,
		MaxPosterDim: conf.MaxPosterDim,
		Reporter:     rep,
	}

	var events []*output.Event
	var sources []*input.Event
	for _, file := range eventFiles {
		ev := loadEvent(file, rep)
		if ev == nil {
			continue
		}
		resolved, rerr := res.Resolve(ev)
		if rerr != nil {
			continue
		}
		events = append(events, resolved)
		sources = append(sources, ev)
	}

	if n := rep.Fatals(); n > 0 {
		appLog.Error("not writing output", fmt.Errorf("%d fatal diagnostics", n))
		return 1
	}

	posters.Save(st)
	if err := st.Save(outputDir); err != nil {
		appLog.Error("failed to write state", err)
		return 1
	}

	doc := &output.Document{
		Meta:   outputMeta(meta, now),
		Events: events,
		Zones:  zoneTables(zones, sources, now, conf.HorizonDays),
	}
	if err := output.Write(outputDir, doc); err != nil {
		appLog.Error("failed to write schedule", err)
		return 1
	}

	if conf.ExportICS == nil || *conf.ExportICS {
		if err := export.WriteICS(outputDir, meta, sources, now); err != nil {
			appLog.Error("failed to write calendar export", err)
			return 1
		}
	}

	appLog.Info("schedule compiled", "events", len(events), "posters", posters.Len())
	return 0
}

// scanInput lists the input directory once: the full path set feeds poster
// guessing, and the sorted event list keeps output order stable.
func scanInput(dir string) (map[string]struct{}, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	files := make(map[string]struct{}, len(entries))
	var events []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		files[path] = struct{}{}
		if entry.Name() != "meta.toml" && strings.HasSuffix(entry.Name(), ".toml") {
			events = append(events, path)
		}
	}
	sort.Strings(events)
	return files, events, nil
}

// loadMeta reads and parses meta.toml. A missing or invalid file is a
// fatal diagnostic; the run continues so event files still get checked.
func loadMeta(dir string, rep *diag.Reporter) *input.Meta {
	path := filepath.Join(dir, "meta.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		rep.Fatalf(path, diag.Pos{}, "cannot read schedule metadata: %v", err)
		return nil
	}
	meta, err := input.ParseMeta(path, data)
	if err != nil {
		reportParse(rep, path, err)
		return nil
	}
	return meta
}

func loadEvent(path string, rep *diag.Reporter) *input.Event {
	data, err := os.ReadFile(path)
	if err != nil {
		rep.Fatalf(path, diag.Pos{}, "cannot read event file: %v", err)
		return nil
	}
	ev, err := input.ParseEvent(path, data)
	if err != nil {
		reportParse(rep, path, err)
		return nil
	}
	return ev
}

func reportParse(rep *diag.Reporter, path string, err error) {
	var pe *input.ParseError
	if errors.As(err, &pe) {
		rep.Report(pe.Diagnostic())
		return
	}
	rep.Fatalf(path, diag.Pos{}, "%v", err)
}

func outputMeta(meta *input.Meta, now time.Time) *output.Meta {
	if meta == nil {
		return nil
	}
	out := &output.Meta{
		Title:        meta.Title,
		Description:  meta.Description,
		Link:         meta.Link,
		CompiledTime: now.Unix(),
	}
	if len(meta.Languages) > 0 {
		out.Languages = make(map[string]*output.MetaLanguage, len(meta.Languages))
		for code, lang := range meta.Languages {
			out.Languages[code] = &output.MetaLanguage{
				Title:       lang.Title,
				Description: lang.Description,
				Link:        lang.Link,
			}
		}
	}
	return out
}

// zoneTables emits a transition table for every zone the events reference.
func zoneTables(zones *tzdata.Table, events []*input.Event, now time.Time, horizonDays int) map[string]output.Zone {
	out := make(map[string]output.Zone)
	for _, ev := range events {
		if _, ok := out[ev.Timezone]; ok {
			continue
		}
		out[ev.Timezone] = output.Zone{Offsets: zones.Transitions(ev.Timezone, now, horizonDays)}
	}
	return out
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to config file")
	flag.StringVar(&cfg.tzdataDir, "tzdata", "", "Directory of zone database source files (overrides the bundled set)")
	flag.StringVar(&cfg.now, "now", "", "Compile as if the current time were this RFC 3339 instant")

	flag.Parse()

	return cfg
}
