// Command caloqc runs the per-channel statistics engine over a batch of
// monitoring cycles, read from a JSON-lines file or produced by the built-in
// synthetic generator, then renders the published artifacts as an HTML report
// with optional PNG plots and records a run summary.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/calo.monitor/internal/conditions"
	"github.com/banshee-data/calo.monitor/internal/config"
	"github.com/banshee-data/calo.monitor/internal/qc"
	"github.com/banshee-data/calo.monitor/internal/report"
	"github.com/banshee-data/calo.monitor/internal/runlog"
	"github.com/banshee-data/calo.monitor/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "caloqc: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "JSON run configuration file")
	cycleFile := flag.String("cycles", "", "JSON-lines cycle input file (one CycleInput per line)")
	paramsJSON := flag.String("params", "", `task parameters as JSON, e.g. '{"pedestal":"on","chi2":"on"}'`)
	conditionsDB := flag.String("conditions-db", "", "sqlite bad-channel conditions database")
	outDir := flag.String("out", "", "report output directory")
	storePath := flag.String("store", "", "sqlite run-summary database")
	synthetic := flag.Int("synthetic", 0, "generate this many synthetic cycles instead of reading -cycles")
	events := flag.Int("events", 0, "events per synthetic cycle")
	seed := flag.Int64("seed", 0, "synthetic generator seed")
	plots := flag.Bool("plots", true, "write PNG plots next to the HTML report")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("caloqc", version.String())
		return nil
	}

	cfg := &config.RunConfig{}
	if *configPath != "" {
		loaded, err := config.LoadRunConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// Explicit flags override the config file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	params := cfg.GetTaskParams()
	if set["params"] {
		params = map[string]string{}
		if err := json.Unmarshal([]byte(*paramsJSON), &params); err != nil {
			return fmt.Errorf("parse -params: %w", err)
		}
	}
	condPath := cfg.GetConditionsDB()
	if set["conditions-db"] {
		condPath = *conditionsDB
	}
	reportDir := cfg.GetReportDir()
	if set["out"] {
		reportDir = *outDir
	}
	summaryDB := cfg.GetSummaryDB()
	if set["store"] {
		summaryDB = *storePath
	}
	inputFile := cfg.GetCycleFile()
	if set["cycles"] {
		inputFile = *cycleFile
	}
	nCycles := cfg.GetSyntheticCycles()
	if set["synthetic"] {
		nCycles = *synthetic
	}
	nEvents := cfg.GetEventsPerCycle()
	if set["events"] {
		nEvents = *events
	}
	genSeed := cfg.GetSeed()
	if set["seed"] {
		genSeed = *seed
	}
	renderPlots := cfg.GetRenderPlots()
	if set["plots"] {
		renderPlots = *plots
	}

	var provider conditions.Provider
	if condPath != "" {
		store, err := conditions.Open(condPath)
		if err != nil {
			return err
		}
		defer store.Close()
		provider = store
	}

	task := qc.NewTask(params, provider)
	ctx := context.Background()

	var cycles int
	var records int64
	process := func(in qc.CycleInput) {
		task.StartOfCycle()
		task.ProcessCycle(ctx, in)
		task.EndOfCycle()
		cycles++
		records += int64(len(in.Cells))
	}

	if inputFile != "" {
		if err := feedCycleFile(inputFile, process); err != nil {
			return err
		}
	} else {
		gen := newGenerator(genSeed, task.Mode(), params["chi2"] == "on", nEvents)
		for i := 0; i < nCycles; i++ {
			process(gen.nextCycle())
		}
	}

	task.EndOfActivity()
	artifacts := task.Artifacts()

	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	htmlPath := filepath.Join(reportDir, "report.html")
	if err := report.WriteHTML(htmlPath, artifacts); err != nil {
		return err
	}
	if renderPlots {
		if _, err := report.WritePlots(filepath.Join(reportDir, "plots"), artifacts); err != nil {
			return err
		}
	}

	fmt.Printf("activity %s mode=%s cycles=%d records=%d skipped=%d\n",
		task.ActivityID(), task.Mode(), cycles, records, task.SkippedRecords())
	for _, s := range report.Summaries(artifacts) {
		if s.NonZero == 0 {
			continue
		}
		fmt.Printf("  %-22s n=%-6d mean=%-12.4g sd=%-12.4g range=[%.4g, %.4g]\n",
			s.Name, s.NonZero, s.Mean, s.StdDev, s.Min, s.Max)
	}
	fmt.Printf("report written to %s\n", htmlPath)

	if summaryDB != "" {
		rl, err := runlog.Open(summaryDB)
		if err != nil {
			return err
		}
		defer rl.Close()
		if err := rl.Record(ctx, runlog.RunSummary{
			ActivityID:     task.ActivityID(),
			Mode:           task.Mode().String(),
			Cycles:         cycles,
			Records:        records,
			SkippedRecords: task.SkippedRecords(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// feedCycleFile streams a JSON-lines file, one CycleInput per line. Blank
// lines are skipped; a malformed line fails the run with its line number.
func feedCycleFile(path string, process func(qc.CycleInput)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cycle file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var in qc.CycleInput
		if err := json.Unmarshal(line, &in); err != nil {
			return fmt.Errorf("cycle file line %d: %w", lineNo, err)
		}
		process(in)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read cycle file: %w", err)
	}
	return nil
}
