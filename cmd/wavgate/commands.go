package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Raikerian/go-voice-enhancer/internal/config"
	"github.com/Raikerian/go-voice-enhancer/internal/enhance"
	"github.com/Raikerian/go-voice-enhancer/internal/infrastructure"
)

// Globals are flags shared by every command.
type Globals struct {
	Config  string `short:"c" type:"path" help:"Path to YAML config file (optional)."`
	Verbose bool   `short:"v" help:"Log every pipeline step."`

	stdout io.Writer `kong:"-"`
}

func (g *Globals) out() io.Writer {
	if g.stdout == nil {
		return os.Stdout
	}
	return g.stdout
}

// setup loads the configuration (file when given, .env and ENHANCER_*
// overrides always) and builds the logger and pipeline.
func (g *Globals) setup(params Overrides) (*enhance.Pipeline, *zap.Logger, error) {
	cfg, err := config.LoadConfig(g.Config)
	if err != nil {
		return nil, nil, err
	}
	params.apply(&cfg.Enhance)

	level := "warn"
	if g.Verbose {
		level = "debug"
	}
	logger, err := infrastructure.NewLogger(level)
	if err != nil {
		return nil, nil, err
	}

	pipeline, err := enhance.NewPipeline(logger, cfg.Enhance)
	if err != nil {
		return nil, nil, err
	}
	return pipeline, logger, nil
}

// Overrides are per-run parameter overrides. Unset flags keep the
// configured value.
type Overrides struct {
	ThresholdBoostDB *float64       `name:"threshold-boost-db" help:"Gate threshold above the noise floor, in dB."`
	ReductionFactor  *float64       `name:"reduction-factor" help:"Gain applied to gated samples, in (0, 1]."`
	Attack           *time.Duration `help:"Gate opening time constant."`
	Release          *time.Duration `help:"Gate closing time constant."`
	ProfileWindow    *time.Duration `name:"profile-window" help:"Leading span used to measure the noise floor."`
}

func (o Overrides) apply(cfg *enhance.Config) {
	if o.ThresholdBoostDB != nil {
		cfg.ThresholdBoostDB = *o.ThresholdBoostDB
	}
	if o.ReductionFactor != nil {
		cfg.ReductionFactor = *o.ReductionFactor
	}
	if o.Attack != nil {
		cfg.Attack = *o.Attack
	}
	if o.Release != nil {
		cfg.Release = *o.Release
	}
	if o.ProfileWindow != nil {
		cfg.ProfileWindow = *o.ProfileWindow
	}
}

// EnhanceCmd writes an enhanced copy of each input next to it or into
// OutDir.
type EnhanceCmd struct {
	Overrides Overrides `embed:""`

	Files  []string `arg:"" name:"files" help:"WAV files to process." type:"existingfile"`
	OutDir string   `name:"out-dir" short:"o" type:"path" help:"Directory for output files (default: next to the input)."`
	Suffix string   `default:"enhanced" help:"Suffix joined to output file names with a dash, e.g. --suffix soft writes take-soft.wav."`
	Jobs   int      `short:"j" help:"Files processed in parallel (default: CPU count)."`
}

type enhanceReport struct {
	in, out string
	res     enhance.Result
}

// Run processes the files concurrently and prints one line per file.
func (e *EnhanceCmd) Run(g *Globals) error {
	pipeline, logger, err := g.setup(e.Overrides)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if e.OutDir != "" {
		if err := os.MkdirAll(e.OutDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	jobs := e.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	reports := make([]enhanceReport, len(e.Files))
	var group errgroup.Group
	group.SetLimit(jobs)
	for i, path := range e.Files {
		i, path := i, path
		group.Go(func() error {
			input, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			res := pipeline.Process(input)
			out := e.outputPath(path)
			if err := os.WriteFile(out, res.Output, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			reports[i] = enhanceReport{in: path, out: out, res: res}
			return nil
		})
	}
	err = group.Wait()

	for _, r := range reports {
		if r.out == "" {
			continue
		}
		line := fmt.Sprintf("%s -> %s (%s", r.in, r.out, r.res.Outcome)
		if r.res.Profile != nil {
			line += fmt.Sprintf(", noise floor %.1f dBFS", r.res.Profile.NoiseFloorDB)
		}
		if r.res.Err != nil {
			line += ": " + r.res.Err.Error()
		}
		fmt.Fprintln(g.out(), line+")")
	}
	return err
}

func (e *EnhanceCmd) outputPath(in string) string {
	dir := e.OutDir
	if dir == "" {
		dir = filepath.Dir(in)
	}
	ext := filepath.Ext(in)
	name := strings.TrimSuffix(filepath.Base(in), ext)
	return filepath.Join(dir, name+"-"+strings.TrimLeft(e.Suffix, "-")+ext)
}

// InspectCmd prints the descriptor and noise profile of each file.
type InspectCmd struct {
	Files []string `arg:"" name:"files" help:"WAV files to inspect." type:"existingfile"`
	JSON  bool     `help:"Print one JSON object per file."`
}

type inspectLine struct {
	File string `json:"file"`
	enhance.Analysis
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// Run analyses each file in order.
func (c *InspectCmd) Run(g *Globals) error {
	pipeline, logger, err := g.setup(Overrides{})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	lines := make([]inspectLine, 0, len(c.Files))
	for _, path := range c.Files {
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		a := pipeline.Analyze(input)
		line := inspectLine{File: path, Analysis: a, Outcome: a.Outcome.String()}
		if a.Err != nil {
			line.Error = a.Err.Error()
		}
		lines = append(lines, line)
	}

	if c.JSON {
		enc := json.NewEncoder(g.out())
		for _, l := range lines {
			if err := enc.Encode(l); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tRATE\tCH\tBITS\tDURATION\tNOISE FLOOR\tTHRESHOLD\tSTATUS")
	for _, l := range lines {
		d := l.Descriptor
		floor, threshold := "-", "-"
		if l.Profile != nil {
			floor = fmt.Sprintf("%.1f dB", l.Profile.NoiseFloorDB)
			threshold = fmt.Sprintf("%.1f dB", l.Profile.GateThresholdDB)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.3fs\t%s\t%s\t%s\n",
			l.File, d.SampleRate, d.NumChannels, d.BitsPerSample, d.DurationSeconds, floor, threshold, l.Outcome)
	}
	return tw.Flush()
}
