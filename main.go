package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-muscat/pkg/core"
	"github.com/df07/go-muscat/pkg/experiment"
	"github.com/df07/go-muscat/pkg/muscat"
	"github.com/df07/go-muscat/pkg/workspace"
)

var CLI struct {
	Run      RunCmd      `cmd:"" help:"Simulate an experiment and write the scattered intensities"`
	Validate ValidateCmd `cmd:"" help:"Check an experiment file without simulating"`
}

// RunCmd simulates an experiment file
type RunCmd struct {
	Config  string `name:"config" short:"c" required:"" help:"experiment YAML file"`
	Output  string `name:"output" short:"o" help:"result JSON file (default output/<name>/result_<timestamp>.json)"`
	Workers int    `name:"workers" help:"override the number of parallel workers (0 = keep file setting)"`
	Seed    int64  `name:"seed" help:"override the random seed (0 = keep file setting)"`
}

// ValidateCmd checks an experiment file
type ValidateCmd struct {
	Config string `name:"config" short:"c" required:"" help:"experiment YAML file"`
}

// resultFile is the JSON document written by the run command
type resultFile struct {
	Name       string                 `json:"name"`
	CreatedAt  time.Time              `json:"createdAt"`
	Settings   settings               `json:"settings"`
	Stats      muscat.RunStats        `json:"stats"`
	Workspaces []*workspace.Workspace `json:"workspaces"`
}

type settings struct {
	EventsSingle   int    `json:"eventsSingle"`
	EventsMultiple int    `json:"eventsMultiple"`
	Seed           int64  `json:"seed"`
	Scatterings    int    `json:"scatterings"`
	Interpolation  string `json:"interpolation"`
}

func (c RunCmd) Run() error {
	exp, err := experiment.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Workers > 0 {
		exp.Config.NumWorkers = c.Workers
	}
	if c.Seed > 0 {
		exp.Config.Seed = c.Seed
	}

	logger := core.NewDefaultLogger()
	sim, err := exp.NewSimulator(logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Starting simulation of %s...\n", exp.Name)
	result, err := sim.Run(ctx, func(p muscat.DetectorProgress) {
		if p.IsMonitor {
			return
		}
		fmt.Printf("Detector %d done (%d/%d, %v)\n", p.DetectorID, p.Completed, p.Total, p.Elapsed.Round(time.Millisecond))
	})
	if err != nil {
		return err
	}

	filename := c.Output
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join("output", exp.Name, fmt.Sprintf("result_%s.json", timestamp))
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %v", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating file: %v", err)
	}
	defer file.Close()

	if err := writeResult(file, exp, result); err != nil {
		return fmt.Errorf("error saving result: %v", err)
	}

	printSummary(os.Stdout, result)
	fmt.Printf("Result saved as %s\n", filename)
	return nil
}

func (c ValidateCmd) Run() error {
	exp, err := experiment.Load(c.Config)
	if err != nil {
		return err
	}
	if err := muscat.ValidateInputs(exp.Input, exp.Config); err != nil {
		return err
	}
	fmt.Printf("%s: %d spectra x %d bins, up to %d scatters\n",
		exp.Name, exp.Input.Workspace.NumberHistograms(), exp.Input.Workspace.Blocksize(), exp.Config.Scatterings)
	return nil
}

// writeResult encodes the output group with the settings that produced it
func writeResult(w io.Writer, exp *experiment.Experiment, result *muscat.Result) error {
	doc := resultFile{
		Name:      exp.Name,
		CreatedAt: time.Now().UTC(),
		Settings: settings{
			EventsSingle:   exp.Config.EventsSingle,
			EventsMultiple: exp.Config.EventsMultiple,
			Seed:           exp.Config.Seed,
			Scatterings:    exp.Config.Scatterings,
			Interpolation:  exp.Config.Interpolation.String(),
		},
		Stats:      result.Stats,
		Workspaces: result.Group.Workspaces,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// printSummary prints the total intensity of each output workspace
func printSummary(w io.Writer, result *muscat.Result) {
	for _, ws := range result.Group.Workspaces {
		total := 0.0
		for _, s := range ws.Spectra {
			total += floats.Sum(s.Y)
		}
		fmt.Fprintf(w, "%-18s total intensity %.6g\n", ws.Name, total)
	}
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("muscat"),
		kong.Description("Monte-Carlo estimate of single and multiple elastic neutron scattering."),
	)
	if err := ctx.Run(); err != nil {
		log.Fatal(err)
	}
}
