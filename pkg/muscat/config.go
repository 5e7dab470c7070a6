package muscat

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-muscat/pkg/instrument"
	"github.com/df07/go-muscat/pkg/material"
	"github.com/df07/go-muscat/pkg/workspace"
	"github.com/df07/go-muscat/pkg/xsection"
)

const (
	DefaultEvents      = 1000
	DefaultSeed        = 123456789
	DefaultScatterings = 1
	MaxScatterings     = 5

	// maxEntryAttempts bounds the search for a track that enters the sample
	maxEntryAttempts = 100
	// maxQAttempts bounds the rejection sampling of momentum transfer
	maxQAttempts = 1000
)

// Config contains the simulation settings
type Config struct {
	EventsSingle   int            // Events per bin for single scattering (and the no-absorption pass)
	EventsMultiple int            // Events per bin for each order above one
	Seed           int64          // Global seed; each detector uses Seed + index
	Scatterings    int            // Highest scattering order simulated (1-5)
	NumWorkers     int            // Number of parallel workers (0 = use CPU count)
	Interpolation  xsection.Scheme // Coefficient scheme for table lookups
	OutputPrefix   string         // Prefix of the output workspace names
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		EventsSingle:   DefaultEvents,
		EventsMultiple: DefaultEvents,
		Seed:           DefaultSeed,
		Scatterings:    DefaultScatterings,
		NumWorkers:     0, // Auto-detect CPU count
		Interpolation:  xsection.SchemeLiteral,
		OutputPrefix:   "Scatter_",
	}
}

// Validate checks the configuration bounds
func (c Config) Validate() error {
	issues := &ValidationError{}
	if c.EventsSingle < 1 {
		issues.add("EventsSingle", fmt.Errorf("must be >= 1, got %d", c.EventsSingle))
	}
	if c.EventsMultiple < 1 {
		issues.add("EventsMultiple", fmt.Errorf("must be >= 1, got %d", c.EventsMultiple))
	}
	if c.Seed < 1 {
		issues.add("Seed", fmt.Errorf("must be >= 1, got %d", c.Seed))
	}
	if c.Scatterings < 1 || c.Scatterings > MaxScatterings {
		issues.add("Scatterings", fmt.Errorf("must be between 1 and %d, got %d", MaxScatterings, c.Scatterings))
	}
	if c.NumWorkers < 0 {
		issues.add("NumWorkers", fmt.Errorf("must be >= 0, got %d", c.NumWorkers))
	}
	return issues.orNil()
}

// Input holds everything the simulation reads. It is not modified.
type Input struct {
	Sample     *material.Sample
	Instrument *instrument.Instrument
	// Workspace has one spectrum per detector; X holds wavelength points in Å
	Workspace *workspace.Workspace
	// SofQ is the structure factor S(Q), Q in Å⁻¹
	SofQ *xsection.Table
	// ScatteringXSection optionally replaces the material's scattering
	// cross section in the attenuation term, as a function of k in Å⁻¹
	ScatteringXSection *xsection.Table
}

// NewSofQ builds an S(Q) table, reporting bad values as a configuration error
func NewSofQ(q, s []float64) (*xsection.Table, error) {
	table, err := xsection.NewTable(q, s)
	if err != nil {
		issues := &ValidationError{}
		issues.add("SofQ", err)
		return nil, issues
	}
	return table, nil
}

// ValidateInputs reports every problem with the inputs and configuration.
// Nothing is simulated when it returns an error.
func ValidateInputs(input Input, config Config) error {
	issues := &ValidationError{}
	if err := config.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			for k, v := range ve.Issues {
				issues.add(k, v)
			}
		}
	}

	if input.Sample == nil {
		issues.add("Sample", errors.New("input does not have a sample"))
	} else if err := input.Sample.Validate(); err != nil {
		issues.add("Sample", err)
	} else if !(input.Sample.Material.TotalScatterXSection() > 0) {
		issues.add("Sample", fmt.Errorf("scattering cross section must be > 0, got %g",
			input.Sample.Material.TotalScatterXSection()))
	}

	validateTable(issues, "SofQ", input.SofQ, true)
	validateTable(issues, "ScatteringXSection", input.ScatteringXSection, false)

	if input.Instrument == nil {
		issues.add("Instrument", errors.New("input does not have an instrument"))
	} else if err := input.Instrument.Validate(); err != nil {
		issues.add("Instrument", err)
	} else if input.Sample != nil && input.Sample.Shape != nil &&
		input.Sample.Shape.BoundingBox().Contains(input.Instrument.Source) {
		issues.add("Instrument", fmt.Errorf("source %v lies inside the sample bounding box", input.Instrument.Source))
	}

	validateWorkspace(issues, input)
	return issues.orNil()
}

func validateTable(issues *ValidationError, key string, table *xsection.Table, required bool) {
	if table == nil {
		if required {
			issues.add(key, errors.New("table is required"))
		}
		return
	}
	if table.Len() < 3 {
		issues.add(key, xsection.ErrTooFewPoints)
		return
	}
	if lowest := floats.Min(table.Values()); !(lowest > 0) {
		issues.add(key, fmt.Errorf("%w: minimum is %g", xsection.ErrNonPositive, lowest))
	}
}

func validateWorkspace(issues *ValidationError, input Input) {
	ws := input.Workspace
	if ws == nil {
		issues.add("Workspace", errors.New("input does not have a wavelength workspace"))
		return
	}
	if input.Instrument == nil {
		return
	}
	for i, s := range ws.Spectra {
		if s.DetectorIndex < 0 || s.DetectorIndex >= len(input.Instrument.Detectors) {
			issues.add("Workspace", fmt.Errorf("spectrum %d refers to unknown detector index %d", i, s.DetectorIndex))
			return
		}
		if len(s.X) < len(s.Y) {
			issues.add("Workspace", fmt.Errorf("spectrum %d has fewer x than y values", i))
			return
		}
		for _, wavelength := range s.X[:len(s.Y)] {
			if !(wavelength > 0) || math.IsInf(wavelength, 0) {
				issues.add("Workspace", fmt.Errorf("spectrum %d has non-positive wavelength %g", i, wavelength))
				return
			}
		}
	}
}
