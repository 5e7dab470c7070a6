// Package experiment reads YAML experiment files into simulation inputs.
package experiment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-muscat/pkg/core"
	"github.com/df07/go-muscat/pkg/geometry"
	"github.com/df07/go-muscat/pkg/instrument"
	"github.com/df07/go-muscat/pkg/loaders"
	"github.com/df07/go-muscat/pkg/material"
	"github.com/df07/go-muscat/pkg/muscat"
	"github.com/df07/go-muscat/pkg/workspace"
	"github.com/df07/go-muscat/pkg/xsection"
)

// ErrExperiment marks a malformed experiment file
var ErrExperiment = errors.New("experiment: invalid experiment file")

// File is the YAML layout of an experiment
type File struct {
	Name               string         `yaml:"name"`
	Sample             SampleSpec     `yaml:"sample"`
	Instrument         InstrumentSpec `yaml:"instrument"`
	Wavelength         WavelengthSpec `yaml:"wavelength"`
	SofQ               TableSpec      `yaml:"sofq"`
	ScatteringXSection *TableSpec     `yaml:"scatteringXSection,omitempty"`
	Simulation         SimulationSpec `yaml:"simulation"`
}

// SampleSpec describes the sample shape and material
type SampleSpec struct {
	Shape       ShapeSpec    `yaml:"shape"`
	Material    MaterialSpec `yaml:"material"`
	Environment bool         `yaml:"environment,omitempty"`
}

// ShapeSpec describes one of the supported solids. Lengths are in metres.
type ShapeSpec struct {
	Type        string    `yaml:"type"` // sphere, box, cylinder, hollow-cylinder
	Center      []float64 `yaml:"center,omitempty"`
	Radius      float64   `yaml:"radius,omitempty"`
	InnerRadius float64   `yaml:"innerRadius,omitempty"`
	Height      float64   `yaml:"height,omitempty"`
	Axis        []float64 `yaml:"axis,omitempty"` // Defaults to the up axis
	Size        []float64 `yaml:"size,omitempty"` // Full box extents
}

// MaterialSpec holds the bulk cross sections
type MaterialSpec struct {
	Name            string  `yaml:"name"`
	NumberDensity   float64 `yaml:"numberDensity"`
	PackingFraction float64 `yaml:"packingFraction,omitempty"`
	ScatterXSection float64 `yaml:"scatterXSection"`
	AbsorbXSection  float64 `yaml:"absorbXSection"`
}

// InstrumentSpec describes a ring of detectors around the sample
type InstrumentSpec struct {
	Name        string    `yaml:"name"`
	L1          float64   `yaml:"l1"`
	L2          float64   `yaml:"l2"`
	TwoThetaMin float64   `yaml:"twoThetaMin"`
	TwoThetaMax float64   `yaml:"twoThetaMax"`
	Detectors   int       `yaml:"detectors"`
	Monitor     bool      `yaml:"monitor,omitempty"`
	Frame       FrameSpec `yaml:"frame,omitempty"`
}

// FrameSpec names the up and beam axes
type FrameSpec struct {
	Up   string `yaml:"up,omitempty"`
	Beam string `yaml:"beam,omitempty"`
}

// WavelengthSpec gives either explicit points or an even axis, in Å
type WavelengthSpec struct {
	Values []float64 `yaml:"values,omitempty"`
	Min    float64   `yaml:"min,omitempty"`
	Max    float64   `yaml:"max,omitempty"`
	Points int       `yaml:"points,omitempty"`
}

// TableSpec gives a table inline or as a file relative to the experiment
type TableSpec struct {
	File string    `yaml:"file,omitempty"`
	X    []float64 `yaml:"x,omitempty"`
	Y    []float64 `yaml:"y,omitempty"`
}

// SimulationSpec holds the run settings; omitted fields keep their defaults
type SimulationSpec struct {
	EventsSingle   int    `yaml:"eventsSingle"`
	EventsMultiple int    `yaml:"eventsMultiple"`
	Seed           int64  `yaml:"seed"`
	Scatterings    int    `yaml:"scatterings"`
	Workers        int    `yaml:"workers"`
	Interpolation  string `yaml:"interpolation"`
}

// Experiment is a decoded experiment ready to simulate
type Experiment struct {
	Name   string
	Input  muscat.Input
	Config muscat.Config
}

// Load reads an experiment file. Table files are resolved relative to it.
func Load(filename string) (*Experiment, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment file: %v", err)
	}
	return Parse(data, filepath.Dir(filename))
}

// Parse decodes an experiment. Unknown keys are rejected.
func Parse(data []byte, baseDir string) (*Experiment, error) {
	file, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return file.Build(baseDir)
}

// ParseInline decodes an experiment whose tables are all given inline
func ParseInline(data []byte) (*Experiment, error) {
	file, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if file.SofQ.File != "" || (file.ScatteringXSection != nil && file.ScatteringXSection.File != "") {
		return nil, fmt.Errorf("%w: table files are not allowed, give values inline", ErrExperiment)
	}
	return file.Build("")
}

// Decode reads the YAML layout, filling omitted simulation settings with
// their defaults
func Decode(data []byte) (*File, error) {
	defaults := muscat.DefaultConfig()
	file := &File{
		Simulation: SimulationSpec{
			EventsSingle:   defaults.EventsSingle,
			EventsMultiple: defaults.EventsMultiple,
			Seed:           defaults.Seed,
			Scatterings:    defaults.Scatterings,
			Workers:        defaults.NumWorkers,
			Interpolation:  defaults.Interpolation.String(),
		},
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", ErrExperiment)
		}
		return nil, fmt.Errorf("%w: %v", ErrExperiment, err)
	}
	return file, nil
}

// Build turns the decoded file into simulation inputs
func (f *File) Build(baseDir string) (*Experiment, error) {
	frame, err := f.Instrument.Frame.build()
	if err != nil {
		return nil, err
	}

	shape, err := f.Sample.Shape.build(frame)
	if err != nil {
		return nil, err
	}

	inst, err := instrument.NewRingInstrument(instrument.RingConfig{
		Name:        f.Instrument.Name,
		L1:          f.Instrument.L1,
		L2:          f.Instrument.L2,
		TwoThetaMin: f.Instrument.TwoThetaMin,
		TwoThetaMax: f.Instrument.TwoThetaMax,
		Count:       f.Instrument.Detectors,
		Monitor:     f.Instrument.Monitor,
		Frame:       frame,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExperiment, err)
	}

	wavelengths, err := f.Wavelength.build()
	if err != nil {
		return nil, err
	}

	q, s, err := f.SofQ.load(baseDir, "sofq")
	if err != nil {
		return nil, err
	}
	sofq, err := muscat.NewSofQ(q, s)
	if err != nil {
		return nil, err
	}

	var sigmaS *xsection.Table
	if f.ScatteringXSection != nil {
		k, sigma, err := f.ScatteringXSection.load(baseDir, "scatteringXSection")
		if err != nil {
			return nil, err
		}
		if sigmaS, err = xsection.NewTable(k, sigma); err != nil {
			return nil, fmt.Errorf("%w: scatteringXSection: %v", ErrExperiment, err)
		}
	}

	scheme, err := xsection.ParseScheme(f.Simulation.Interpolation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExperiment, err)
	}

	config := muscat.DefaultConfig()
	config.EventsSingle = f.Simulation.EventsSingle
	config.EventsMultiple = f.Simulation.EventsMultiple
	config.Seed = f.Simulation.Seed
	config.Scatterings = f.Simulation.Scatterings
	config.NumWorkers = f.Simulation.Workers
	config.Interpolation = scheme

	name := f.Name
	if name == "" {
		name = "experiment"
	}

	return &Experiment{
		Name: name,
		Input: muscat.Input{
			Sample: &material.Sample{
				Shape: shape,
				Material: &material.Material{
					Name:            f.Sample.Material.Name,
					NumberDensity:   f.Sample.Material.NumberDensity,
					PackingFraction: f.Sample.Material.PackingFraction,
					ScatterXSection: f.Sample.Material.ScatterXSection,
					AbsorbXSection:  f.Sample.Material.AbsorbXSection,
				},
				HasEnvironment: f.Sample.Environment,
			},
			Instrument:         inst,
			Workspace:          workspace.NewWavelengthWorkspace(name, inst, wavelengths),
			SofQ:               sofq,
			ScatteringXSection: sigmaS,
		},
		Config: config,
	}, nil
}

// NewSimulator validates the experiment and prepares a simulator for it
func (e *Experiment) NewSimulator(logger core.Logger) (*muscat.Simulator, error) {
	return muscat.NewSimulator(e.Input, e.Config, logger)
}

func (f FrameSpec) build() (core.ReferenceFrame, error) {
	if f.Up == "" && f.Beam == "" {
		return core.DefaultReferenceFrame(), nil
	}
	up, err := core.ParseAxis(orDefault(f.Up, "y"))
	if err != nil {
		return core.ReferenceFrame{}, fmt.Errorf("%w: frame: %v", ErrExperiment, err)
	}
	beam, err := core.ParseAxis(orDefault(f.Beam, "z"))
	if err != nil {
		return core.ReferenceFrame{}, fmt.Errorf("%w: frame: %v", ErrExperiment, err)
	}
	frame, err := core.NewReferenceFrame(up, beam)
	if err != nil {
		return core.ReferenceFrame{}, fmt.Errorf("%w: frame: %v", ErrExperiment, err)
	}
	return frame, nil
}

func (s ShapeSpec) build(frame core.ReferenceFrame) (geometry.Solid, error) {
	center, err := vec3("center", s.Center, core.Vec3{})
	if err != nil {
		return nil, err
	}

	switch s.Type {
	case "sphere":
		if !(s.Radius > 0) {
			return nil, fmt.Errorf("%w: sphere radius must be positive", ErrExperiment)
		}
		return geometry.NewSphere(center, s.Radius), nil

	case "box":
		size, err := vec3("size", s.Size, core.Vec3{})
		if err != nil {
			return nil, err
		}
		if !(size.X > 0 && size.Y > 0 && size.Z > 0) {
			return nil, fmt.Errorf("%w: box size must be positive in every dimension", ErrExperiment)
		}
		return geometry.NewBox(center, size.Multiply(0.5)), nil

	case "cylinder", "hollow-cylinder":
		axis, err := vec3("axis", s.Axis, frame.Up())
		if err != nil {
			return nil, err
		}
		if axis.LengthSquared() == 0 {
			return nil, fmt.Errorf("%w: cylinder axis must be non-zero", ErrExperiment)
		}
		if !(s.Radius > 0) || !(s.Height > 0) {
			return nil, fmt.Errorf("%w: cylinder radius and height must be positive", ErrExperiment)
		}
		if s.Type == "cylinder" {
			return geometry.NewCenteredCylinder(center, axis, s.Radius, s.Height), nil
		}
		if !(s.InnerRadius > 0) || s.InnerRadius >= s.Radius {
			return nil, fmt.Errorf("%w: hollow cylinder needs 0 < innerRadius < radius", ErrExperiment)
		}
		return geometry.NewHollowCylinder(center, axis, s.InnerRadius, s.Radius, s.Height), nil

	case "":
		return nil, fmt.Errorf("%w: sample shape type is required", ErrExperiment)
	default:
		return nil, fmt.Errorf("%w: unknown shape type %q", ErrExperiment, s.Type)
	}
}

func (w WavelengthSpec) build() ([]float64, error) {
	if len(w.Values) > 0 {
		for _, v := range w.Values {
			if !(v > 0) {
				return nil, fmt.Errorf("%w: wavelengths must be positive, got %g", ErrExperiment, v)
			}
		}
		return append([]float64(nil), w.Values...), nil
	}
	values, err := workspace.WavelengthAxis(w.Min, w.Max, w.Points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExperiment, err)
	}
	return values, nil
}

func (t TableSpec) load(baseDir, name string) ([]float64, []float64, error) {
	if t.File != "" {
		if len(t.X) > 0 || len(t.Y) > 0 {
			return nil, nil, fmt.Errorf("%w: %s: give either a file or inline values", ErrExperiment, name)
		}
		path := t.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := loaders.LoadTable(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrExperiment, name, err)
		}
		return data.X, data.Y, nil
	}
	if len(t.X) == 0 {
		return nil, nil, fmt.Errorf("%w: %s is required", ErrExperiment, name)
	}
	return t.X, t.Y, nil
}

func vec3(name string, v []float64, fallback core.Vec3) (core.Vec3, error) {
	switch len(v) {
	case 0:
		return fallback, nil
	case 3:
		return core.NewVec3(v[0], v[1], v[2]), nil
	default:
		return core.Vec3{}, fmt.Errorf("%w: %s needs 3 components, got %d", ErrExperiment, name, len(v))
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
