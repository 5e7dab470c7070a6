// Package workspace holds spectra indexed by detector and wavelength bin.
package workspace

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-muscat/pkg/instrument"
)

// Spectrum is the data recorded for one detector
type Spectrum struct {
	DetectorIndex int       `json:"detectorIndex"`
	DetectorID    int       `json:"detectorId"`
	IsMonitor     bool      `json:"isMonitor,omitempty"`
	X             []float64 `json:"x"`
	Y             []float64 `json:"y"`
	E             []float64 `json:"e"`
}

// Workspace is a set of spectra sharing units
type Workspace struct {
	Name         string     `json:"name"`
	XUnit        string     `json:"xUnit"`
	YUnitLabel   string     `json:"yUnitLabel"`
	Distribution bool       `json:"distribution"`
	Spectra      []Spectrum `json:"spectra"`
}

// WavelengthAxis returns n equally spaced wavelength points from min to max inclusive
func WavelengthAxis(min, max float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("workspace: need at least one wavelength point, got %d", n)
	}
	if !(min > 0) || max < min {
		return nil, fmt.Errorf("workspace: invalid wavelength range [%g, %g]", min, max)
	}
	if n == 1 {
		return []float64{min}, nil
	}
	return floats.Span(make([]float64, n), min, max), nil
}

// NewWavelengthWorkspace creates one spectrum per detector, all sharing
// the given wavelength points (Å)
func NewWavelengthWorkspace(name string, inst *instrument.Instrument, wavelengths []float64) *Workspace {
	ws := &Workspace{
		Name:  name,
		XUnit: "Wavelength",
	}
	for i, d := range inst.Detectors {
		ws.Spectra = append(ws.Spectra, Spectrum{
			DetectorIndex: i,
			DetectorID:    d.ID,
			IsMonitor:     d.IsMonitor,
			X:             append([]float64(nil), wavelengths...),
			Y:             make([]float64, len(wavelengths)),
			E:             make([]float64, len(wavelengths)),
		})
	}
	return ws
}

// CloneEmpty creates a workspace with the same spectra layout and zeroed
// data, marked as a distribution of scattered intensity
func (w *Workspace) CloneEmpty(name string) *Workspace {
	out := &Workspace{
		Name:         name,
		XUnit:        w.XUnit,
		YUnitLabel:   "Scattered Intensity",
		Distribution: true,
		Spectra:      make([]Spectrum, len(w.Spectra)),
	}
	for i, s := range w.Spectra {
		out.Spectra[i] = Spectrum{
			DetectorIndex: s.DetectorIndex,
			DetectorID:    s.DetectorID,
			IsMonitor:     s.IsMonitor,
			X:             append([]float64(nil), s.X...),
			Y:             make([]float64, len(s.Y)),
			E:             make([]float64, len(s.Y)),
		}
	}
	return out
}

// NumberHistograms returns the number of spectra
func (w *Workspace) NumberHistograms() int {
	return len(w.Spectra)
}

// Blocksize returns the number of bins in the first spectrum
func (w *Workspace) Blocksize() int {
	if len(w.Spectra) == 0 {
		return 0
	}
	return len(w.Spectra[0].Y)
}

// Group is an ordered, named collection of workspaces
type Group struct {
	Workspaces []*Workspace `json:"workspaces"`
}

// Add appends a workspace to the group
func (g *Group) Add(ws *Workspace) {
	g.Workspaces = append(g.Workspaces, ws)
}

// Get returns the workspace with the given name
func (g *Group) Get(name string) (*Workspace, bool) {
	for _, ws := range g.Workspaces {
		if ws.Name == name {
			return ws, true
		}
	}
	return nil, false
}

// Names returns the workspace names in order
func (g *Group) Names() []string {
	names := make([]string, len(g.Workspaces))
	for i, ws := range g.Workspaces {
		names[i] = ws.Name
	}
	return names
}
