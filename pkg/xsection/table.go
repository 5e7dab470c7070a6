// Package xsection holds tabulated cross sections and structure factors,
// stored as logarithms and looked up by quadratic interpolation in log space.
package xsection

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrTooFewPoints  = errors.New("xsection: need at least 3 y values to perform quadratic interpolation")
	ErrNonPositive   = errors.New("xsection: tabulated values must all be > 0")
	ErrNotIncreasing = errors.New("xsection: abscissas must be strictly increasing")
	ErrShape         = errors.New("xsection: x must have as many entries as y (points) or one more (histogram)")
)

// Scheme selects the linear coefficient of the log-quadratic fit
type Scheme int

const (
	// SchemeLiteral uses B = (-3y0 - 4y1 - y2)/2. It reproduces y0 but is
	// not exact at U=1,2.
	SchemeLiteral Scheme = iota
	// SchemeLagrange uses B = (-3y0 + 4y1 - y2)/2, the quadratic through
	// the three nodes.
	SchemeLagrange
)

// ParseScheme converts a configuration string to a Scheme
func ParseScheme(name string) (Scheme, error) {
	switch name {
	case "", "literal":
		return SchemeLiteral, nil
	case "lagrange":
		return SchemeLagrange, nil
	}
	return 0, fmt.Errorf("xsection: unknown interpolation scheme %q", name)
}

func (s Scheme) String() string {
	if s == SchemeLagrange {
		return "lagrange"
	}
	return "literal"
}

// Table is a tabulated positive function y(x) stored as log(y).
// X holds point positions, or bin edges when the table is a histogram.
type Table struct {
	x      []float64
	logY   []float64
	scheme Scheme
}

// NewTable builds a table from linear values. The inputs are copied.
func NewTable(x, y []float64) (*Table, error) {
	if err := Validate(x, y); err != nil {
		return nil, err
	}

	logY := make([]float64, len(y))
	for i, v := range y {
		logY[i] = math.Log(v)
	}

	return &Table{
		x:    append([]float64(nil), x...),
		logY: logY,
	}, nil
}

// Validate checks that x and y can form a table
func Validate(x, y []float64) error {
	if len(x) != len(y) && len(x) != len(y)+1 {
		return fmt.Errorf("%w: len(x)=%d len(y)=%d", ErrShape, len(x), len(y))
	}
	if len(y) < 3 {
		return fmt.Errorf("%w: got %d", ErrTooFewPoints, len(y))
	}
	if lowest := floats.Min(y); lowest <= 0 || math.IsNaN(lowest) {
		return fmt.Errorf("%w: minimum is %g", ErrNonPositive, lowest)
	}
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return fmt.Errorf("%w: x[%d]=%g, x[%d]=%g", ErrNotIncreasing, i-1, x[i-1], i, x[i])
		}
	}
	return nil
}

// WithScheme returns a copy of the table that interpolates with the given scheme
func (t *Table) WithScheme(s Scheme) *Table {
	c := *t
	c.scheme = s
	return &c
}

// Scheme returns the interpolation scheme in use
func (t *Table) Scheme() Scheme { return t.scheme }

// Len returns the number of tabulated values
func (t *Table) Len() int { return len(t.logY) }

// IsHistogram reports whether X holds bin edges
func (t *Table) IsHistogram() bool { return len(t.x) == len(t.logY)+1 }

// X returns the abscissas
func (t *Table) X() []float64 { return t.x }

// LogY returns the stored log values
func (t *Table) LogY() []float64 { return t.logY }

// MinX returns the first abscissa
func (t *Table) MinX() float64 { return t.x[0] }

// MaxX returns the last abscissa
func (t *Table) MaxX() float64 { return t.x[len(t.x)-1] }

// Values returns the tabulated values in linear space
func (t *Table) Values() []float64 {
	out := make([]float64, len(t.logY))
	for i, v := range t.logY {
		out[i] = math.Exp(v)
	}
	return out
}

// Interpolate looks up y(x). log(y) is taken to be locally quadratic in x
// over three consecutive samples, starting at the bin holding x for
// histograms and at the nearest node for point data. Queries outside the table clamp to the
// first or last tabulated value.
func (t *Table) Interpolate(x float64) float64 {
	n := len(t.logY)
	if x <= t.MinX() {
		return math.Exp(t.logY[0])
	}
	if x >= t.MaxX() {
		return math.Exp(t.logY[n-1])
	}

	// Spacing is taken from the first two abscissas; the fit assumes the
	// three samples are equally spaced.
	binWidth := t.x[1] - t.x[0]

	// Largest idx with X[idx] <= x, i.e. x in [X[idx], X[idx+1])
	idx := sort.Search(len(t.x), func(i int) bool { return t.x[i] > x }) - 1
	// Point data snaps to the nearest node within half a bin, ties going left
	if !t.IsHistogram() && x-t.x[idx] > 0.5*binWidth {
		idx++
	}
	// Two samples are needed to the right of idx
	if idx > n-3 {
		idx = n - 3
	}

	u := (x - t.x[idx]) / binWidth

	y0, y1, y2 := t.logY[idx], t.logY[idx+1], t.logY[idx+2]
	a := (y0 - 2*y1 + y2) / 2
	var b float64
	switch t.scheme {
	case SchemeLagrange:
		b = (-3*y0 + 4*y1 - y2) / 2
	default:
		b = (-3*y0 - 4*y1 - y2) / 2
	}
	c := y0

	return math.Exp(a*u*u + b*u + c)
}
