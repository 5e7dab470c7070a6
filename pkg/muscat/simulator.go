// Package muscat estimates single and multiple elastic neutron scattering
// from a sample by Monte-Carlo integration over neutron histories.
package muscat

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-muscat/pkg/core"
	"github.com/df07/go-muscat/pkg/geometry"
	"github.com/df07/go-muscat/pkg/workspace"
	"github.com/df07/go-muscat/pkg/xsection"
)

const tracerName = "github.com/df07/go-muscat/pkg/muscat"

// ctxCheckInterval is how many histories run between cancellation checks
const ctxCheckInterval = 256

// Simulator runs the scattering simulation for one set of inputs
type Simulator struct {
	input         Input
	config        Config
	sofq          *xsection.Table // S(Q) with the configured interpolation scheme
	sigmaS        *xsection.Table // Optional scattering cross section vs k
	sigmaScatter  float64         // Material total scattering cross section, barns
	numberDensity float64         // Effective number density, Å⁻³
	bbox          core.AABB       // Sample bounding box
	logger        core.Logger
}

// NewSimulator validates the inputs and prepares a simulator.
// Any validation problem is returned as a *ValidationError wrapping ErrConfig.
func NewSimulator(input Input, config Config, logger core.Logger) (*Simulator, error) {
	if err := ValidateInputs(input, config); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	s := &Simulator{
		input:         input,
		config:        config,
		sofq:          input.SofQ.WithScheme(config.Interpolation),
		sigmaScatter:  input.Sample.Material.TotalScatterXSection(),
		numberDensity: input.Sample.Material.NumberDensityEffective(),
		bbox:          input.Sample.Shape.BoundingBox(),
		logger:        logger,
	}
	if input.ScatteringXSection != nil {
		s.sigmaS = input.ScatteringXSection.WithScheme(config.Interpolation)
	}
	return s, nil
}

// Config returns the simulator configuration
func (s *Simulator) Config() Config {
	return s.config
}

// RunStats summarizes a completed run
type RunStats struct {
	Detectors      int           `json:"detectors"`
	Bins           int           `json:"bins"`
	Scatterings    int           `json:"scatterings"`
	Workers        int           `json:"workers"`
	EventsAccepted int64         `json:"eventsAccepted"`
	EventsRejected int64         `json:"eventsRejected"`
	InterceptCalls int64         `json:"interceptCalls"`
	EntryRetries   int64         `json:"entryRetries"`
	Elapsed        time.Duration `json:"elapsed"`
}

type runCounters struct {
	accepted     atomic.Int64
	rejected     atomic.Int64
	intercepts   atomic.Int64
	entryRetries atomic.Int64
}

// Result holds the output workspaces of a run
type Result struct {
	// Group contains NoAbsorption followed by Orders, in that order
	Group *workspace.Group
	// NoAbsorption is single scattering with absorption switched off
	NoAbsorption *workspace.Workspace
	// Orders[n-1] holds the contribution of exactly n scatters
	Orders []*workspace.Workspace
	Stats  RunStats

	counters runCounters
}

// DetectorProgress is reported each time a detector finishes
type DetectorProgress struct {
	Index      int           `json:"index"`
	DetectorID int           `json:"detectorId"`
	IsMonitor  bool          `json:"isMonitor"`
	Completed  int           `json:"completed"` // Detectors finished so far (1-based)
	Total      int           `json:"total"`
	Elapsed    time.Duration `json:"elapsed"`
}

func (s *Simulator) newResult() *Result {
	in := s.input.Workspace
	result := &Result{Group: &workspace.Group{}}

	result.NoAbsorption = in.CloneEmpty(s.config.OutputPrefix + "1_NoAbs")
	result.Group.Add(result.NoAbsorption)
	for order := 1; order <= s.config.Scatterings; order++ {
		ws := in.CloneEmpty(s.config.OutputPrefix + strconv.Itoa(order))
		result.Orders = append(result.Orders, ws)
		result.Group.Add(ws)
	}
	return result
}

// Run simulates every detector and returns the output workspaces.
// progress, if not nil, is called from the calling goroutine after each
// detector completes. The result does not depend on the number of workers.
func (s *Simulator) Run(ctx context.Context, progress func(DetectorProgress)) (*Result, error) {
	spectra := s.input.Workspace.Spectra
	ctx, span := otel.Tracer(tracerName).Start(ctx, "muscat.Simulator.Run",
		trace.WithAttributes(
			attribute.Int("detectors", len(spectra)),
			attribute.Int("bins", s.input.Workspace.Blocksize()),
			attribute.Int("scatterings", s.config.Scatterings),
			attribute.Int64("seed", s.config.Seed),
		),
	)
	defer span.End()

	start := time.Now()
	result := s.newResult()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := NewWorkerPool(s, len(spectra), s.config.NumWorkers)
	s.logger.Printf("Simulating %d detectors x %d bins up to %d scatters (using %d workers)...\n",
		len(spectra), s.input.Workspace.Blocksize(), s.config.Scatterings, pool.GetNumWorkers())

	pool.Start(runCtx)
	for i := range spectra {
		pool.SubmitTask(DetectorTask{Index: i, Output: result})
	}

	// Collect results and dispatch progress callbacks single-threaded
	var firstErr error
	for i := 0; i < len(spectra); i++ {
		r, ok := pool.GetResult()
		if !ok {
			firstErr = fmt.Errorf("worker pool closed unexpectedly")
			break
		}
		if r.Error != nil {
			if firstErr == nil {
				firstErr = r.Error
				cancel() // Stop the remaining workers early
			}
			continue
		}
		if firstErr == nil && progress != nil {
			progress(DetectorProgress{
				Index:      r.Index,
				DetectorID: spectra[r.Index].DetectorID,
				IsMonitor:  spectra[r.Index].IsMonitor,
				Completed:  i + 1,
				Total:      len(spectra),
				Elapsed:    time.Since(start),
			})
		}
	}
	pool.Stop()

	result.Stats = RunStats{
		Detectors:      len(spectra),
		Bins:           s.input.Workspace.Blocksize(),
		Scatterings:    s.config.Scatterings,
		Workers:        pool.GetNumWorkers(),
		EventsAccepted: result.counters.accepted.Load(),
		EventsRejected: result.counters.rejected.Load(),
		InterceptCalls: result.counters.intercepts.Load(),
		EntryRetries:   result.counters.entryRetries.Load(),
		Elapsed:        time.Since(start),
	}
	span.SetAttributes(
		attribute.Int64("events_accepted", result.Stats.EventsAccepted),
		attribute.Int64("intercept_calls", result.Stats.InterceptCalls),
	)

	if firstErr != nil {
		if ctx.Err() != nil {
			runsTotal.WithLabelValues("cancelled").Inc()
			s.logger.Printf("Warning: simulation cancelled after %v\n", result.Stats.Elapsed)
		} else {
			runsTotal.WithLabelValues("error").Inc()
		}
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, "simulation failed")
		return nil, firstErr
	}

	runsTotal.WithLabelValues("ok").Inc()
	if result.Stats.EntryRetries > 0 {
		s.logger.Printf("Warning: generating initial tracks required %d extra attempts\n", result.Stats.EntryRetries)
	}
	s.logger.Printf("Calls to interceptSurface= %d\n", result.Stats.InterceptCalls)
	s.logger.Printf("Simulation completed in %v (%d histories accepted, %d rejected)\n",
		result.Stats.Elapsed, result.Stats.EventsAccepted, result.Stats.EventsRejected)
	span.SetStatus(codes.Ok, "simulation complete")
	return result, nil
}

// Stream runs the simulation in the background and reports through channels.
// The progress channel drops events when its buffer is full.
func (s *Simulator) Stream(ctx context.Context) (<-chan DetectorProgress, <-chan *Result, <-chan error) {
	total := s.input.Workspace.NumberHistograms()
	progressChan := make(chan DetectorProgress, total)
	resultChan := make(chan *Result, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(progressChan)
		defer close(resultChan)
		defer close(errChan)

		result, err := s.Run(ctx, func(p DetectorProgress) {
			select {
			case progressChan <- p:
			case <-ctx.Done():
			default:
				// Channel full, drop the update
			}
		})
		if err != nil {
			errChan <- err
			return
		}
		resultChan <- result
	}()

	return progressChan, resultChan, errChan
}

// binParams holds what is fixed for every history of one wavelength bin
type binParams struct {
	label        string // Metrics label for the scattering order
	nScatters    int
	kinc         float64   // Incident wavevector, Å⁻¹
	sigmaTotal   float64   // Scattering plus absorption cross section, barns
	vmu          float64   // Attenuation coefficient, m⁻¹
	detector     core.Vec3 // Detector position
	noAbsorption bool
}

func (s *Simulator) newBinParams(label string, kinc float64, nScatters int, detector core.Vec3, noAbsorption bool) binParams {
	sigmaTotal := s.totalCrossSection(kinc, noAbsorption)
	return binParams{
		label:        label,
		nScatters:    nScatters,
		kinc:         kinc,
		sigmaTotal:   sigmaTotal,
		vmu:          100 * s.numberDensity * sigmaTotal,
		detector:     detector,
		noAbsorption: noAbsorption,
	}
}

// totalCrossSection returns the scattering cross section at k, taken from
// the optional table when present, plus absorption at the matching
// wavelength unless absorption is switched off.
func (s *Simulator) totalCrossSection(kinc float64, noAbsorption bool) float64 {
	scatter := s.sigmaScatter
	if s.sigmaS != nil {
		scatter = s.sigmaS.Interpolate(kinc)
	}
	if noAbsorption {
		return scatter
	}
	return scatter + s.input.Sample.Material.AbsorbXSectionAt(2*math.Pi/kinc)
}

// simulateDetector fills every bin of one spectrum of each output workspace
func (s *Simulator) simulateDetector(ctx context.Context, index int, out *Result) error {
	spectrum := s.input.Workspace.Spectra[index]
	if spectrum.IsMonitor {
		return nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "muscat.Simulator.simulateDetector",
		trace.WithAttributes(
			attribute.Int("index", index),
			attribute.Int("detector_id", spectrum.DetectorID),
		),
	)
	defer span.End()

	start := time.Now()
	detector := s.input.Instrument.Detectors[spectrum.DetectorIndex].Position
	sampler := core.NewDetectorSampler(s.config.Seed, index)
	counters := &out.counters

	for bin := range spectrum.Y {
		kinc := 2 * math.Pi / spectrum.X[bin]

		params := s.newBinParams("noabs", kinc, 1, detector, true)
		mean, stderr, err := s.simulateEvents(ctx, sampler, params, s.config.EventsSingle, counters)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "no-absorption pass failed")
			return err
		}
		out.NoAbsorption.Spectra[index].Y[bin] = mean
		out.NoAbsorption.Spectra[index].E[bin] = stderr

		for order := 1; order <= s.config.Scatterings; order++ {
			nEvents := s.config.EventsMultiple
			if order == 1 {
				nEvents = s.config.EventsSingle
			}
			params := s.newBinParams(strconv.Itoa(order), kinc, order, detector, false)
			mean, stderr, err := s.simulateEvents(ctx, sampler, params, nEvents, counters)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "scattering pass failed")
				return err
			}
			out.Orders[order-1].Spectra[index].Y[bin] = mean
			out.Orders[order-1].Spectra[index].E[bin] = stderr
		}
	}

	detectorDuration.Observe(time.Since(start).Seconds())
	return nil
}

// simulateEvents runs histories until nEvents reach the detector and
// returns the mean weight with its standard error. Rejected histories are
// retried and do not count towards nEvents.
func (s *Simulator) simulateEvents(ctx context.Context, sampler core.Sampler, p binParams, nEvents int, counters *runCounters) (float64, float64, error) {
	weights := make([]float64, 0, nEvents)
	for attempts := 0; len(weights) < nEvents; attempts++ {
		if attempts%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, 0, err
			}
		}

		weight, rejected, err := s.simulateEvent(sampler, p, counters)
		if err != nil {
			return 0, 0, err
		}
		if rejected != "" {
			counters.rejected.Add(1)
			eventsRejected.WithLabelValues(rejected).Inc()
			continue
		}
		weights = append(weights, weight)
	}

	counters.accepted.Add(int64(nEvents))
	eventsAccepted.WithLabelValues(p.label).Add(float64(nEvents))

	mean := floats.Sum(weights) / float64(nEvents)
	var stderr float64
	if nEvents > 1 {
		stderr = stat.StdDev(weights, nil) / math.Sqrt(float64(nEvents))
	}
	return mean, stderr, nil
}

// simulateEvent follows one neutron history with p.nScatters scatters and
// returns its weight at the detector. A non-empty reject names the leg
// that left the sample; the history then has no weight.
func (s *Simulator) simulateEvent(sampler core.Sampler, p binParams, counters *runCounters) (weight float64, reject string, err error) {
	track, err := s.startPoint(sampler, counters)
	if err != nil {
		return 0, "", err
	}

	walk := walkState{weight: 1, track: track}
	walk.updateWeightAndPosition(p.vmu, p.sigmaTotal, sampler)

	for i := 0; i < p.nScatters-1; i++ {
		if err := walk.sampleScatteringDirection(s.sofq, p.kinc, s.sigmaScatter, s.input.Instrument.Frame, sampler); err != nil {
			return 0, "", err
		}
		var hits int
		walk.track, hits = s.intercept(walk.track, counters)
		if hits == 0 {
			return 0, "interior", nil
		}
		walk.updateWeightAndPosition(p.vmu, p.sigmaTotal, sampler)
	}

	if p.nScatters > 1 {
		if !(walk.qss > 0) {
			return 0, "qss", nil
		}
		walk.weight /= math.Pow(walk.qss, float64(p.nScatters-1))
	}

	toDetector := p.detector.Subtract(walk.track.Origin()).Normalize()
	incoming := walk.track.Direction()
	final, hits := s.intercept(walk.track.WithDirection(toDetector), counters)
	if hits == 0 {
		return 0, "final", nil
	}

	var pathOut float64
	for _, seg := range final.Segments() {
		pathOut += seg.DistInside
	}
	q := toDetector.Subtract(incoming).Multiply(p.kinc).Length()

	vmu := p.vmu
	if p.noAbsorption {
		vmu = 0
	}
	weight = walk.weight * math.Exp(-pathOut*vmu) * s.sofq.Interpolate(q) * s.sigmaScatter / (4 * math.Pi)
	return weight, "", nil
}

// startPoint finds a beam track that enters the sample
func (s *Simulator) startPoint(sampler core.Sampler, counters *runCounters) (geometry.Track, error) {
	inst := s.input.Instrument
	for i := 0; i < maxEntryAttempts; i++ {
		track, hits := s.intercept(generateInitialTrack(s.bbox, inst.Frame, inst.Source, sampler), counters)
		if hits > 0 {
			if i > 0 {
				counters.entryRetries.Add(int64(i))
				entryRetries.Add(float64(i))
			}
			return track, nil
		}
	}
	return geometry.Track{}, fmt.Errorf("%w after %d attempts", ErrEntryPoint, maxEntryAttempts)
}

func (s *Simulator) intercept(track geometry.Track, counters *runCounters) (geometry.Track, int) {
	counters.intercepts.Add(1)
	interceptCalls.Inc()
	return geometry.InterceptSurface(s.input.Sample.Shape, track)
}
