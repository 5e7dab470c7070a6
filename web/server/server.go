package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/df07/go-muscat/pkg/experiment"
	"github.com/df07/go-muscat/pkg/muscat"
)

const (
	// DefaultMaxEvents caps the events per bin a web client may request
	DefaultMaxEvents = 100000
	// DefaultMaxBodyBytes caps the size of an uploaded experiment file
	DefaultMaxBodyBytes = 1 << 20
)

// Server handles web requests for the scattering simulator
type Server struct {
	port         int
	maxEvents    int
	maxBodyBytes int64
}

// NewServer creates a new web server
func NewServer(port int) *Server {
	return &Server{
		port:         port,
		maxEvents:    DefaultMaxEvents,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

// SimulateRequest holds the query overrides applied to an uploaded experiment
type SimulateRequest struct {
	Seed    int64 `json:"seed"`    // 0 keeps the experiment's seed
	Workers int   `json:"workers"` // 0 keeps the experiment's setting
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/simulate", s.handleSimulate)
	mux.HandleFunc("/api/validate", s.handleValidate)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleValidate checks an uploaded experiment without simulating it
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "POST an experiment file"})
		return
	}

	exp, err := s.readExperiment(r)
	if err == nil {
		err = muscat.ValidateInputs(exp.Input, exp.Config)
	}

	response := map[string]interface{}{"valid": err == nil}
	if err != nil {
		issues := map[string]string{}
		var ve *muscat.ValidationError
		if errors.As(err, &ve) {
			for key, issue := range ve.Issues {
				issues[key] = issue.Error()
			}
		} else {
			issues["experiment"] = err.Error()
		}
		response["issues"] = issues
		w.WriteHeader(http.StatusUnprocessableEntity)
	} else {
		response["spectra"] = exp.Input.Workspace.NumberHistograms()
		response["bins"] = exp.Input.Workspace.Blocksize()
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(response)
}

// readExperiment decodes the experiment in the request body and applies
// the query overrides. Table files are not available to web clients, so
// tables must be given inline.
func (s *Server) readExperiment(r *http.Request) (*experiment.Experiment, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %v", err)
	}
	if int64(len(body)) > s.maxBodyBytes {
		return nil, fmt.Errorf("experiment file too large: maximum %d bytes", s.maxBodyBytes)
	}

	req, err := s.parseSimulateRequest(r.URL.Query())
	if err != nil {
		return nil, err
	}

	exp, err := experiment.ParseInline(body)
	if err != nil {
		return nil, err
	}

	if req.Seed > 0 {
		exp.Config.Seed = req.Seed
	}
	if req.Workers > 0 {
		exp.Config.NumWorkers = req.Workers
	}
	if exp.Config.EventsSingle > s.maxEvents || exp.Config.EventsMultiple > s.maxEvents {
		return nil, fmt.Errorf("events per bin must be at most %d", s.maxEvents)
	}
	return exp, nil
}

// parseSimulateRequest parses the query overrides
func (s *Server) parseSimulateRequest(values url.Values) (*SimulateRequest, error) {
	req := &SimulateRequest{}

	var err error
	if req.Seed, err = parseInt64Param(values, "seed", 0, 1, 1<<62); err != nil {
		return nil, err
	}
	if req.Workers, err = parseIntParam(values, "workers", 0, 1, 256); err != nil {
		return nil, err
	}
	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	parsed, err := parseInt64Param(values, key, int64(defaultValue), int64(min), int64(max))
	return int(parsed), err
}

// parseInt64Param parses a 64-bit integer parameter from URL query with validation
func parseInt64Param(values url.Values, key string, defaultValue, min, max int64) (int64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
