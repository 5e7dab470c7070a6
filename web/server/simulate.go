package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-muscat/pkg/core"
	"github.com/df07/go-muscat/pkg/muscat"
	"github.com/df07/go-muscat/pkg/workspace"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "result", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// ProgressUpdate is sent each time a detector finishes
type ProgressUpdate struct {
	Index      int   `json:"index"`
	DetectorID int   `json:"detectorId"`
	Completed  int   `json:"completed"`
	Total      int   `json:"total"`
	ElapsedMs  int64 `json:"elapsedMs"`
}

// ResultUpdate carries the output workspaces of a finished run
type ResultUpdate struct {
	Name       string                 `json:"name"`
	Stats      muscat.RunStats        `json:"stats"`
	Workspaces []*workspace.Workspace `json:"workspaces"`
	ElapsedMs  int64                  `json:"elapsedMs"`
}

// handleSimulate runs an uploaded experiment and streams progress via SSE
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST an experiment file", http.StatusMethodNotAllowed)
		return
	}

	// Set SSE headers
	s.setSSEHeaders(w)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)

	// Start single SSE writer goroutine; it must finish before we return
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()

	// Setup console logging and streaming
	consoleChan, webLogger := s.setupConsoleLogging()
	stopConsole := make(chan struct{})
	var consoleWG sync.WaitGroup
	consoleWG.Add(1)
	go func() {
		defer consoleWG.Done()
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan, stopConsole)
	}()

	defer func() {
		close(stopConsole)
		consoleWG.Wait()
		close(sseEventChan)
		<-writerDone
	}()

	exp, err := s.readExperiment(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	sim, err := exp.NewSimulator(webLogger)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	startTime := time.Now()
	progressChan, resultChan, errChan := sim.Stream(ctx)
	s.handleSimulationEvents(ctx, sseEventChan, progressChan, resultChan, errChan, exp.Name, startTime)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a run
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(runID, consoleChan)
	return consoleChan, webLogger
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				// Channel closed
				return
			}

			// Write SSE event
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

// streamConsoleMessages forwards log lines to the SSE channel until stopped,
// then forwards whatever is still buffered
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sseEventChan chan SSEEvent, stop <-chan struct{}) {
	for {
		select {
		case consoleMsg := <-consoleChan:
			s.forwardConsoleMessage(ctx, consoleMsg, sseEventChan)

		case <-stop:
			for {
				select {
				case consoleMsg := <-consoleChan:
					s.forwardConsoleMessage(ctx, consoleMsg, sseEventChan)
				default:
					return
				}
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

func (s *Server) forwardConsoleMessage(ctx context.Context, consoleMsg ConsoleMessage, sseEventChan chan SSEEvent) {
	data, err := json.Marshal(consoleMsg)
	if err != nil {
		log.Printf("Error marshaling console message: %v", err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
	case <-ctx.Done():
	default:
		// Channel full, skip message to avoid blocking
	}
}

// handleSimulationEvents processes the main simulation event loop
func (s *Server) handleSimulationEvents(ctx context.Context, sseEventChan chan SSEEvent,
	progressChan <-chan muscat.DetectorProgress, resultChan <-chan *muscat.Result, errChan <-chan error,
	name string, startTime time.Time) {

	for progressChan != nil || resultChan != nil || errChan != nil {
		select {
		case progress, ok := <-progressChan:
			if !ok {
				progressChan = nil // Channel closed
				continue
			}
			s.handleProgress(ctx, sseEventChan, progress)

		case result, ok := <-resultChan:
			if !ok {
				resultChan = nil
				continue
			}
			s.handleResult(ctx, sseEventChan, result, name, startTime)

		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			s.handleError(ctx, sseEventChan, fmt.Sprintf("Simulation failed: %v", err))
			return

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}

	// Send completion event
	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Simulation completed"}:
	case <-ctx.Done():
	}
}

// handleProgress sends a detector completion event
func (s *Server) handleProgress(ctx context.Context, sseEventChan chan SSEEvent, progress muscat.DetectorProgress) {
	data, err := json.Marshal(ProgressUpdate{
		Index:      progress.Index,
		DetectorID: progress.DetectorID,
		Completed:  progress.Completed,
		Total:      progress.Total,
		ElapsedMs:  progress.Elapsed.Milliseconds(),
	})
	if err != nil {
		log.Printf("Error marshaling progress update: %v", err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "progress", Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleResult sends the output workspaces
func (s *Server) handleResult(ctx context.Context, sseEventChan chan SSEEvent, result *muscat.Result, name string, startTime time.Time) {
	data, err := json.Marshal(ResultUpdate{
		Name:       name,
		Stats:      result.Stats,
		Workspaces: result.Group.Workspaces,
		ElapsedMs:  time.Since(startTime).Milliseconds(),
	})
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Error encoding result: %v", err))
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "result", Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
