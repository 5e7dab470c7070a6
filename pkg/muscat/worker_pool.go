package muscat

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// DetectorTask asks a worker to simulate every bin of one spectrum
type DetectorTask struct {
	Index  int     // Spectrum index; also selects the random stream
	Output *Result // Shared output; each task writes only its own spectrum
}

// DetectorResult is sent back once a spectrum is done
type DetectorResult struct {
	Index   int
	Elapsed time.Duration
	Error   error
}

// WorkerPool simulates detectors in parallel
type WorkerPool struct {
	taskQueue   chan DetectorTask
	resultQueue chan DetectorResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual detector tasks
type Worker struct {
	ID          int
	simulator   *Simulator
	taskQueue   chan DetectorTask
	resultQueue chan DetectorResult
}

// NewWorkerPool creates a worker pool sized for numTasks detectors
func NewWorkerPool(simulator *Simulator, numTasks, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan DetectorTask, numTasks),   // Buffer for every detector
		resultQueue: make(chan DetectorResult, numTasks), // Buffer for every result
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			simulator:   simulator,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start(ctx context.Context) {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(ctx, &wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a detector task to the worker pool
func (wp *WorkerPool) SubmitTask(task DetectorTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed detector result
func (wp *WorkerPool) GetResult() (DetectorResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		start := time.Now()

		// Each task writes only its own spectrum of the shared output
		err := w.simulator.simulateDetector(ctx, task.Index, task.Output)

		w.resultQueue <- DetectorResult{
			Index:   task.Index,
			Elapsed: time.Since(start),
			Error:   err,
		}
	}
}
