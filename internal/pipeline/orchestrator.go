package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/ragprep/internal/config"
)

// ErrQueueFull is returned by Submit when the job queue is saturated.
var ErrQueueFull = errors.New("job queue is full")

// Orchestrator owns the job queue, the worker pool and the shared
// pipeline runner behind the HTTP API.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	runner *Runner
	stats  *PhaseStats
	log    *slog.Logger
	cfg    config.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator wires the queue and runner; call Start to begin
// processing.
func NewOrchestrator(cfg config.Server, pipelineCfg config.Pipeline, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		runner: NewRunner(pipelineCfg, log),
		stats:  NewPhaseStats(time.Hour),
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines and the job store janitor.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.runner, o.stats, o.cfg.DataDir, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the worker pool. In-flight jobs observe the
// cancelled context between phases.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit registers a job and queues it for processing. A saturated queue
// fails the job immediately rather than blocking the caller.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		err := fmt.Errorf("%w (%d)", ErrQueueFull, cap(o.queue))
		job.Fail(err)
		return err
	}
}

// GetJob returns a job by ID, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns the number of jobs waiting for a worker.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats aggregates the rolling per-phase duration window.
func (o *Orchestrator) Stats() map[string]StatsSnapshot {
	return o.stats.Snapshot()
}
