package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dgallion1/docrank/internal/config"
)

// Orchestrator owns the asynchronous job queue so the HTTP surface
// stays responsive while analysis runs execute.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	runner  *Runner
	log     zerolog.Logger
	workers int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the queue and store; call Start to launch the
// workers.
func NewOrchestrator(cfg config.Config, runner *Runner, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.Pipeline.JobTTL.Std()),
		queue:   make(chan *Job, cfg.Pipeline.QueueSize),
		runner:  runner,
		log:     log,
		workers: cfg.Pipeline.JobWorkers,
	}
}

// Start launches the worker goroutines and the store sweeper.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.workers; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(10 * time.Minute)
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

// Stop gracefully shuts the workers down.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

func (o *Orchestrator) process(ctx context.Context, job *Job) {
	log := o.log.With().Str("job_id", job.ID).Logger()
	job.SetRunning()
	log.Info().Int("documents", len(job.Request().Documents)).Msg("job started")

	res, err := o.runner.Run(ctx, job.Request())
	if err != nil {
		log.Error().Err(err).Msg("job failed")
		job.SetFailed(err)
		return
	}
	job.SetResult(res)
	log.Info().
		Int("sections", len(res.Extracted)).
		Bool("partial", res.Metadata.PartialResults).
		Msg("job finished")
}

// Submit queues a new job. When the queue is full the job is marked
// failed and an error returned so the caller can report backpressure.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		err := fmt.Errorf("job queue is full (%d)", cap(o.queue))
		job.SetFailed(err)
		return err
	}
}

// GetJob returns a job by ID, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Jobs lists stored jobs, newest first.
func (o *Orchestrator) Jobs() []JobSnapshot {
	return o.jobs.List()
}

// QueueDepth returns the number of jobs waiting for a worker.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Runner exposes the underlying runner for synchronous use by API
// handlers.
func (o *Orchestrator) Runner() *Runner {
	return o.runner
}
