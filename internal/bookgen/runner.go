package bookgen

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GenerationRequest is what a caller submits to start a run.
type GenerationRequest struct {
	BookTitle    string
	Notes        string
	HeadingNotes map[string]string
	StartHeading int // 1-based; > 1 resumes an existing outline
}

// Runner executes generation jobs one at a time. Generation is strictly
// sequential; queued jobs wait their turn while the API stays responsive.
type Runner struct {
	gen   *Generator
	jobs  *JobStore
	queue chan *Job
	log   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func NewRunner(gen *Generator, log *slog.Logger, jobTTL time.Duration, queueSize int) *Runner {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Runner{
		gen:   gen,
		jobs:  NewJobStore(jobTTL),
		queue: make(chan *Job, queueSize),
		log:   log,
	}
}

// Start launches the single runner goroutine and the job store cleanup.
func (r *Runner) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case job, ok := <-r.queue:
				if !ok {
					return
				}
				r.run(runCtx, job)
			}
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.jobs.Cleanup()
			}
		}
	}()
}

// Stop cancels the running job and drains the runner. Submissions arriving
// after Stop are rejected rather than racing the queue close.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.queue)
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// Submit queues a new generation job.
func (r *Runner) Submit(req GenerationRequest) (*Job, error) {
	start := req.StartHeading
	if start < 1 {
		start = 1
	}
	now := time.Now()
	job := &Job{
		ID:           uuid.New().String(),
		BookTitle:    req.BookTitle,
		Status:       StatusQueued,
		Phase:        "queued",
		StartHeading: start,
		CreatedAt:    now,
		UpdatedAt:    now,
		notes:        req.Notes,
		headingNotes: req.HeadingNotes,
		resume:       start > 1,
	}
	r.jobs.Put(job)

	// Held across the enqueue so Stop cannot close the queue mid-send.
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		job.SetStatus(StatusFailed, "runner_stopped")
		return nil, fmt.Errorf("runner is stopped")
	}
	select {
	case r.queue <- job:
		return job, nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return nil, fmt.Errorf("generation queue is full (%d)", cap(r.queue))
	}
}

// GetJob returns a job by ID, or nil.
func (r *Runner) GetJob(id string) *Job {
	return r.jobs.Get(id)
}

// QueueDepth returns the number of jobs waiting to run.
func (r *Runner) QueueDepth() int {
	return len(r.queue)
}

// run executes one job: outline and persistence unless resuming, then the
// content and summary loop.
func (r *Runner) run(ctx context.Context, job *Job) {
	log := r.log.With("job_id", job.ID, "book", job.BookTitle)

	if !job.resume {
		job.SetStatus(StatusOutlining, "outline")
		outline, err := r.gen.GenerateOutline(ctx, job.BookTitle, job.notes)
		if err != nil {
			log.Error("outline phase failed", "error", err)
			job.Finish(StatusFailed, nil, err)
			return
		}
		job.SetStatus(StatusOutlining, "persist_outline")
		if _, err := r.gen.SaveBookAndOutline(job.BookTitle, job.notes, outline); err != nil {
			log.Error("outline persistence failed", "error", err)
			job.Finish(StatusFailed, nil, err)
			return
		}
	}

	job.SetStatus(StatusWriting, "content")
	report, err := r.gen.GenerateContent(ctx, job.BookTitle, job.headingNotes, job.StartHeading)
	if err != nil {
		log.Error("content phase failed", "error", err)
		job.Finish(StatusFailed, report, err)
		return
	}
	if report.AllOK() {
		log.Info("generation completed", "headings", len(report.Results))
		job.Finish(StatusCompleted, report, nil)
		return
	}
	log.Warn("generation completed with failures", "failed", len(report.Failed()))
	job.Finish(StatusPartial, report, nil)
}
