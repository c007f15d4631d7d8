package bookgen

import (
	"sync"
	"time"
)

// JobStatus represents the state of a generation job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusOutlining JobStatus = "outlining"
	StatusWriting   JobStatus = "writing"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
)

// Job tracks one book generation run end to end.
type Job struct {
	mu sync.Mutex

	ID        string
	BookTitle string
	Status    JobStatus
	Phase     string

	StartHeading int
	Report       *RunReport
	Error        string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Request parameters; not part of the snapshot.
	notes        string
	headingNotes map[string]string
	resume       bool
}

// JobSnapshot is a point-in-time copy of a job, safe to serialize while
// the runner keeps mutating the original.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	BookTitle string    `json:"book_title"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`

	StartHeading int        `json:"start_heading"`
	Report       *RunReport `json:"report,omitempty"`
	Error        string     `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Finish records the terminal outcome of the run.
func (j *Job) Finish(status JobStatus, report *RunReport, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Report = report
	if err != nil {
		j.Error = err.Error()
	}
	j.UpdatedAt = time.Now()
}

// Snapshot returns a copy of the job's observable state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:           j.ID,
		BookTitle:    j.BookTitle,
		Status:       j.Status,
		Phase:        j.Phase,
		StartHeading: j.StartHeading,
		Report:       j.Report,
		Error:        j.Error,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes jobs idle longer than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		idle := now.Sub(job.UpdatedAt)
		job.mu.Unlock()
		if idle > s.ttl {
			delete(s.jobs, id)
		}
	}
}
