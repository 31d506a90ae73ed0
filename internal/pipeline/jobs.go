package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/maillink/internal/review"
)

// JobStatus represents the state of a batch conversion job.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusParsing      JobStatus = "parsing"
	StatusScanning     JobStatus = "scanning"
	StatusCompleted    JobStatus = "completed"
	StatusNothingFound JobStatus = "nothing_found"
	StatusFailed       JobStatus = "failed"
)

// Job tracks the conversion of one uploaded file.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`
	Title    string `json:"title"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData  []byte
	result    *review.Result
	extracted bool
	errors    []string
	warnings  []string
}

// Progress tracks processing progress.
type Progress struct {
	AddressesFound     int      `json:"addresses_found"`
	AddressesConverted int      `json:"addresses_converted"`
	Warnings           []string `json:"warnings"`
	Errors             []string `json:"errors"`
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTitle records the document title once parsed.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
}

// SetContentHash records the hash of the scanned text.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
}

// SetResult stores the conversion outcome and its counts.
func (j *Job) SetResult(res *review.Result, extracted bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.extracted = extracted
	j.Progress.AddressesFound = res.Found
	j.Progress.AddressesConverted = len(res.Converted)
	for _, w := range res.Warnings {
		j.warnings = append(j.warnings, fmt.Sprintf("address %d (%s): %s", w.AddressID, w.Address, w.Message))
	}
	j.Progress.Warnings = j.warnings
	j.UpdatedAt = time.Now()
}

// Result returns the conversion outcome, or nil if the job has not
// finished, and whether the text was extracted from the file.
func (j *Job) Result() (*review.Result, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.extracted
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	warns := j.Progress.Warnings
	if warns == nil {
		warns = []string{}
	}
	return JobSnapshot{
		ID:       j.ID,
		Filename: j.Filename,
		Title:    j.Title,
		Status:   j.Status,
		Phase:    j.Phase,
		Progress: Progress{
			AddressesFound:     j.Progress.AddressesFound,
			AddressesConverted: j.Progress.AddressesConverted,
			Warnings:           warns,
			Errors:             errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
