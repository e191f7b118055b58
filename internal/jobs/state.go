package jobs

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Config holds the immutable parameters of one crawl job.
type Config struct {
	Region       string `json:"region,omitempty"`
	Limit        int    `json:"limit,omitempty"` // 0 = no limit
	ChunkSize    int    `json:"chunkSize"`
	Concurrency  int    `json:"concurrency"`
	SkipExisting bool   `json:"skipExisting"`
}

// Progress holds the mutable counters and log of a running job. It is
// only ever touched inside State.Update, under the job's lock.
type Progress struct {
	Total     int
	Processed int
	Successes int
	Failures  int
	Skipped   int
	Messages  []string

	jobID string
}

// Logf appends one human-readable line to the job log and mirrors it
// to the process log.
func (p *Progress) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[job %s] %s", p.jobID, msg)
	p.Messages = append(p.Messages, msg)
}

// Snapshot is a point-in-time copy of a job, safe to serialize.
type Snapshot struct {
	ID        string    `json:"id"`
	Config    Config    `json:"config"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Successes int       `json:"successes"`
	Failures  int       `json:"failures"`
	Skipped   int       `json:"skipped"`
	Messages  []string  `json:"messages"`
	Done      bool      `json:"done"`
	StartedAt time.Time `json:"startedAt"`
}

// State is shared by reference across all concurrent company tasks of
// one job. Counter and log mutations go through Update so that reads
// and writes that must be atomic together happen under one lock.
type State struct {
	id        string
	cfg       Config
	startedAt time.Time

	mu       sync.Mutex
	progress Progress
	done     bool
}

func NewState(id string, cfg Config) *State {
	return &State{
		id:        id,
		cfg:       cfg,
		startedAt: time.Now().UTC(),
		progress:  Progress{jobID: id},
	}
}

func (s *State) ID() string     { return s.id }
func (s *State) Config() Config { return s.cfg }

// Update applies fn under the job's lock. fn must not block on I/O.
func (s *State) Update(fn func(*Progress)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.progress)
}

func (s *State) MarkDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]string, len(s.progress.Messages))
	copy(msgs, s.progress.Messages)

	return Snapshot{
		ID:        s.id,
		Config:    s.cfg,
		Total:     s.progress.Total,
		Processed: s.progress.Processed,
		Successes: s.progress.Successes,
		Failures:  s.progress.Failures,
		Skipped:   s.progress.Skipped,
		Messages:  msgs,
		Done:      s.done,
		StartedAt: s.startedAt,
	}
}
