package jobs

import (
	"errors"
	"sync"
)

// ErrDuplicateJob is returned when a job id is registered twice.
var ErrDuplicateJob = errors.New("job id already registered")

// Manager is the in-memory registry of running and completed jobs.
// Jobs are never removed; process lifetime is job history lifetime.
type Manager struct {
	mu    sync.Mutex
	jobs  map[string]*State
	order []string
}

func NewManager() *Manager {
	return &Manager{jobs: make(map[string]*State)}
}

func (m *Manager) Create(state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[state.ID()]; ok {
		return ErrDuplicateJob
	}
	m.jobs[state.ID()] = state
	m.order = append(m.order, state.ID())
	return nil
}

func (m *Manager) Get(id string) (*State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.jobs[id]
	return s, ok
}

// Update applies fn to a registered job's progress; it reports whether
// the job exists. The registry lock is released before the job's own
// lock is taken.
func (m *Manager) Update(id string, fn func(*Progress)) bool {
	s, ok := m.Get(id)
	if !ok {
		return false
	}
	s.Update(fn)
	return true
}

// Snapshots lists all known jobs in creation order.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.Lock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	states := make([]*State, 0, len(ids))
	for _, id := range ids {
		states = append(states, m.jobs[id])
	}
	m.mu.Unlock()

	out := make([]Snapshot, 0, len(states))
	for _, s := range states {
		out = append(out, s.Snapshot())
	}
	return out
}
