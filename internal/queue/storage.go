package queue

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/iago/geo-visibility-back/internal/domain"
)

var (
	ErrNotFound  = errors.New("job not found")
	ErrJobExists = errors.New("job already exists")
)

// Storage is the job registry behind the scheduler. Transition and
// ClaimNextPending are the only status mutation points and must be atomic.
type Storage interface {
	// Add inserts a pending job and returns its 1-indexed position among
	// pending jobs.
	Add(ctx context.Context, job *domain.Job) (int, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
	// List returns every job ordered by CreatedAt then Seq.
	List(ctx context.Context) ([]*domain.Job, error)
	// Position is the 1-indexed rank among pending jobs, or -1.
	Position(ctx context.Context, id string) (int, error)
	// Transition moves id from one status to another only if it is
	// currently in from.
	Transition(ctx context.Context, id string, from, to domain.JobStatus, errMsg string) (bool, error)
	// ClaimNextPending marks the oldest pending job processing and returns
	// it. It returns nil when nothing is pending or a job is already
	// processing.
	ClaimNextPending(ctx context.Context) (*domain.Job, error)
	// ClearTerminal removes completed, failed and cancelled jobs.
	ClearTerminal(ctx context.Context) (int, error)
}

// MemoryStorage keeps jobs in process memory. The registry is lost on restart.
type MemoryStorage struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{jobs: make(map[string]*domain.Job)}
}

func (s *MemoryStorage) Add(_ context.Context, job *domain.Job) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return 0, ErrJobExists
	}
	s.jobs[job.ID] = job.Clone()
	return s.positionLocked(job.ID), nil
}

func (s *MemoryStorage) Get(_ context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryStorage) List(_ context.Context) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := s.orderedLocked()
	for i, job := range ordered {
		ordered[i] = job.Clone()
	}
	return ordered, nil
}

func (s *MemoryStorage) Position(_ context.Context, id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.jobs[id]; !ok {
		return -1, ErrNotFound
	}
	return s.positionLocked(id), nil
}

func (s *MemoryStorage) Transition(_ context.Context, id string, from, to domain.JobStatus, errMsg string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false, ErrNotFound
	}
	if job.Status != from {
		return false, nil
	}
	job.Status = to
	job.Error = errMsg
	return true, nil
}

func (s *MemoryStorage) ClaimNextPending(_ context.Context) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *domain.Job
	for _, job := range s.orderedLocked() {
		if job.Status == domain.JobStatusProcessing {
			return nil, nil
		}
		if next == nil && job.Status == domain.JobStatusPending {
			next = job
		}
	}
	if next == nil {
		return nil, nil
	}
	next.Status = domain.JobStatusProcessing
	return next.Clone(), nil
}

func (s *MemoryStorage) ClearTerminal(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.Status.IsTerminal() {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStorage) positionLocked(id string) int {
	position := 0
	for _, job := range s.orderedLocked() {
		if job.Status != domain.JobStatusPending {
			continue
		}
		position++
		if job.ID == id {
			return position
		}
	}
	return -1
}

func (s *MemoryStorage) orderedLocked() []*domain.Job {
	ordered := make([]*domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		ordered = append(ordered, job)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return jobLess(ordered[i], ordered[j])
	})
	return ordered
}

func jobLess(a, b *domain.Job) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}
