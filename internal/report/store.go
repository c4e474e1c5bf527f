// Package report tracks the user-facing lifecycle of each batch run and
// mirrors queue events onto it.
package report

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iago/geo-visibility-back/internal/domain"
)

var ErrNotFound = errors.New("report not found")

// Store abstracts report persistence. UpdateStatus never changes FileName.
type Store interface {
	Create(ctx context.Context, report *domain.Report) error
	UpdateStatus(ctx context.Context, id string, status domain.ReportStatus, errMsg string, at time.Time) (*domain.Report, error)
	Get(ctx context.Context, id string) (*domain.Report, error)
	// List returns every report, newest first.
	List(ctx context.Context) ([]*domain.Report, error)
	FindByFileName(ctx context.Context, fileName string) (*domain.Report, error)
}

// MemoryStore keeps reports in memory for local development.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*domain.Report
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*domain.Report)}
}

func (s *MemoryStore) Create(_ context.Context, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *report
	s.reports[report.ID] = &clone
	return nil
}

func (s *MemoryStore) UpdateStatus(
	_ context.Context,
	id string,
	status domain.ReportStatus,
	errMsg string,
	at time.Time,
) (*domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	report.Status = status
	report.UpdatedAt = at
	if errMsg != "" {
		report.Error = errMsg
	}
	clone := *report
	return &clone, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *report
	return &clone, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*domain.Report, 0, len(s.reports))
	for _, report := range s.reports {
		clone := *report
		items = append(items, &clone)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].FileName > items[j].FileName
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *MemoryStore) FindByFileName(_ context.Context, fileName string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, report := range s.reports {
		if report.FileName == fileName {
			clone := *report
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}
