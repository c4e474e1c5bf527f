// Package queue is the single-worker job queue. Jobs run one at a time in
// FIFO order; a pending job can be cancelled, a processing one cannot.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iago/geo-visibility-back/internal/domain"
)

const DefaultInterval = 5 * time.Second

var ErrInvalidJob = errors.New("invalid job")

// Executor runs the work of one job. A returned error or a panic marks the
// job failed.
type Executor interface {
	Execute(ctx context.Context, job *domain.Job) error
}

type ExecutorFunc func(ctx context.Context, job *domain.Job) error

func (f ExecutorFunc) Execute(ctx context.Context, job *domain.Job) error {
	return f(ctx, job)
}

// Emitter receives lifecycle events. events.Bus implements it.
type Emitter interface {
	Emit(ctx context.Context, event domain.QueueEvent)
}

type Config struct {
	Storage  Storage
	Executor Executor
	Events   Emitter
	Logger   *log.Logger
	Interval time.Duration
	Now      func() time.Time
	NewID    func() string
}

type Queue struct {
	storage  Storage
	executor Executor
	events   Emitter
	logger   *log.Logger
	interval time.Duration
	now      func() time.Time
	newID    func() string

	seq     atomic.Uint64
	busy    atomic.Bool
	trigger chan struct{}

	// order serializes a status change with the event announcing it, so
	// every job's events reach the bus as added, started, then terminal.
	order sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config) *Queue {
	if cfg.Storage == nil {
		cfg.Storage = NewMemoryStorage()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Queue{
		storage:  cfg.Storage,
		executor: cfg.Executor,
		events:   cfg.Events,
		logger:   cfg.Logger,
		interval: cfg.Interval,
		now:      cfg.Now,
		newID:    cfg.NewID,
		trigger:  make(chan struct{}, 1),
	}
}

// AddJob enqueues a pending job. A non-empty id is used verbatim.
func (q *Queue) AddJob(ctx context.Context, input domain.NewJob, id string) (string, error) {
	if err := validate(input); err != nil {
		return "", err
	}
	if id == "" {
		id = q.newID()
	}

	job := &domain.Job{
		ID:        id,
		Questions: input.Questions,
		Params:    input.Params,
		ReportID:  input.ReportID,
		CreatedAt: q.now(),
		Status:    domain.JobStatusPending,
		Seq:       q.seq.Add(1),
	}

	q.order.Lock()
	position, err := q.storage.Add(ctx, job)
	if err != nil {
		q.order.Unlock()
		return "", fmt.Errorf("add job %s: %w", id, err)
	}

	q.logf("job added job_id=%s report_id=%s questions=%d position=%d", id, job.ReportID, len(job.Questions), position)
	q.emit(ctx, domain.QueueEvent{
		Type:     domain.EventJobAdded,
		JobID:    id,
		ReportID: job.ReportID,
		Position: &position,
	})
	q.order.Unlock()

	q.Notify()
	return id, nil
}

// CancelJob cancels a pending job. It reports false for any other state,
// including unknown ids.
func (q *Queue) CancelJob(ctx context.Context, id string) bool {
	q.order.Lock()
	defer q.order.Unlock()

	ok, err := q.storage.Transition(ctx, id, domain.JobStatusPending, domain.JobStatusCancelled, "")
	if err != nil || !ok {
		return false
	}

	reportID := ""
	if job, err := q.storage.Get(ctx, id); err == nil {
		reportID = job.ReportID
	}
	q.logf("job cancelled job_id=%s", id)
	q.emit(ctx, domain.QueueEvent{Type: domain.EventJobCancelled, JobID: id, ReportID: reportID})
	return true
}

func (q *Queue) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	return q.storage.Get(ctx, id)
}

// GetJobPosition returns the 1-indexed rank among pending jobs or -1.
func (q *Queue) GetJobPosition(ctx context.Context, id string) int {
	position, err := q.storage.Position(ctx, id)
	if err != nil {
		return -1
	}
	return position
}

func (q *Queue) GetAllJobs(ctx context.Context) ([]*domain.Job, error) {
	return q.storage.List(ctx)
}

func (q *Queue) GetQueueStatus(ctx context.Context) (domain.QueueStatus, error) {
	jobs, err := q.storage.List(ctx)
	if err != nil {
		return domain.QueueStatus{}, fmt.Errorf("list jobs: %w", err)
	}

	status := domain.QueueStatus{Total: len(jobs)}
	for _, job := range jobs {
		switch job.Status {
		case domain.JobStatusPending:
			status.Pending++
		case domain.JobStatusProcessing:
			status.Processing++
			status.CurrentJob = job
		}
	}
	return status, nil
}

// ClearCompletedJobs drops every terminal job. No events are emitted.
func (q *Queue) ClearCompletedJobs(ctx context.Context) (int, error) {
	removed, err := q.storage.ClearTerminal(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear terminal jobs: %w", err)
	}
	if removed > 0 {
		q.logf("cleared terminal jobs count=%d", removed)
	}
	return removed, nil
}

// Notify asks the scheduler loop to run a tick now.
func (q *Queue) Notify() {
	select {
	case q.trigger <- struct{}{}:
	default:
	}
}

// Start runs the scheduler loop until Stop is called or ctx ends.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.done = make(chan struct{})
	go q.run(loopCtx, q.done)
	q.logf("queue scheduler started interval=%s", q.interval)
}

// Stop ends the loop and waits for the in-flight job, if any, to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	cancel, done := q.cancel, q.done
	q.cancel, q.done = nil, nil
	q.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	q.logf("queue scheduler stopped")
}

func (q *Queue) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	q.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.drain(ctx)
		case <-q.trigger:
			q.drain(ctx)
		}
	}
}

func (q *Queue) drain(ctx context.Context) {
	for ctx.Err() == nil && q.ProcessNext(ctx) {
	}
}

// ProcessNext runs one scheduler tick. It reports whether a job was run.
func (q *Queue) ProcessNext(ctx context.Context) bool {
	if !q.busy.CompareAndSwap(false, true) {
		return false
	}
	defer q.busy.Store(false)

	job := q.claim(ctx)
	if job == nil {
		return false
	}

	execErr := q.execute(ctx, job)

	// status writes must land even when the loop is being stopped
	finishCtx := context.WithoutCancel(ctx)
	if execErr != nil {
		q.finish(finishCtx, job, domain.JobStatusFailed, domain.EventJobFailed, execErr.Error())
		return true
	}
	q.finish(finishCtx, job, domain.JobStatusCompleted, domain.EventJobCompleted, "")
	return true
}

func (q *Queue) claim(ctx context.Context) *domain.Job {
	q.order.Lock()
	defer q.order.Unlock()

	job, err := q.storage.ClaimNextPending(ctx)
	if err != nil {
		q.logf("claim next job failed err=%v", err)
		return nil
	}
	if job == nil {
		return nil
	}

	q.logf("job started job_id=%s report_id=%s", job.ID, job.ReportID)
	q.emit(ctx, domain.QueueEvent{Type: domain.EventJobStarted, JobID: job.ID, ReportID: job.ReportID})
	return job
}

func (q *Queue) finish(ctx context.Context, job *domain.Job, status domain.JobStatus, eventType domain.EventType, errMsg string) {
	ok, err := q.storage.Transition(ctx, job.ID, domain.JobStatusProcessing, status, errMsg)
	if err != nil || !ok {
		q.logf("job finish transition rejected job_id=%s status=%s err=%v", job.ID, status, err)
		return
	}

	if errMsg != "" {
		q.logf("job failed job_id=%s err=%s", job.ID, errMsg)
	} else {
		q.logf("job completed job_id=%s", job.ID)
	}
	q.emit(ctx, domain.QueueEvent{Type: eventType, JobID: job.ID, ReportID: job.ReportID, Error: errMsg})
}

func (q *Queue) execute(ctx context.Context, job *domain.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	if q.executor == nil {
		return errors.New("no executor configured")
	}
	return q.executor.Execute(ctx, job)
}

func (q *Queue) emit(ctx context.Context, event domain.QueueEvent) {
	if q.events == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = q.now()
	}
	q.events.Emit(ctx, event)
}

func (q *Queue) logf(format string, args ...any) {
	if q.logger != nil {
		q.logger.Printf(format, args...)
	}
}

func validate(input domain.NewJob) error {
	if len(input.Questions) == 0 {
		return fmt.Errorf("%w: questions are required", ErrInvalidJob)
	}
	for i, question := range input.Questions {
		if strings.TrimSpace(question) == "" {
			return fmt.Errorf("%w: question %d is empty", ErrInvalidJob, i+1)
		}
	}
	return nil
}
