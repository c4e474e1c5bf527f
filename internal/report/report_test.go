package report

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/geo-visibility-back/internal/domain"
	"github.com/iago/geo-visibility-back/internal/events"
)

type captureNotifier struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (c *captureNotifier) Notify(_ context.Context, n domain.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

func (c *captureNotifier) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item.Type)
	}
	return out
}

type steppingClock struct {
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

func newTestService() (*Service, *captureNotifier, *steppingClock) {
	notifier := &captureNotifier{}
	clock := &steppingClock{now: time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)}
	svc := NewService(NewMemoryStore(), notifier, log.New(io.Discard, "", 0)).WithClock(clock.Now)
	return svc, notifier, clock
}

func TestCreateReportAllocatesDailySequence(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.CreateReport(ctx, "Fubon_online brokers")
	require.NoError(t, err)
	second, err := svc.CreateReport(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, "20250402_001_Fubon_online_brokers.csv", first.FileName)
	assert.Equal(t, "20250402_002.csv", second.FileName)
	assert.Equal(t, domain.ReportStatusPending, first.Status)
	assert.Contains(t, first.ID, "report_")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateReportSequenceCrossesThreeDigits(t *testing.T) {
	store := NewMemoryStore()
	clock := &steppingClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
	svc := NewService(store, nil, log.New(io.Discard, "", 0)).WithClock(clock.Now)
	ctx := context.Background()

	for _, name := range []string{"20250301_999_brand.csv", "20250301_1000.csv", "20250228_4000.csv"} {
		require.NoError(t, store.Create(ctx, &domain.Report{ID: "report_" + name, FileName: name}))
	}

	next, err := svc.CreateReport(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "20250301_1001.csv", next.FileName)

	after, err := svc.CreateReport(ctx, "brand")
	require.NoError(t, err)
	assert.Equal(t, "20250301_1002_brand.csv", after.FileName)
}

func TestNextSequenceReadsWholeDigitRun(t *testing.T) {
	existing := []*domain.Report{
		{FileName: "20250301_007_2024.csv"},
		{FileName: "20250301_1000_x.csv"},
		{FileName: "20250301_12.csv"},
		{FileName: "20250302_5000.csv"},
	}
	assert.Equal(t, 1001, nextSequence(existing, "20250301"))
	assert.Equal(t, 1, nextSequence(nil, "20250301"))
}

func TestUpdateStatusRefreshesTimestampAndNotifies(t *testing.T) {
	svc, notifier, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateReport(ctx, "kw")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, created.ID, domain.ReportStatusFailed, "search quota exceeded"))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusFailed, got.Status)
	assert.Equal(t, "search quota exceeded", got.Error)
	assert.Equal(t, created.FileName, got.FileName)
	assert.True(t, got.UpdatedAt.After(created.UpdatedAt))

	require.Len(t, notifier.items, 1)
	assert.Equal(t, domain.NotificationReportStatus, notifier.items[0].Type)
	assert.Equal(t, domain.ReportStatusFailed, notifier.items[0].Status)

	err = svc.UpdateStatus(ctx, "missing", domain.ReportStatusRunning, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	older, _ := svc.CreateReport(ctx, "a")
	newer, _ := svc.CreateReport(ctx, "b")

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)

	found, err := svc.FindByFileName(ctx, older.FileName)
	require.NoError(t, err)
	assert.Equal(t, older.ID, found.ID)
}

func TestFileKeyword(t *testing.T) {
	assert.Equal(t, "fubon_brokers", FileKeyword([]string{"fubon", "cathay"}, "brokers"))
	assert.Equal(t, "fubon", FileKeyword([]string{"fubon"}, ""))
	assert.Equal(t, "brokers", FileKeyword(nil, " brokers "))
	assert.Equal(t, "", FileKeyword(nil, ""))
}

func TestSanitizeKeyword(t *testing.T) {
	assert.Equal(t, "富邦_證券", SanitizeKeyword("富邦/證券"))
	assert.Equal(t, "a_b", SanitizeKeyword(" ..a b.. "))
}

func TestConsumerMirrorsQueueEvents(t *testing.T) {
	svc, notifier, _ := newTestService()
	ctx := context.Background()
	created, err := svc.CreateReport(ctx, "kw")
	require.NoError(t, err)

	bus := events.NewBus(log.New(io.Discard, "", 0))
	NewConsumer(svc, notifier, log.New(io.Discard, "", 0)).SubscribeAll(bus)

	position := 1
	steps := []struct {
		event domain.QueueEvent
		want  domain.ReportStatus
	}{
		{domain.QueueEvent{Type: domain.EventJobAdded, Position: &position}, domain.ReportStatusPending},
		{domain.QueueEvent{Type: domain.EventJobStarted}, domain.ReportStatusRunning},
		{domain.QueueEvent{Type: domain.EventJobFailed, Error: "driver timeout"}, domain.ReportStatusFailed},
	}

	for _, step := range steps {
		step.event.JobID = created.ID
		step.event.ReportID = created.ID
		bus.Emit(ctx, step.event)

		got, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, step.want, got.Status)
	}

	assert.Equal(t, []string{
		domain.NotificationReportStatus, "job_added",
		domain.NotificationReportStatus, "job_started",
		domain.NotificationReportStatus, "job_failed",
	}, notifier.types())

	added := notifier.items[1]
	require.NotNil(t, added.Position)
	assert.Equal(t, 1, *added.Position)
	assert.Equal(t, "driver timeout", notifier.items[5].Error)
}

func TestConsumerIgnoresEventsWithoutReport(t *testing.T) {
	svc, notifier, _ := newTestService()
	consumer := NewConsumer(svc, notifier, nil)

	err := consumer.Handle(context.Background(), domain.QueueEvent{Type: domain.EventJobStarted, JobID: "j"})
	assert.NoError(t, err)
	assert.Empty(t, notifier.items)
}

func TestStatusFor(t *testing.T) {
	for eventType, want := range map[domain.EventType]domain.ReportStatus{
		domain.EventJobAdded:     domain.ReportStatusPending,
		domain.EventJobStarted:   domain.ReportStatusRunning,
		domain.EventJobCompleted: domain.ReportStatusCompleted,
		domain.EventJobFailed:    domain.ReportStatusFailed,
		domain.EventJobCancelled: domain.ReportStatusCancelled,
	} {
		got, ok := StatusFor(eventType)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := StatusFor("job_exploded")
	assert.False(t, ok)
}
