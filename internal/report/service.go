package report

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/iago/geo-visibility-back/internal/domain"
)

// Notifier is the push-notification boundary.
type Notifier interface {
	Notify(ctx context.Context, notification domain.Notification)
}

type Service struct {
	store    Store
	notifier Notifier
	logger   *log.Logger
	now      func() time.Time

	// serializes file name allocation
	createMu sync.Mutex
}

func NewService(store Store, notifier Notifier, logger *log.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateReport registers a pending report with a file name of the form
// <YYYYMMDD>_<NNN>[_<keyword>].csv, NNN counting the reports of that day.
func (s *Service) CreateReport(ctx context.Context, keyword string) (*domain.Report, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	now := s.now()
	day := now.Format("20060102")

	existing, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	report := &domain.Report{
		ID:        "report_" + uuid.NewString(),
		FileName:  BuildFileName(day, nextSequence(existing, day), keyword),
		Status:    domain.ReportStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	if s.logger != nil {
		s.logger.Printf("report created report_id=%s file=%s", report.ID, report.FileName)
	}
	return report, nil
}

// UpdateStatus writes status and pushes a report_status_update notification.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.ReportStatus, errMsg string) error {
	now := s.now()
	if _, err := s.store.UpdateStatus(ctx, id, status, errMsg, now); err != nil {
		return fmt.Errorf("update report %s: %w", id, err)
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, domain.Notification{
			Type:      domain.NotificationReportStatus,
			ReportID:  id,
			Status:    status,
			Error:     errMsg,
			Timestamp: now,
		})
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Report, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*domain.Report, error) {
	return s.store.List(ctx)
}

func (s *Service) FindByFileName(ctx context.Context, fileName string) (*domain.Report, error) {
	return s.store.FindByFileName(ctx, fileName)
}

// BuildFileName formats a report file name. The keyword is sanitized for
// file system use and omitted when empty.
func BuildFileName(day string, sequence int, keyword string) string {
	name := fmt.Sprintf("%s_%03d", day, sequence)
	if clean := SanitizeKeyword(keyword); clean != "" {
		name += "_" + clean
	}
	return name + ".csv"
}

// SanitizeKeyword keeps letters, digits, '-' and '_', mapping everything
// else to '_'.
func SanitizeKeyword(keyword string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, strings.TrimSpace(keyword))
	return strings.Trim(mapped, "_")
}

// FileKeyword picks the file name keyword from the first brand and the topic.
func FileKeyword(brandNames []string, topic string) string {
	brand := ""
	if len(brandNames) > 0 {
		brand = strings.TrimSpace(brandNames[0])
	}
	topic = strings.TrimSpace(topic)

	switch {
	case brand != "" && topic != "":
		return brand + "_" + topic
	case brand != "":
		return brand
	default:
		return topic
	}
}

func nextSequence(existing []*domain.Report, day string) int {
	highest := 0
	prefix := day + "_"
	for _, report := range existing {
		if !strings.HasPrefix(report.FileName, prefix) {
			continue
		}
		rest := strings.TrimPrefix(report.FileName, prefix)
		digits := rest
		if end := strings.IndexAny(rest, "_."); end >= 0 {
			digits = rest[:end]
		}
		if len(digits) < 3 {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}
