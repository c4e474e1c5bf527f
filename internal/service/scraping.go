package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/iago/geo-visibility-back/internal/classify"
	"github.com/iago/geo-visibility-back/internal/domain"
	"github.com/iago/geo-visibility-back/internal/queue"
	"github.com/iago/geo-visibility-back/internal/report"
)

var ErrInvalidRequest = errors.New("invalid scraping request")

// ScrapingParams is the brand form as submitted by the client; list fields
// are comma separated.
type ScrapingParams struct {
	BrandNames       string `json:"brandNames"`
	BrandWebsites    string `json:"brandWebsites"`
	Topic            string `json:"topic"`
	TargetRegions    string `json:"targetRegions"`
	CompetitorBrands string `json:"competitorBrands"`
	QuestionsCount   int    `json:"questionsCount"`
}

type ScrapingRequest struct {
	Questions []string       `json:"questions"`
	Params    ScrapingParams `json:"params"`
}

type ScrapingResult struct {
	JobID    string
	Report   *domain.Report
	Position int
}

type ScrapingService struct {
	reports *report.Service
	queue   *queue.Queue
	logger  *log.Logger
}

func NewScrapingService(reports *report.Service, jobs *queue.Queue, logger *log.Logger) *ScrapingService {
	return &ScrapingService{reports: reports, queue: jobs, logger: logger}
}

// Start creates the report for a batch and enqueues it. The job id is the
// report id so either can be used to follow progress.
func (s *ScrapingService) Start(ctx context.Context, request ScrapingRequest) (*ScrapingResult, error) {
	questions := make([]string, 0, len(request.Questions))
	for _, question := range request.Questions {
		if trimmed := strings.TrimSpace(question); trimmed != "" {
			questions = append(questions, trimmed)
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: questions are required", ErrInvalidRequest)
	}

	params := domain.JobParams{
		BrandNames:       classify.DistinctBrands(classify.ParseList(request.Params.BrandNames)),
		BrandWebsites:    classify.ParseList(request.Params.BrandWebsites),
		CompetitorBrands: classify.DistinctBrands(classify.ParseList(request.Params.CompetitorBrands)),
		Topic:            strings.TrimSpace(request.Params.Topic),
		TargetRegions:    strings.TrimSpace(request.Params.TargetRegions),
		QuestionCount:    request.Params.QuestionsCount,
	}

	created, err := s.reports.CreateReport(ctx, report.FileKeyword(params.BrandNames, params.Topic))
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	params.FileName = created.FileName

	jobID, err := s.queue.AddJob(ctx, domain.NewJob{
		Questions: questions,
		Params:    params,
		ReportID:  created.ID,
	}, created.ID)
	if err != nil {
		if updateErr := s.reports.UpdateStatus(ctx, created.ID, domain.ReportStatusFailed, err.Error()); updateErr != nil && s.logger != nil {
			s.logger.Printf("mark report failed report_id=%s err=%v", created.ID, updateErr)
		}
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	if s.logger != nil {
		s.logger.Printf("scraping started job_id=%s file=%s questions=%d", jobID, created.FileName, len(questions))
	}

	return &ScrapingResult{
		JobID:    jobID,
		Report:   created,
		Position: s.queue.GetJobPosition(ctx, jobID),
	}, nil
}
