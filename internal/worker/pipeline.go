// Package worker turns a queued batch of questions into a CSV report.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iago/geo-visibility-back/internal/classify"
	"github.com/iago/geo-visibility-back/internal/domain"
	"github.com/iago/geo-visibility-back/internal/export"
	"github.com/iago/geo-visibility-back/internal/overview"
	"github.com/iago/geo-visibility-back/internal/retry"
)

const (
	noOverviewFound = "No AI overview found"

	markYes         = "有"
	markNo          = "無"
	markCompared    = "是"
	markNotCompared = "否"
)

// Driver asks one answer engine a question and returns its full answer,
// citations included.
type Driver interface {
	Ask(ctx context.Context, question string) (string, error)
	Name() string
}

// OverviewSource returns the search engine's AI overview for a query. A nil
// overview with a nil error means the search had none.
type OverviewSource interface {
	Overview(ctx context.Context, query string) (*overview.Overview, error)
}

type Config struct {
	Driver           Driver
	Overviews        OverviewSource
	Sink             export.Sink
	Retry            retry.Policy
	QuestionInterval time.Duration
	CompareThreshold int
	Logger           *log.Logger
}

// Pipeline is the queue executor: it collects answers for every question of
// a job, classifies them and writes the report file.
type Pipeline struct {
	driver    Driver
	overviews OverviewSource
	sink      export.Sink
	retry     retry.Policy
	interval  time.Duration
	threshold int
	logger    *log.Logger
}

func NewPipeline(cfg Config) *Pipeline {
	if cfg.CompareThreshold <= 0 {
		cfg.CompareThreshold = classify.DefaultCompareThreshold
	}
	return &Pipeline{
		driver:    cfg.Driver,
		overviews: cfg.Overviews,
		sink:      cfg.Sink,
		retry:     cfg.Retry,
		interval:  cfg.QuestionInterval,
		threshold: cfg.CompareThreshold,
		logger:    cfg.Logger,
	}
}

func (p *Pipeline) Execute(ctx context.Context, job *domain.Job) error {
	if p.sink == nil {
		return errors.New("report sink not configured")
	}
	if !export.ValidFileName(job.Params.FileName) {
		return fmt.Errorf("invalid report file name %q", job.Params.FileName)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if p.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(p.interval), 1)
	}

	records := make([]domain.AnswerRecord, 0, len(job.Questions))
	failed := 0
	for i, question := range job.Questions {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for question slot: %w", err)
		}

		record, err := p.collect(ctx, job.Params, i+1, question)
		if err != nil {
			failed++
			p.logf("question failed job_id=%s no=%d err=%v", job.ID, i+1, err)
		}
		records = append(records, record)
	}

	if failed == len(job.Questions) {
		return fmt.Errorf("all %d questions failed", failed)
	}

	schema := export.NewSchema(job.Params.BrandNames, job.Params.CompetitorBrands)
	if err := p.sink.Write(ctx, job.Params.FileName, export.Encode(schema, records)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	p.logf("report written job_id=%s file=%s rows=%d failed_questions=%d", job.ID, job.Params.FileName, len(records), failed)
	return nil
}

// collect always returns a record carrying the query so a failed question
// still occupies its row.
func (p *Pipeline) collect(ctx context.Context, params domain.JobParams, no int, question string) (domain.AnswerRecord, error) {
	record := domain.AnswerRecord{
		Input: topic(params),
		No:    no,
		Query: question,
	}

	p.fillOverview(ctx, &record, params, question)

	if p.driver == nil {
		return record, errors.New("answer driver not configured")
	}
	record.AnswerEngine = p.driver.Name()

	answer, err := retry.Do(ctx, p.retry, func(ctx context.Context) (string, error) {
		return p.driver.Ask(ctx, question)
	})
	if err != nil {
		return record, fmt.Errorf("ask %s: %w", p.driver.Name(), err)
	}

	body := classify.StripReferences(answer)
	references := classify.ExtractReferences(answer)

	record.ChatGPT = answer
	record.ChatGPTReference = references
	record.ChatGPTOfficial = mark(classify.OfficialWebsiteExists(answer, params.BrandWebsites), markYes, markNo)
	record.ChatGPTCompare = mark(classify.BrandCompare(body, params.BrandNames, params.CompetitorBrands, p.threshold), markCompared, markNotCompared)
	record.ChatGPTBrandExist = mark(classify.BrandExists(body, params.BrandNames), markYes, markNo)
	record.Brands = classify.BuildPresenceMatrix(body, params.BrandNames, params.CompetitorBrands)
	return record, nil
}

// fillOverview never fails the question: a missing overview or a search
// error is written as "No AI overview found".
func (p *Pipeline) fillOverview(ctx context.Context, record *domain.AnswerRecord, params domain.JobParams, question string) {
	var result *overview.Overview
	var err error
	if p.overviews != nil {
		result, err = p.overviews.Overview(ctx, question)
	}
	if err != nil {
		p.logf("overview lookup failed query=%q err=%v", question, err)
	}
	if err != nil || result == nil || len(result.TextBlocks) == 0 {
		record.AIO = noOverviewFound
		record.AIOOfficialSite = markNo
		record.AIOReference = ""
		record.AIOBrandCompare = markNotCompared
		record.AIOBrandExist = markNo
		return
	}

	text := overview.RenderOverview(result)
	references := overview.FormatReferences(result.References)

	record.AIO = text
	record.AIOReference = references
	record.AIOOfficialSite = mark(classify.OfficialWebsiteExists(references, params.BrandWebsites), markYes, markNo)
	record.AIOBrandCompare = mark(classify.BrandCompare(text, params.BrandNames, params.CompetitorBrands, p.threshold), markCompared, markNotCompared)
	record.AIOBrandExist = mark(classify.BrandExists(text, params.BrandNames), markYes, markNo)
}

func mark(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}

// topic falls back to the brand list when no topic was given.
func topic(params domain.JobParams) string {
	if strings.TrimSpace(params.Topic) != "" {
		return strings.TrimSpace(params.Topic)
	}
	return strings.Join(params.BrandNames, ", ")
}
