package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
)

// DefaultQuestionPrompt is used when the caller sends no system prompt.
const DefaultQuestionPrompt = `You research how AI answer engines talk about brands.
Brands: {brandNames}
Official websites: {brandWebsites}
Products and services: {productsServices}
Target regions: {targetRegions}
Competitors: {competitorBrands}

Write {questionsCount} natural questions a consumer in the target regions would ask a search engine or chat assistant when choosing among these products and services. Write one question per line, in the local language of the target regions, without numbering or extra commentary.`

var numberedLine = regexp.MustCompile(`^\d+\.`)

// QuestionRequest is the form submitted to generate questions. List fields
// are kept as the raw comma separated strings the user typed.
type QuestionRequest struct {
	BrandNames       string `json:"brandNames"`
	BrandWebsites    string `json:"brandWebsites"`
	ProductsServices string `json:"productsServices"`
	TargetRegions    string `json:"targetRegions"`
	CompetitorBrands string `json:"competitorBrands"`
	QuestionsCount   int    `json:"questionsCount"`
	SystemPrompt     string `json:"systemPrompt"`
}

// FillPrompt substitutes every {placeholder} in template.
func FillPrompt(template string, request QuestionRequest) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultQuestionPrompt
	}
	return strings.NewReplacer(
		"{brandNames}", request.BrandNames,
		"{brandWebsites}", request.BrandWebsites,
		"{productsServices}", request.ProductsServices,
		"{targetRegions}", request.TargetRegions,
		"{competitorBrands}", request.CompetitorBrands,
		"{questionsCount}", strconv.Itoa(request.QuestionsCount),
	).Replace(template)
}

// ParseQuestions splits model output into questions, dropping blank and
// numbered lines.
func ParseQuestions(text string) []string {
	lines := strings.Split(text, "\n")
	questions := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || numberedLine.MatchString(trimmed) {
			continue
		}
		questions = append(questions, trimmed)
	}
	return questions
}

type QuestionGenerator struct {
	generator TextGenerator
	profile   ModelProfile
	logger    *log.Logger
}

func NewQuestionGenerator(generator TextGenerator, router *ModelRouter, logger *log.Logger) *QuestionGenerator {
	return &QuestionGenerator{
		generator: generator,
		profile:   router.Select(TaskQuestions),
		logger:    logger,
	}
}

func (g *QuestionGenerator) Generate(ctx context.Context, request QuestionRequest) ([]string, error) {
	if g.generator == nil || !g.generator.Available() {
		return nil, ErrOpenAIUnavailable
	}

	prompt := FillPrompt(request.SystemPrompt, request)
	result, err := generateWithFallback(ctx, g.generator, g.profile, "", prompt)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions := ParseQuestions(result.Text)
	if len(questions) == 0 {
		return nil, errors.New("generate questions: model returned no questions")
	}

	if g.logger != nil {
		g.logger.Printf("questions generated count=%d model=%s tokens=%d", len(questions), result.ModelID, result.Usage.TotalTokens)
	}
	return questions, nil
}
