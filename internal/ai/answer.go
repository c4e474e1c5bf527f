package ai

import (
	"context"
	"fmt"
	"log"
)

const answerInstructions = `You are a search-enabled assistant. Answer the user's question the way you would for a consumer, naming concrete brands, products and websites where relevant.
After the answer, list every source you relied on as a footnote, one per line, in exactly this form:
[1]: https://example.com/page "Page title"`

// AnswerEngine collects the answer text for one question from the chat API.
type AnswerEngine struct {
	generator TextGenerator
	profile   ModelProfile
	logger    *log.Logger
}

func NewAnswerEngine(generator TextGenerator, router *ModelRouter, logger *log.Logger) *AnswerEngine {
	return &AnswerEngine{
		generator: generator,
		profile:   router.Select(TaskAnswer),
		logger:    logger,
	}
}

// Name is written to the answer engine column of the report.
func (e *AnswerEngine) Name() string {
	return "OpenAI " + e.profile.PrimaryModel
}

func (e *AnswerEngine) Ask(ctx context.Context, question string) (string, error) {
	if e.generator == nil || !e.generator.Available() {
		return "", ErrOpenAIUnavailable
	}

	result, err := generateWithFallback(ctx, e.generator, e.profile, answerInstructions, question)
	if err != nil {
		return "", fmt.Errorf("ask answer engine: %w", err)
	}

	if e.logger != nil {
		e.logger.Printf("answer collected model=%s chars=%d", result.ModelID, len(result.Text))
	}
	return result.Text, nil
}
