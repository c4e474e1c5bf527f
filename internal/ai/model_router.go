package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type TaskKind string

const (
	TaskQuestions TaskKind = "questions"
	TaskAnswer    TaskKind = "answer"
)

type ModelProfile struct {
	PrimaryModel    string
	FallbackModel   string
	Temperature     float64
	MaxOutputTokens int
}

type ModelRouterConfig struct {
	QuestionsModel string
	AnswerModel    string
	FallbackModel  string
}

type ModelRouter struct {
	config ModelRouterConfig
}

func NewModelRouter(config ModelRouterConfig) *ModelRouter {
	if strings.TrimSpace(config.QuestionsModel) == "" {
		config.QuestionsModel = "gpt-4.1"
	}
	if strings.TrimSpace(config.AnswerModel) == "" {
		config.AnswerModel = "gpt-4.1"
	}
	if strings.TrimSpace(config.FallbackModel) == "" {
		config.FallbackModel = "gpt-4.1-mini"
	}
	return &ModelRouter{config: config}
}

func (r *ModelRouter) Select(task TaskKind) ModelProfile {
	switch task {
	case TaskAnswer:
		return ModelProfile{
			PrimaryModel:    r.config.AnswerModel,
			FallbackModel:   r.config.FallbackModel,
			Temperature:     0.7,
			MaxOutputTokens: 4000,
		}
	default:
		return ModelProfile{
			PrimaryModel:    r.config.QuestionsModel,
			FallbackModel:   r.config.FallbackModel,
			Temperature:     0.7,
			MaxOutputTokens: 4000,
		}
	}
}

// generateWithFallback tries the primary model, then the fallback model when
// one is configured and differs.
func generateWithFallback(
	ctx context.Context,
	generator TextGenerator,
	profile ModelProfile,
	instructions string,
	input string,
) (GenerateResult, error) {
	request := GenerateRequest{
		Model:           profile.PrimaryModel,
		Instructions:    instructions,
		Input:           input,
		Temperature:     profile.Temperature,
		MaxOutputTokens: profile.MaxOutputTokens,
	}
	result, err := generator.Generate(ctx, request)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, ErrOpenAIUnavailable) || errors.Is(err, context.Canceled) {
		return GenerateResult{}, err
	}

	fallback := strings.TrimSpace(profile.FallbackModel)
	if fallback == "" || fallback == profile.PrimaryModel {
		return GenerateResult{}, err
	}

	request.Model = fallback
	fallbackResult, fallbackErr := generator.Generate(ctx, request)
	if fallbackErr != nil {
		return GenerateResult{}, fmt.Errorf("primary model failed: %v; fallback failed: %w", err, fallbackErr)
	}
	return fallbackResult, nil
}
