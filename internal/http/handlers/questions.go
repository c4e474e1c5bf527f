package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/iago/geo-visibility-back/internal/ai"
)

const maxQuestionsCount = 50

func (api *API) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var request ai.QuestionRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	if request.BrandNames == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "brandNames is required")
		return
	}
	if request.QuestionsCount <= 0 || request.QuestionsCount > maxQuestionsCount {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "questionsCount must be between 1 and 50")
		return
	}
	if api.questions == nil {
		writeError(w, r, http.StatusServiceUnavailable, "unavailable", "question generation is not configured")
		return
	}

	questions, err := api.questions.Generate(r.Context(), request)
	if err != nil {
		api.logf("question generation failed request_id=%s err=%v", requestID(r), err)
		if errors.Is(err, ai.ErrOpenAIUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, "unavailable", "question generation is not configured")
			return
		}
		writeError(w, r, http.StatusBadGateway, "upstream_error", "failed to generate questions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"questions": questions,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
