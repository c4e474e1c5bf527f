package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/iago/geo-visibility-back/internal/ai"
	"github.com/iago/geo-visibility-back/internal/export"
	"github.com/iago/geo-visibility-back/internal/http/middleware"
	"github.com/iago/geo-visibility-back/internal/notify"
	"github.com/iago/geo-visibility-back/internal/queue"
	"github.com/iago/geo-visibility-back/internal/report"
	"github.com/iago/geo-visibility-back/internal/service"
)

var errInvalidPayload = errors.New("invalid payload")

// QuestionGenerator turns the brand form into candidate questions.
type QuestionGenerator interface {
	Generate(ctx context.Context, request ai.QuestionRequest) ([]string, error)
}

type Dependencies struct {
	Questions QuestionGenerator
	Scraping  *service.ScrapingService
	Reports   *report.Service
	Queue     *queue.Queue
	Files     export.Source
	Hub       *notify.Hub
	Logger    *log.Logger
}

type API struct {
	questions QuestionGenerator
	scraping  *service.ScrapingService
	reports   *report.Service
	queue     *queue.Queue
	files     export.Source
	hub       *notify.Hub
	logger    *log.Logger
}

func NewAPI(deps Dependencies) *API {
	return &API{
		questions: deps.Questions,
		scraping:  deps.Scraping,
		reports:   deps.Reports,
		queue:     deps.Queue,
		files:     deps.Files,
		hub:       deps.Hub,
		logger:    deps.Logger,
	}
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	payload := errorPayload{RequestID: middleware.GetRequestID(r.Context())}
	payload.Error.Code = code
	payload.Error.Message = message
	writeJSON(w, statusCode, payload)
}

func decodeJSON(r *http.Request, value any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(value); err != nil {
		return errInvalidPayload
	}
	return nil
}

func (api *API) logf(format string, args ...any) {
	if api.logger != nil {
		api.logger.Printf(format, args...)
	}
}
