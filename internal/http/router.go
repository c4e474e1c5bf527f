package httpserver

import (
	"log"
	"net/http"

	"github.com/iago/geo-visibility-back/internal/http/handlers"
	"github.com/iago/geo-visibility-back/internal/http/middleware"
)

type RouterDependencies struct {
	API            *handlers.API
	Logger         *log.Logger
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(deps RouterDependencies) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", deps.API.Health)

	mux.HandleFunc("POST /api/questions", deps.API.GenerateQuestions)
	mux.HandleFunc("POST /api/scraping/init", deps.API.InitScraping)

	mux.HandleFunc("GET /api/reports", deps.API.ListReports)
	mux.HandleFunc("GET /api/reports/{reportID}", deps.API.GetReport)

	mux.HandleFunc("GET /api/queue/status", deps.API.QueueStatus)
	mux.HandleFunc("GET /api/queue/jobs", deps.API.ListJobs)
	mux.HandleFunc("GET /api/queue/job/{jobID}", deps.API.GetJob)
	mux.HandleFunc("POST /api/queue/job/{jobID}/cancel", deps.API.CancelJob)
	mux.HandleFunc("DELETE /api/queue/completed", deps.API.ClearCompletedJobs)

	mux.HandleFunc("GET /api/download/{fileName}", deps.API.Download)
	mux.HandleFunc("GET /api/sse", deps.API.Events)

	handler := http.Handler(mux)
	handler = middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst)(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: deps.CORSOrigins,
	})(handler)
	handler = middleware.Trace(deps.Logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
