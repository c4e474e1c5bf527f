package integration

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/geo-visibility-back/internal/domain"
	"github.com/iago/geo-visibility-back/internal/events"
	"github.com/iago/geo-visibility-back/internal/export"
	httpserver "github.com/iago/geo-visibility-back/internal/http"
	"github.com/iago/geo-visibility-back/internal/http/handlers"
	"github.com/iago/geo-visibility-back/internal/notify"
	"github.com/iago/geo-visibility-back/internal/overview"
	"github.com/iago/geo-visibility-back/internal/queue"
	"github.com/iago/geo-visibility-back/internal/report"
	"github.com/iago/geo-visibility-back/internal/service"
	"github.com/iago/geo-visibility-back/internal/worker"
)

type cannedDriver struct{}

func (cannedDriver) Name() string { return "canned" }

func (cannedDriver) Ask(_ context.Context, question string) (string, error) {
	return "For " + question + " try Fubon or Cathay.\n[1]: https://fubon.com/a \"Fubon\"", nil
}

type cannedOverviews struct{}

func (cannedOverviews) Overview(_ context.Context, query string) (*overview.Overview, error) {
	return &overview.Overview{
		TextBlocks: []overview.Block{{Type: overview.BlockParagraph, Snippet: "Yuanta answers " + query}},
		References: []overview.Reference{{Link: "https://yuanta.com"}},
	}, nil
}

type integrationRuntime struct {
	server        *httptest.Server
	queue         *queue.Queue
	notifications <-chan domain.Notification
	cancel        context.CancelFunc
}

func startIntegrationRuntime(t *testing.T) integrationRuntime {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	logger := log.New(io.Discard, "", 0)

	hub := notify.NewHub(64, logger)
	notifications, unsubscribe := hub.Subscribe()
	reports := report.NewService(report.NewMemoryStore(), hub, logger)
	bus := events.NewBus(logger)
	report.NewConsumer(reports, hub, logger).SubscribeAll(bus)

	files := export.NewFileSink(t.TempDir(), logger)
	jobs := queue.New(queue.Config{
		Executor: worker.NewPipeline(worker.Config{
			Driver:    cannedDriver{},
			Overviews: cannedOverviews{},
			Sink:      files,
			Logger:    logger,
		}),
		Events:   bus,
		Logger:   logger,
		Interval: 20 * time.Millisecond,
	})
	jobs.Start(ctx)

	api := handlers.NewAPI(handlers.Dependencies{
		Scraping: service.NewScrapingService(reports, jobs, logger),
		Reports:  reports,
		Queue:    jobs,
		Files:    files,
		Hub:      hub,
		Logger:   logger,
	})
	server := httptest.NewServer(httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		CORSOrigins:    []string{"*"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}))

	t.Cleanup(func() {
		server.Close()
		cancel()
		jobs.Stop()
		unsubscribe()
	})

	return integrationRuntime{server: server, queue: jobs, notifications: notifications, cancel: cancel}
}

func (rt integrationRuntime) request(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request, err := http.NewRequest(method, rt.server.URL+path, reader)
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")

	response, err := rt.server.Client().Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	return response.StatusCode, data
}

func TestScrapingWorkflowEndToEnd(t *testing.T) {
	rt := startIntegrationRuntime(t)

	status, body := rt.request(t, http.MethodPost, "/api/scraping/init", `{
		"questions": ["best broker?", "cheapest app?", "safest bank?"],
		"params": {"brandNames": "Fubon", "brandWebsites": "fubon.com", "topic": "brokers",
			"targetRegions": "Taiwan", "competitorBrands": "Cathay,Yuanta", "questionsCount": 3}
	}`)
	require.Equal(t, http.StatusAccepted, status, string(body))

	var accepted struct {
		JobID    string `json:"jobId"`
		ReportID string `json:"reportId"`
		FileName string `json:"fileName"`
	}
	require.NoError(t, json.Unmarshal(body, &accepted))
	require.Equal(t, accepted.ReportID, accepted.JobID)

	var statuses []domain.ReportStatus
	deadline := time.After(5 * time.Second)
	for len(statuses) < 3 {
		select {
		case n := <-rt.notifications:
			if n.Type == domain.NotificationReportStatus && n.ReportID == accepted.ReportID {
				statuses = append(statuses, n.Status)
			}
		case <-deadline:
			t.Fatalf("report statuses so far: %v", statuses)
		}
	}
	assert.Equal(t, []domain.ReportStatus{
		domain.ReportStatusPending,
		domain.ReportStatusRunning,
		domain.ReportStatusCompleted,
	}, statuses)

	status, body = rt.request(t, http.MethodGet, "/api/reports/"+accepted.ReportID, "")
	require.Equal(t, http.StatusOK, status)
	var stored domain.Report
	require.NoError(t, json.Unmarshal(body, &stored))
	assert.Equal(t, domain.ReportStatusCompleted, stored.Status)

	status, body = rt.request(t, http.MethodGet, "/api/download/"+accepted.FileName, "")
	require.Equal(t, http.StatusOK, status)
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	header, last := rows[0], rows[3]
	assert.Equal(t, []string{"Fubon", "Cathay", "Yuanta"}, header[len(header)-3:])
	assert.Equal(t, []string{"3", "safest bank?"}, last[1:3])
	assert.Contains(t, last, "Yuanta answers safest bank?")
	assert.Contains(t, last, "For safest bank? try Fubon or Cathay.\n[1]: https://fubon.com/a \"Fubon\"")
	assert.Equal(t, []string{"canned", "1", "1", "0"}, last[len(last)-4:])

	status, _ = rt.request(t, http.MethodDelete, "/api/queue/completed", "")
	require.Equal(t, http.StatusOK, status)

	jobs, err := rt.queue.GetAllJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestCancelBeforeProcessing(t *testing.T) {
	rt := startIntegrationRuntime(t)
	rt.queue.Stop()

	status, body := rt.request(t, http.MethodPost, "/api/scraping/init", `{"questions":["q"],"params":{"brandNames":"Fubon"}}`)
	require.Equal(t, http.StatusAccepted, status)
	var accepted struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(body, &accepted))

	status, _ = rt.request(t, http.MethodPost, "/api/queue/job/"+accepted.JobID+"/cancel", "")
	require.Equal(t, http.StatusOK, status)

	status, body = rt.request(t, http.MethodGet, "/api/reports/"+accepted.JobID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"cancelled"`)

	assert.False(t, rt.queue.ProcessNext(context.Background()))
}
