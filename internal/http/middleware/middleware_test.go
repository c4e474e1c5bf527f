package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDReusesValidHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	request.Header.Set("X-Request-Id", "client-123")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, "client-123", seen)
	assert.Equal(t, "client-123", recorder.Header().Get("X-Request-Id"))
}

func TestRequestIDReplacesInvalidHeader(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	request.Header.Set("X-Request-Id", strings.Repeat("x", 200))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	got := recorder.Header().Get("X-Request-Id")
	assert.Len(t, got, 36)
}

func TestTraceLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestID(Trace(log.New(&buf, "", 0))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	assert.Contains(t, buf.String(), "path=/api/reports status=418 bytes=2")
}

func TestTraceKeepsFlusher(t *testing.T) {
	flushed := false
	handler := Trace(log.New(&bytes.Buffer{}, "", 0))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		flusher.Flush()
		flushed = true
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/sse", nil))
	assert.True(t, flushed)
	assert.True(t, recorder.Flushed)
}

func TestRateLimitPerIP(t *testing.T) {
	handler := RateLimit(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		request := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
		request.RemoteAddr = "10.0.0.1:5000"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		codes = append(codes, recorder.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, other)
	assert.Equal(t, http.StatusOK, recorder.Code)

	health := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	health.RemoteAddr = "10.0.0.1:5000"
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, health)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestVisitorsForgetIdleClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	v := newVisitors(1, 1)
	v.now = func() time.Time { return now }

	require.True(t, v.allow("a"))
	now = now.Add(10 * time.Minute)
	require.True(t, v.allow("b"))

	v.mu.Lock()
	defer v.mu.Unlock()
	_, stillThere := v.byIP["a"]
	assert.False(t, stillThere)
}
