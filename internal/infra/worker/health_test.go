package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, body
}

func TestHealthServer_Liveness(t *testing.T) {
	server := NewHealthServer(":0", discardLogger())

	code, body := get(t, server.Handler(), "/health")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthServer_Readiness(t *testing.T) {
	server := NewHealthServer(":0", discardLogger())

	code, body := get(t, server.Handler(), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body["status"])

	server.SetReady(true)
	code, body = get(t, server.Handler(), "/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	server.SetReady(false)
	code, _ = get(t, server.Handler(), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHealthServer_LastRun(t *testing.T) {
	started := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		run        *LastRun
		wantCode   int
		wantStatus string
	}{
		{
			name:       "no run yet",
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "no run yet",
		},
		{
			name: "successful run",
			run: &LastRun{
				RunID: "r1", Status: JobStatusSuccess,
				StartedAt: started, FinishedAt: started.Add(time.Minute),
				Added: 3, HistorySize: 120,
			},
			wantCode:   http.StatusOK,
			wantStatus: JobStatusSuccess,
		},
		{
			name: "failed run",
			run: &LastRun{
				RunID: "r2", Status: JobStatusFailure,
				StartedAt: started, FinishedAt: started.Add(time.Minute),
				Error: "save history: history modified concurrently",
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: JobStatusFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewHealthServer(":0", discardLogger())
			if tt.run != nil {
				server.RecordRun(*tt.run)
			}

			code, body := get(t, server.Handler(), "/health/last-run")

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, body["status"])
			if tt.run != nil {
				assert.Equal(t, tt.run.RunID, body["run_id"])
				assert.Equal(t, float64(tt.run.Added), body["added"])
			}
		})
	}
}

func TestHealthServer_GracefulShutdown(t *testing.T) {
	server := NewHealthServer("localhost:19095", discardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()

	// Wait for server to start
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://localhost:19095/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-errChan:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown timeout")
	}

	_, err := http.Get("http://localhost:19095/health")
	assert.Error(t, err, "server must be stopped after shutdown")
}

func TestNewHealthServer(t *testing.T) {
	server := NewHealthServer(":9091", discardLogger())

	assert.Equal(t, ":9091", server.addr)
	require.NotNil(t, server.isReady)
	assert.False(t, server.isReady.Load(), "starts as not ready")
	assert.Nil(t, server.lastRun.Load())
}
