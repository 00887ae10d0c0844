package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/pipeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
		goleak.IgnoreTopFunction("github.com/godbus/dbus.(*Conn).inWorker"),
	)
}

// fakeExecutor records operations and optionally blocks until released
type fakeExecutor struct {
	mu      sync.Mutex
	ops     []string
	started chan struct{}
	release chan struct{}
	err     error
	summary *pipeline.RunSummary
}

func (f *fakeExecutor) Execute(_ context.Context, operation string) (*pipeline.RunSummary, error) {
	f.mu.Lock()
	f.ops = append(f.ops, operation)
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.summary != nil {
		return f.summary, f.err
	}
	return &pipeline.RunSummary{RunID: "run-1", Operation: operation, Success: f.err == nil}, f.err
}

func newTestServer(t *testing.T, exec Executor) *Server {
	t.Helper()
	s, err := New(exec, zap.NewNop())
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := do(t, newTestServer(t, &fakeExecutor{}).Router(), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestRoot_RunsFullPipeline(t *testing.T) {
	exec := &fakeExecutor{}
	w := do(t, newTestServer(t, exec).Router(), http.MethodGet, "/")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var summary pipeline.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "run-1", summary.RunID)
	assert.True(t, summary.Success)
	assert.Equal(t, []string{pipeline.OperationRun}, exec.ops)
}

func TestRuns_Operations(t *testing.T) {
	exec := &fakeExecutor{}
	h := newTestServer(t, exec).Router()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/runs").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/runs?operation=ingest").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/runs?operation=validate").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/runs?operation=drop").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/runs").Code)

	assert.Equal(t, []string{pipeline.OperationRun, pipeline.OperationIngest, pipeline.OperationValidate}, exec.ops)
}

func TestRuns_FailureReturnsSummary(t *testing.T) {
	exec := &fakeExecutor{
		err: errors.New("[Storage] stage connect failed: disk full"),
		summary: &pipeline.RunSummary{
			RunID:       "run-2",
			FailedStage: pipeline.StageConnect,
			Error:       "disk full",
		},
	}
	w := do(t, newTestServer(t, exec).Router(), http.MethodPost, "/runs")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var summary pipeline.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, pipeline.StageConnect, summary.FailedStage)
}

type nilSummaryExecutor struct{}

func (nilSummaryExecutor) Execute(context.Context, string) (*pipeline.RunSummary, error) {
	return nil, errors.New("classifier backend is required for a full run")
}

func TestRuns_FailureWithoutSummary(t *testing.T) {
	w := do(t, newTestServer(t, nilSummaryExecutor{}).Router(), http.MethodPost, "/runs")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "classifier backend is required")
}

func TestRuns_ConflictWhileBusy(t *testing.T) {
	exec := &fakeExecutor{started: make(chan struct{}), release: make(chan struct{})}
	h := newTestServer(t, exec).Router()

	first := make(chan int, 1)
	go func() {
		first <- do(t, h, http.MethodPost, "/runs").Code
	}()
	<-exec.started

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodGet, "/").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz").Code)

	close(exec.release)
	assert.Equal(t, http.StatusOK, <-first)
	assert.Len(t, exec.ops, 1)
}

func TestNew_RequiresExecutor(t *testing.T) {
	_, err := New(nil, zap.NewNop())
	assert.Error(t, err)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := newTestServer(t, &fakeExecutor{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, addr) }()

	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
