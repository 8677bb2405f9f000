package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"csync-go/internal/canvas"
	"csync-go/internal/config"
	"csync-go/internal/csync"
	"csync-go/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubApp scripts the application surface behind the HTTP handlers.
type stubApp struct {
	runSync   func(ctx context.Context, opts csync.SyncOptions) (*model.Report, error)
	status    *model.StatusReport
	statusErr error
	courses   []canvas.Course
	runs      []model.SyncRun
	dbErr     error
	gotLimit  int
}

func (a *stubApp) RunSync(ctx context.Context, opts csync.SyncOptions) (*model.Report, error) {
	if a.runSync != nil {
		return a.runSync(ctx, opts)
	}
	return &model.Report{Operation: opts.Operation()}, nil
}

func (a *stubApp) Status(context.Context) (*model.StatusReport, error) {
	return a.status, a.statusErr
}

func (a *stubApp) Courses(context.Context) []canvas.Course {
	return a.courses
}

func (a *stubApp) ListRuns(limit int) ([]model.SyncRun, error) {
	a.gotLimit = limit
	return a.runs, nil
}

func (a *stubApp) CheckDatabase() error {
	return a.dbErr
}

func newTestServer(app *stubApp) *Server {
	runner := csync.NewRunner(csync.NewNopLogger(), csync.RealClock{})
	return New(app, runner, csync.NewNopLogger(), NewMetrics(), config.ServerConfig{Addr: "127.0.0.1:0"})
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return body
}

func waitForRunner(t *testing.T, runner *csync.Runner) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !runner.Status().Running {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("background run did not finish in time")
}

func TestHealthcheck(t *testing.T) {
	app := &stubApp{}
	router := newTestServer(app).Router()

	w := perform(router, http.MethodGet, "/healthcheck", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := decodeBody(t, w); body["status"] != "ok" {
		t.Errorf("body = %v, want status ok", body)
	}

	app.dbErr = errors.New("database has no schema version (needs migration)")
	w = perform(router, http.MethodGet, "/healthcheck", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if body := decodeBody(t, w); body["status"] != "degraded" {
		t.Errorf("body = %v, want status degraded", body)
	}
}

func TestIndexStatus(t *testing.T) {
	app := &stubApp{status: &model.StatusReport{
		Status:            model.StatusPartialIndex,
		CanvasFilesTotal:  10,
		IndexedFilesTotal: 7,
		MissingFilesCount: 3,
	}}
	router := newTestServer(app).Router()

	w := perform(router, http.MethodGet, "/api/index/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody(t, w)
	if body["status"] != model.StatusPartialIndex {
		t.Errorf("status field = %v, want partial_index", body["status"])
	}
	if body["missing_files_count"] != float64(3) {
		t.Errorf("missing_files_count = %v, want 3", body["missing_files_count"])
	}

	app.status, app.statusErr = nil, errors.New("loading index state: corrupt")
	w = perform(router, http.MethodGet, "/api/index/status", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestCourses(t *testing.T) {
	app := &stubApp{courses: []canvas.Course{
		{ID: 101, Name: "Intro to CS", Code: "CS101"},
		{ID: 202, Name: "Calculus", Code: "MATH200"},
	}}
	router := newTestServer(app).Router()

	w := perform(router, http.MethodGet, "/api/courses", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody(t, w)
	courses, ok := body["courses"].([]any)
	if !ok || len(courses) != 2 {
		t.Errorf("courses = %v, want 2 entries", body["courses"])
	}
}

func TestTriggerSync(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var gotOpts csync.SyncOptions

	app := &stubApp{}
	app.runSync = func(ctx context.Context, opts csync.SyncOptions) (*model.Report, error) {
		gotOpts = opts
		close(started)
		<-release
		return &model.Report{Operation: opts.Operation(), Stats: model.RunStats{Uploaded: 2}}, nil
	}
	srv := newTestServer(app)
	router := srv.Router()

	w := perform(router, http.MethodPost, "/api/sync", `{"course_id": 101}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusAccepted, w.Body.String())
	}
	if body := decodeBody(t, w); body["operation"] != "sync" {
		t.Errorf("body = %v, want operation sync", body)
	}

	<-started
	if gotOpts.CourseID != 101 {
		t.Errorf("CourseID = %d, want 101", gotOpts.CourseID)
	}

	// A concurrent trigger is rejected while the run is in flight.
	w = perform(router, http.MethodPost, "/api/sync", "")
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	close(release)
	waitForRunner(t, srv.runner)

	w = perform(router, http.MethodGet, "/api/sync/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody(t, w)
	if body["running"] != false {
		t.Errorf("running = %v, want false", body["running"])
	}
	last, ok := body["last"].(map[string]any)
	if !ok {
		t.Fatalf("last = %v, want the completed run", body["last"])
	}
	report, ok := last["report"].(map[string]any)
	if !ok || report["operation"] != "sync" {
		t.Errorf("last.report = %v, want the run's report", last["report"])
	}
}

func TestTriggerSync_BadRequests(t *testing.T) {
	router := newTestServer(&stubApp{}).Router()

	w := perform(router, http.MethodPost, "/api/sync", `{"skip_upload": true, "upload_only": true}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("conflicting flags: status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = perform(router, http.MethodPost, "/api/sync", `{"course_id": "abc"`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSyncStatus_Idle(t *testing.T) {
	router := newTestServer(&stubApp{}).Router()

	w := perform(router, http.MethodGet, "/api/sync/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody(t, w)
	if body["running"] != false {
		t.Errorf("running = %v, want false", body["running"])
	}
	if _, ok := body["last"]; ok {
		t.Errorf("last = %v, want absent before any run", body["last"])
	}
}

func TestListRuns(t *testing.T) {
	app := &stubApp{runs: []model.SyncRun{
		{ID: "run-b", Operation: "sync", Status: model.RunStatusCompleted},
		{ID: "run-a", Operation: "download-only", Status: model.RunStatusFailed},
	}}
	router := newTestServer(app).Router()

	w := perform(router, http.MethodGet, "/api/runs?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if app.gotLimit != 5 {
		t.Errorf("limit passed through = %d, want 5", app.gotLimit)
	}
	body := decodeBody(t, w)
	runs, ok := body["runs"].([]any)
	if !ok || len(runs) != 2 {
		t.Errorf("runs = %v, want 2 entries", body["runs"])
	}

	for _, bad := range []string{"abc", "0", "-3"} {
		w = perform(router, http.MethodGet, "/api/runs?limit="+bad, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want %d", bad, w.Code, http.StatusBadRequest)
		}
	}
}
