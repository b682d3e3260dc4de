package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"contentorbit/config"
	"contentorbit/orchestrator"
	"contentorbit/scheduler"
	"contentorbit/store"
	"contentorbit/types"
)

type fakeStorage struct {
	posts  map[string]*types.PublishedPost
	queued []*types.QueueItem
}

func (f *fakeStorage) Stats(now time.Time, loc *time.Location) (*types.Stats, error) {
	return &types.Stats{PostsToday: 2, TotalPosts: 10}, nil
}
func (f *fakeStorage) RecentPosts(limit int) ([]*types.PublishedPost, error) {
	var out []*types.PublishedPost
	for _, p := range f.posts {
		out = append(out, p)
	}
	return out, nil
}
func (f *fakeStorage) GetPost(id string) (*types.PublishedPost, error) {
	return f.posts[id], nil
}
func (f *fakeStorage) Logs(filter store.LogFilter) ([]*types.LogEntry, error) {
	return []*types.LogEntry{{Level: "info", Component: "pipeline", Message: "ok"}}, nil
}
func (f *fakeStorage) Enqueue(item *types.QueueItem) error {
	f.queued = append(f.queued, item)
	return nil
}
func (f *fakeStorage) QueueItems(limit int) ([]*types.QueueItem, error) {
	return f.queued, nil
}

type fakePipeline struct {
	runs    atomic.Int32
	retries atomic.Int32
}

func (f *fakePipeline) RunPipeline(ctx context.Context) (*orchestrator.PipelineResult, error) {
	f.runs.Add(1)
	return &orchestrator.PipelineResult{Success: true}, nil
}
func (f *fakePipeline) RunSinglePlatform(ctx context.Context, postID string, platform types.Platform) error {
	f.retries.Add(1)
	return nil
}
func (f *fakePipeline) TestAllConnections(ctx context.Context) map[string]orchestrator.ConnectionStatus {
	return map[string]orchestrator.ConnectionStatus{
		"blogger": {Configured: true, OK: true, Detail: "My Blog"},
	}
}

type fakeScheduler struct {
	running bool
}

func (f *fakeScheduler) Start(ctx context.Context) error { f.running = true; return nil }
func (f *fakeScheduler) Stop()                           { f.running = false }
func (f *fakeScheduler) Running() bool                   { return f.running }
func (f *fakeScheduler) Status() scheduler.Status        { return scheduler.Status{Running: f.running} }

func testServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	mgr, err := config.NewManager(filepath.Join(dir, "config.json"), filepath.Join(dir, "feeds.json"))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	s := &Server{
		Config:    mgr,
		DB:        &fakeStorage{posts: map[string]*types.PublishedPost{}},
		Pipeline:  &fakePipeline{},
		Scheduler: &fakeScheduler{},
	}
	return s, NewRouter(s)
}

func doJSON(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthIsOpen(t *testing.T) {
	_, r := testServer(t)
	w := doJSON(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
}

func TestAuthGate(t *testing.T) {
	s, r := testServer(t)
	if err := s.Config.Update(func(c *config.AppConfig) {
		c.System.DashboardPassword = "secret"
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if w := doJSON(r, http.MethodGet, "/api/stats", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("without password = %d, want 401", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/stats", "", map[string]string{"X-Dashboard-Password": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d, want 401", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/stats", "", map[string]string{"X-Dashboard-Password": "secret"}); w.Code != http.StatusOK {
		t.Errorf("correct password = %d, want 200", w.Code)
	}
	// health stays open
	if w := doJSON(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health behind auth: %d", w.Code)
	}
}

func TestStats(t *testing.T) {
	_, r := testServer(t)
	w := doJSON(r, http.MethodGet, "/api/stats", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d", w.Code)
	}
	var resp struct {
		Stats types.Stats `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.Stats.PostsToday != 2 {
		t.Errorf("posts today = %d", resp.Stats.PostsToday)
	}
}

func TestGetPostNotFound(t *testing.T) {
	_, r := testServer(t)
	if w := doJSON(r, http.MethodGet, "/api/posts/nope", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing post = %d, want 404", w.Code)
	}
}

func TestFeedCRUD(t *testing.T) {
	_, r := testServer(t)

	w := doJSON(r, http.MethodPost, "/api/feeds",
		`{"name":"Ars","url":"https://arstechnica.com/feed/","category":"tech","active":true,"priority":7}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("add feed = %d: %s", w.Code, w.Body.String())
	}

	// duplicate name rejected
	w = doJSON(r, http.MethodPost, "/api/feeds",
		`{"name":"Ars","url":"https://example.com/feed"}`, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate feed = %d, want 409", w.Code)
	}

	// missing fields rejected
	w = doJSON(r, http.MethodPost, "/api/feeds", `{"name":"  "}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank feed = %d, want 400", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/feeds", "", nil)
	var list struct {
		Feeds []types.Feed `json:"feeds"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	found := false
	for _, f := range list.Feeds {
		if f.Name == "Ars" {
			found = true
		}
	}
	if !found {
		t.Errorf("added feed missing from list: %+v", list.Feeds)
	}

	if w = doJSON(r, http.MethodDelete, "/api/feeds/Ars", "", nil); w.Code != http.StatusOK {
		t.Errorf("delete feed = %d", w.Code)
	}
	if w = doJSON(r, http.MethodDelete, "/api/feeds/Ars", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("double delete = %d, want 404", w.Code)
	}
}

func TestConfigUpdateKeepsMaskedSecrets(t *testing.T) {
	s, r := testServer(t)
	if err := s.Config.Update(func(c *config.AppConfig) {
		c.Devto.APIKey = "real-api-key"
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// dashboard sends back the masked key plus a real edit
	body := `{"devto":{"api_key":"re****ey"},"schedule":{"posting_interval_minutes":45}}`
	if w := doJSON(r, http.MethodPut, "/api/config", body, nil); w.Code != http.StatusOK {
		t.Fatalf("update config = %d", w.Code)
	}

	cfg := s.Config.Get()
	if cfg.Devto.APIKey != "real-api-key" {
		t.Errorf("masked secret overwrote stored key: %q", cfg.Devto.APIKey)
	}
	if cfg.Schedule.PostingIntervalMinutes != 45 {
		t.Errorf("interval = %d, want 45", cfg.Schedule.PostingIntervalMinutes)
	}
}

func TestConfigGetMasksSecrets(t *testing.T) {
	s, r := testServer(t)
	s.Config.Update(func(c *config.AppConfig) {
		c.Cohere.APIKey = "super-secret-key"
	})

	w := doJSON(r, http.MethodGet, "/api/config", "", nil)
	if strings.Contains(w.Body.String(), "super-secret-key") {
		t.Error("secret leaked through GET /api/config")
	}
}

func TestRunNowAccepted(t *testing.T) {
	s, r := testServer(t)
	w := doJSON(r, http.MethodPost, "/api/run", "", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("run = %d, want 202", w.Code)
	}

	pipe := s.Pipeline.(*fakePipeline)
	deadline := time.After(time.Second)
	for pipe.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("pipeline never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRetryRejectsUnknownPlatform(t *testing.T) {
	_, r := testServer(t)
	if w := doJSON(r, http.MethodPost, "/api/posts/p1/retry/myspace", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown platform = %d, want 400", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/api/posts/p1/retry/devto", "", nil); w.Code != http.StatusAccepted {
		t.Errorf("valid platform = %d, want 202", w.Code)
	}
}

func TestQueueEndpoints(t *testing.T) {
	s, r := testServer(t)

	w := doJSON(r, http.MethodPost, "/api/queue", `{"article_url":"https://example.com/story","priority":8}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("enqueue = %d: %s", w.Code, w.Body.String())
	}
	if w = doJSON(r, http.MethodPost, "/api/queue", `{"title":"no url"}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing url = %d, want 400", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/queue", "", nil)
	var resp struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 1 {
		t.Errorf("queue count = %d, want 1", resp.Count)
	}

	db := s.DB.(*fakeStorage)
	if len(db.queued) != 1 || db.queued[0].ArticleURL != "https://example.com/story" {
		t.Errorf("queued = %+v", db.queued)
	}
}

func TestSchedulerControls(t *testing.T) {
	s, r := testServer(t)

	if w := doJSON(r, http.MethodPost, "/api/scheduler/start", "", nil); w.Code != http.StatusOK {
		t.Fatalf("start = %d", w.Code)
	}
	if !s.Scheduler.Running() {
		t.Error("scheduler not running after start")
	}
	if w := doJSON(r, http.MethodPost, "/api/scheduler/stop", "", nil); w.Code != http.StatusOK {
		t.Fatalf("stop = %d", w.Code)
	}
	if s.Scheduler.Running() {
		t.Error("scheduler still running after stop")
	}
}
