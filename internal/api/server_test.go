package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/webmark/internal/config"
	"github.com/dgallion1/webmark/internal/fetch"
	"github.com/dgallion1/webmark/internal/pipeline"
)

func newTestServer(t *testing.T, cfg config.Config, fc *fetch.Client) *Server {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	var f fetch.Fetcher
	if fc != nil {
		f = fc
	}
	orch := pipeline.NewOrchestrator(cfg, f, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, fc, log, cfg)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.URLHeader = false
	cfg.WorkerCount = 1
	return cfg
}

func do(s *Server, method, target string, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	rec := do(s, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestConvert(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	body := "<!DOCTYPE html><html><body><h1>Hi</h1><p>Text &amp; more</p></body></html>"
	rec := do(s, http.MethodPost, "/api/convert", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	m := decode(t, rec)
	if m["markdown"] != "## HiText & more" {
		t.Errorf("unexpected markdown %q", m["markdown"])
	}
	if m["status"] != "clean" {
		t.Errorf("expected clean status, got %v", m["status"])
	}
	if _, ok := m["outline"]; ok {
		t.Error("outline should be omitted unless requested")
	}
}

func TestConvert_HeaderAndOutline(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	body := "<!doctype html><h2>Section</h2><p>text</p>"
	rec := do(s, http.MethodPost, "/api/convert?url=https://example.com&header=true&outline=true", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	m := decode(t, rec)
	md, _ := m["markdown"].(string)
	if !strings.HasPrefix(md, "# URL: \n- https://example.com\n\n") {
		t.Errorf("expected url header, got %q", md)
	}
	sections, ok := m["outline"].([]any)
	if !ok || len(sections) != 1 {
		t.Fatalf("expected one top-level outline section, got %v", m["outline"])
	}
}

func TestConvert_Malformed(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	rec := do(s, http.MethodPost, "/api/convert", "<!doctype html><p>a</p><h1>x", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	m := decode(t, rec)
	if m["status"] != "malformed" {
		t.Errorf("expected malformed, got %v", m["status"])
	}
	unclosed, _ := m["unclosed"].([]any)
	if len(unclosed) != 1 || unclosed[0] != "h1" {
		t.Errorf("expected unclosed [h1], got %v", m["unclosed"])
	}
}

func TestConvert_Unprocessable(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"no anchor", "<html><p>x</p></html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, "/api/convert", tt.body, nil)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected 422, got %d", rec.Code)
			}
		})
	}
}

func TestConvert_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 16
	s := newTestServer(t, cfg, nil)
	rec := do(s, http.MethodPost, "/api/convert", "<!doctype html><p>"+strings.Repeat("x", 64)+"</p>", nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "secret"
	s := newTestServer(t, cfg, nil)

	if rec := do(s, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Errorf("health should be public, got %d", rec.Code)
	}
	if rec := do(s, http.MethodPost, "/api/convert", "<!doctype html>", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
	bad := http.Header{"Authorization": {"Bearer nope"}}
	if rec := do(s, http.MethodPost, "/api/convert", "<!doctype html>", bad); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}
	good := http.Header{"Authorization": {"Bearer secret"}}
	if rec := do(s, http.MethodPost, "/api/convert", "<!doctype html><p>x</p>", good); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}
}

func TestScrape_EndToEnd(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<!doctype html><h1>Remote</h1>"))
	}))
	defer site.Close()

	fc := fetch.NewClient(fetch.Config{}, nil)
	s := newTestServer(t, testConfig(), fc)

	body := `{"urls":["` + site.URL + `/page","ftp://nope"]}`
	rec := do(s, http.MethodPost, "/api/scrape", body, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Jobs []map[string]any `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Jobs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resp.Jobs))
	}
	if _, ok := resp.Jobs[1]["error"]; !ok {
		t.Errorf("expected error for non-http url, got %v", resp.Jobs[1])
	}
	jobID, _ := resp.Jobs[0]["job_id"].(string)
	if jobID == "" {
		t.Fatalf("missing job id: %v", resp.Jobs[0])
	}

	deadline := time.Now().Add(5 * time.Second)
	var snap map[string]any
	for time.Now().Before(deadline) {
		rec = do(s, http.MethodGet, "/api/scrape/"+jobID, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status: expected 200, got %d", rec.Code)
		}
		snap = decode(t, rec)
		if snap["status"] == string(pipeline.StatusCompleted) || snap["status"] == string(pipeline.StatusFailed) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap["status"] != string(pipeline.StatusCompleted) {
		t.Fatalf("expected completed job, got %v", snap)
	}
	if snap["markdown"] != "## Remote" {
		t.Errorf("unexpected markdown %q", snap["markdown"])
	}

	rec = do(s, http.MethodGet, "/api/stats/fetch", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rec.Code)
	}
	stats, _ := decode(t, rec)["stats"].(map[string]any)
	if stats["count"] != float64(1) {
		t.Errorf("expected one fetch recorded, got %v", stats)
	}
}

func TestScrape_BadRequests(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	if rec := do(s, http.MethodPost, "/api/scrape", "{", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad json, got %d", rec.Code)
	}
	if rec := do(s, http.MethodPost, "/api/scrape", `{"urls":[]}`, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty list, got %d", rec.Code)
	}
	if rec := do(s, http.MethodGet, "/api/scrape/unknown", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", rec.Code)
	}
	if rec := do(s, http.MethodGet, "/api/stats/fetch", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without fetch client, got %d", rec.Code)
	}
}

func TestUpload(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("files", "page.html")
	fw.Write([]byte("<!doctype html><p>uploaded</p>"))
	fw, _ = mw.CreateFormFile("files", "notes.txt")
	fw.Write([]byte("plain"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/scrape/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Jobs []map[string]any `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Jobs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resp.Jobs))
	}
	if _, ok := resp.Jobs[1]["error"]; !ok {
		t.Errorf("expected unsupported type error, got %v", resp.Jobs[1])
	}

	job := s.orchestrator.GetJob(resp.Jobs[0]["job_id"].(string))
	if job == nil {
		t.Fatal("uploaded job not found")
	}
	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("upload job did not finish")
	}
	if got := job.Snapshot().Markdown; got != "uploaded" {
		t.Errorf("unexpected markdown %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"page.html", "page.html"},
		{"../../etc/passwd", "passwd"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
