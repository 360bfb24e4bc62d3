package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/capround/cutoffs/internal/config"
	"github.com/capround/cutoffs/internal/core"
	"github.com/capround/cutoffs/internal/store/memory"
)

const sampleCSV = `1,IIT Madras,CSE,98.5,120,450
2,Anna University,ECE,92.0,300,1200
3,PSG Tech,Mech,88.25,500,2100
`

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: 30 * time.Second,
		},
		Store:   config.StoreConfig{Backend: config.BackendMemory},
		Session: config.SessionConfig{SaveDebounce: time.Hour},
		Upload:  config.UploadConfig{MaxFileSize: 1 << 20},
		Rate:    config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	service := core.NewService(store, time.Hour)
	return NewServer(service, testConfig()), store
}

// doJSON performs a request with an optional JSON body and decodes the reply.
func doJSON(t *testing.T, srv *Server, method, path string, body, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if out != nil && rec.Code < 400 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

// uploadCSV posts content as a multipart file to the session's import route.
func uploadCSV(t *testing.T, srv *Server, sessionID, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/session/%s/import", sessionID), &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func importSample(t *testing.T, srv *Server, sessionID string) sessionResponse {
	t.Helper()
	rec := uploadCSV(t, srv, sessionID, "cutoffs.csv", sampleCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode import response: %v", err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp map[string]string
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}

func TestGetSession_Empty(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp sessionResponse
	rec := doJSON(t, srv, http.MethodGet, "/api/session/s1", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(resp.Session.ActiveRecords) != 0 {
		t.Errorf("fresh session has %d records", len(resp.Session.ActiveRecords))
	}
}

func TestImport(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := importSample(t, srv, "s1")
	if len(resp.Session.ActiveRecords) != 3 {
		t.Fatalf("active = %d, want 3", len(resp.Session.ActiveRecords))
	}
	if resp.SortField != core.SortByCountInsideBracket || resp.SortDirection != core.SortAsc {
		t.Errorf("sort state = %q/%q, want default inside-bracket asc",
			resp.SortField, resp.SortDirection)
	}
}

func TestImport_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("zero valid rows", func(t *testing.T) {
		rec := uploadCSV(t, srv, "s1", "cutoffs.csv", "short,row\n")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		var er ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if er.Code != "IMP001" {
			t.Errorf("code = %q, want IMP001", er.Code)
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		rec := uploadCSV(t, srv, "s1", "cutoffs.xlsx", sampleCSV)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		var er ErrorResponse
		json.Unmarshal(rec.Body.Bytes(), &er)
		if er.Code != "IMP003" {
			t.Errorf("code = %q, want IMP003", er.Code)
		}
	})

	t.Run("no file field", func(t *testing.T) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		w.WriteField("other", "value")
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/session/s1/import", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		var er ErrorResponse
		json.Unmarshal(rec.Body.Bytes(), &er)
		if er.Code != "IMP004" {
			t.Errorf("code = %q, want IMP004", er.Code)
		}
	})
}

func TestAddRecord(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp struct {
		Record  core.Record  `json:"record"`
		Session core.Session `json:"session"`
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/session/s1/records", core.RecordInput{
		InstitutionName: "NIT Trichy",
		CutoffScore:     "90.5",
	}, &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Record.InstitutionName != "NIT Trichy" || resp.Record.CutoffScore != 90.5 {
		t.Errorf("record = %+v", resp.Record)
	}
	if len(resp.Session.ActiveRecords) != 1 {
		t.Errorf("active = %d, want 1", len(resp.Session.ActiveRecords))
	}
}

func TestAddRecord_RequiresName(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/session/s1/records",
		core.RecordInput{InstitutionName: "   "}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteRestoreUndoFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	imported := importSample(t, srv, "s1")
	victim := imported.Session.ActiveRecords[1]

	var resp sessionResponse
	rec := doJSON(t, srv, http.MethodPost,
		"/api/session/s1/records/"+victim.ID+"/delete", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(resp.Session.ActiveRecords) != 2 || len(resp.Session.DeletedRecords) != 1 {
		t.Fatalf("after delete: active=%d deleted=%d",
			len(resp.Session.ActiveRecords), len(resp.Session.DeletedRecords))
	}

	rec = doJSON(t, srv, http.MethodPost,
		"/api/session/s1/records/"+victim.ID+"/restore", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore status = %d", rec.Code)
	}
	if len(resp.Session.ActiveRecords) != 3 || len(resp.Session.DeletedRecords) != 0 {
		t.Fatalf("after restore: active=%d deleted=%d",
			len(resp.Session.ActiveRecords), len(resp.Session.DeletedRecords))
	}
	if resp.Session.ActiveRecords[1].ID != victim.ID {
		t.Errorf("restored record not back at original slot")
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/session/s1/undo", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("undo status = %d", rec.Code)
	}
	if len(resp.Session.DeletedRecords) != 1 {
		t.Errorf("undo of restore should re-delete the record")
	}
}

func TestSortEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	importSample(t, srv, "s1")

	var resp sessionResponse
	body := map[string]string{"field": "cutoffScore"}

	rec := doJSON(t, srv, http.MethodPost, "/api/session/s1/sort", body, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.SortDirection != core.SortAsc {
		t.Errorf("first sort dir = %q, want asc", resp.SortDirection)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/session/s1/sort", body, &resp)
	if resp.SortDirection != core.SortDesc {
		t.Errorf("second sort dir = %q, want desc", resp.SortDirection)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/session/s1/sort",
		map[string]string{"field": "bogus"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", rec.Code)
	}
}

func TestMoveEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	imported := importSample(t, srv, "s1")
	first := imported.Session.ActiveRecords[0]

	var resp sessionResponse
	rec := doJSON(t, srv, http.MethodPost, "/api/session/s1/move",
		map[string]int{"from": 0, "to": 2}, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Session.ActiveRecords[2].ID != first.ID {
		t.Errorf("dragged record not at target position")
	}
}

func TestSaveAndLoad(t *testing.T) {
	srv, store := newTestServer(t)
	importSample(t, srv, "s1")

	var saveResp map[string]string
	rec := doJSON(t, srv, http.MethodPost, "/api/session/s1/save", nil, &saveResp)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d sessions, want 1", store.Len())
	}

	var loadResp struct {
		sessionResponse
		Found bool `json:"found"`
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/session/s1/load", nil, &loadResp)
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d", rec.Code)
	}
	if !loadResp.Found {
		t.Error("found = false after explicit save")
	}
	if len(loadResp.Session.ActiveRecords) != 3 {
		t.Errorf("loaded active = %d, want 3", len(loadResp.Session.ActiveRecords))
	}
}

func TestLoad_AbsentSession(t *testing.T) {
	srv, _ := newTestServer(t)

	var loadResp struct {
		sessionResponse
		Found bool `json:"found"`
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/session/fresh/load", nil, &loadResp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if loadResp.Found {
		t.Error("found = true for a session never saved")
	}
}

func TestSave_StoreFailure(t *testing.T) {
	srv, store := newTestServer(t)
	importSample(t, srv, "s1")

	store.SaveErr = errors.New("connection refused")

	rec := doJSON(t, srv, http.MethodPost, "/api/session/s1/save", nil, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if er.Code != "ST001" {
		t.Errorf("code = %q, want ST001", er.Code)
	}
	if er.Action == "" {
		t.Error("error response missing action guidance")
	}
}

func TestRateLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 3

	store := memory.New()
	service := core.NewService(store, time.Hour)
	srv := NewServer(service, cfg)

	var last int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		last = rec.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("status after burst = %d, want 429", last)
	}

	// A different IP still gets through.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("second IP status = %d, want 200", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestHasCSVExtension(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"cutoffs.csv", true},
		{"CUTOFFS.CSV", true},
		{"cutoffs.xlsx", false},
		{"csv", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := hasCSVExtension(tt.name); got != tt.want {
			t.Errorf("hasCSVExtension(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
