package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"linewaste/internal/catalog"
	"linewaste/internal/config"
	"linewaste/internal/importer"
	"linewaste/internal/service/calculator"
	"linewaste/internal/service/entry"
	"linewaste/internal/service/repository"
	"linewaste/internal/store"
)

type testServer struct {
	router *gin.Engine
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	st := store.NewCSVStore(filepath.Join(dir, "data.csv"), "")
	repo := repository.New(st, time.Minute, nil)
	h := NewHandler(Deps{
		Repo:      repo,
		Entries:   entry.NewService(repo, catalog.Default(), nil),
		Engine:    calculator.NewEngine(calculator.DefaultParams()),
		Auth:      config.AuthConfig{Username: "admin", Password: "admin123"},
		Backend:   store.BackendCSV,
		ExportDir: filepath.Join(dir, "exports"),
		UploadDir: filepath.Join(dir, "uploads"),
	})

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	ts := &testServer{router: r}
	ts.token = ts.login(t, "admin", "admin123")
	return ts
}

func (ts *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, user, pass string) string {
	t.Helper()
	w := ts.do(http.MethodPost, "/api/login", LoginRequest{Username: user, Password: pass}, "")
	if w.Code != http.StatusOK {
		return ""
	}
	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	return resp.Token
}

// recentDay 昨天，避免时区差异触发“未来日期”校验
func recentDay() string {
	return time.Now().AddDate(0, 0, -1).UTC().Format("2006-01-02")
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t)
	if ts.token == "" {
		t.Fatalf("expected login to succeed")
	}
	if tok := ts.login(t, "admin", "wrong"); tok != "" {
		t.Fatalf("expected login with wrong password to fail")
	}

	if w := ts.do(http.MethodGet, "/api/dashboard", nil, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := ts.do(http.MethodGet, "/api/status", nil, ""); w.Code != http.StatusOK {
		t.Fatalf("status must not require login, got %d", w.Code)
	}

	if w := ts.do(http.MethodPost, "/api/logout", nil, ts.token); w.Code != http.StatusOK {
		t.Fatalf("logout: %d", w.Code)
	}
	if w := ts.do(http.MethodGet, "/api/catalog", nil, ts.token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}

func TestDashboard_EmptyScope(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/api/dashboard?shift=all", nil, ts.token)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	var resp DashboardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Empty || resp.Summary.WasteRatePct != 0 || resp.Summary.OutputPcs != 0 {
		t.Fatalf("expected empty zero dashboard, got %+v", resp.Summary)
	}
}

func TestEntriesAndDashboard(t *testing.T) {
	ts := newTestServer(t)
	day := recentDay()

	w := ts.do(http.MethodPost, "/api/entries/output", OutputEntryRequest{
		Date: day, Shift: "Shift 1", Variant: "Wow Pasta Carbonara", AuditedWasteKg: 50, OutputPcs: 1000,
	}, ts.token)
	if w.Code != http.StatusOK {
		t.Fatalf("save output: %d body=%s", w.Code, w.Body.String())
	}

	w = ts.do(http.MethodPost, "/api/entries/defects", DefectEntryRequest{
		Date: day, Shift: "Shift 1", Machine: "Mesin A1", Variant: "Wow Pasta Carbonara",
		Defects: []entry.DefectInput{{DefectType: "Kodefikasi", Hours: [8]float64{20, 25}}},
	}, ts.token)
	if w.Code != http.StatusOK {
		t.Fatalf("save defects: %d body=%s", w.Code, w.Body.String())
	}

	w = ts.do(http.MethodGet, "/api/dashboard?from="+day+"&to="+day+"&shift=Shift%201", nil, ts.token)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: %d", w.Code)
	}
	var dash DashboardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &dash); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s := dash.Summary
	if dash.Empty || s.OutputPcs != 1000 || s.AuditedWasteKg != 50 || s.FieldRejectKg != 45 || s.WasteRatePct != 40 {
		t.Fatalf("unexpected summary: %+v", s)
	}

	w = ts.do(http.MethodGet, "/api/entries/output?date="+day+"&shift=Shift%201&variant=Wow%20Pasta%20Carbonara", nil, ts.token)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"found":true`) {
		t.Fatalf("output prefill: %d body=%s", w.Code, w.Body.String())
	}

	w = ts.do(http.MethodGet, "/api/report", nil, ts.token)
	var report ReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if len(report.Rows) != 1 || report.Rows[0].DiscrepancyKg != 5 {
		t.Fatalf("unexpected report: %+v", report)
	}

	w = ts.do(http.MethodGet, "/api/preview?date="+day+"&shift=Shift%201", nil, ts.token)
	if w.Code != http.StatusOK {
		t.Fatalf("preview: %d body=%s", w.Code, w.Body.String())
	}
}

func TestSaveDefects_ValidationIs400(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodPost, "/api/entries/defects", DefectEntryRequest{
		Date: recentDay(), Shift: "Shift 1", Machine: "Mesin X", Variant: "Wow Pasta Carbonara",
	}, ts.token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "unknown machine") {
		t.Fatalf("expected validation message, got %s", w.Body.String())
	}
}

func TestDashboard_BadDateIs400(t *testing.T) {
	ts := newTestServer(t)
	if w := ts.do(http.MethodGet, "/api/dashboard?from=yesterday", nil, ts.token); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestExportAndDownload(t *testing.T) {
	ts := newTestServer(t)
	day := recentDay()
	ts.do(http.MethodPost, "/api/entries/output", OutputEntryRequest{
		Date: day, Shift: "Shift 2", Variant: "Wow Pasta Bolognese", AuditedWasteKg: 2, OutputPcs: 300,
	}, ts.token)

	w := ts.do(http.MethodPost, "/api/export", nil, ts.token)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d body=%s", w.Code, w.Body.String())
	}
	var resp ExportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.FileName != "Laporan_Produksi_"+day+".xlsx" {
		t.Fatalf("unexpected file name: %s", resp.FileName)
	}

	w = ts.do(http.MethodGet, resp.DownloadURL, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download: %d body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != xlsxContentType {
		t.Fatalf("unexpected content type: %s", got)
	}

	// 一次性链接
	if w := ts.do(http.MethodGet, resp.DownloadURL, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second download, got %d", w.Code)
	}
}

func TestPurgeAndSync(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodPost, "/api/maintenance/purge", nil, ts.token)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"removed":0`) {
		t.Fatalf("purge: %d body=%s", w.Code, w.Body.String())
	}
	if w := ts.do(http.MethodPost, "/api/sync", nil, ts.token); w.Code != http.StatusOK {
		t.Fatalf("sync: %d", w.Code)
	}
}

func TestBuildContentDisposition(t *testing.T) {
	got := buildContentDisposition("Laporan_Produksi_2025-03-01.xlsx")
	want := `attachment; filename="Laporan_Produksi_2025-03-01.xlsx"; filename*=UTF-8''Laporan_Produksi_2025-03-01.xlsx`
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestImport_ReimportsExportedDetail(t *testing.T) {
	ts := newTestServer(t)
	day := recentDay()
	w := ts.do(http.MethodPost, "/api/entries/defects", DefectEntryRequest{
		Date: day, Shift: "Shift 3", Machine: "Mesin B1", Variant: "Wow Pasta Aglio Olio",
		Defects: []entry.DefectInput{{DefectType: "Setting Kemasan", Hours: [8]float64{1, 2}}},
	}, ts.token)
	if w.Code != http.StatusOK {
		t.Fatalf("save defects: %d body=%s", w.Code, w.Body.String())
	}

	w = ts.do(http.MethodPost, "/api/export", nil, ts.token)
	var exp ExportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &exp); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	w = ts.do(http.MethodGet, exp.DownloadURL, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download: %d", w.Code)
	}
	workbook := w.Body.Bytes()

	rec := ts.upload(t, exp.FileName, workbook)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: %d body=%s", rec.Code, rec.Body.String())
	}

	var report importer.ImportReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	// 同键覆盖，存储行数不变
	if report.Imported != 1 || report.StoreRows != 1 {
		t.Fatalf("unexpected import report: %+v", report)
	}
}

func (ts *testServer) upload(t *testing.T, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write(data)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func TestImport_UnreadableWorkbookIs400(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.upload(t, "laporan.xlsx", []byte("not a zip archive"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "invalid workbook") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
