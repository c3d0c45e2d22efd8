package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/slateflow/slateflow-agent/internal/catalog"
	"github.com/slateflow/slateflow-agent/internal/mappings"
	"github.com/slateflow/slateflow-agent/internal/playback"
)

const testImportRoot = "/Game/Cinematics/Performance"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(t *testing.T, svc *fakeService, repo *fakeRepo) ServerConfig {
	t.Helper()

	store, err := mappings.NewStore("", testLogger())
	if err != nil {
		t.Fatalf("loading embedded mappings: %v", err)
	}

	return ServerConfig{
		CatalogService: svc,
		Playback:       playback.NewStreamer(nil),
		Repository:     repo,
		Mappings:       store,
		ImportRoot:     testImportRoot,
		ManifestDir:    t.TempDir(),
		Logger:         testLogger(),
		StartTime:      time.Now().Add(-10 * time.Second),
		DeviceID:       "test-device",
		Version:        "0.1.0-test",
	}
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	return body
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(method, target, body string) *http.Request {
	return httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
}

func TestHealthHandler(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	healthHandler(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" {
		t.Fatalf("status = %v, want ok", body["status"])
	}
	if body["version"] != "0.1.0-test" {
		t.Fatalf("version = %v", body["version"])
	}
	if body["device_id"] != "test-device" {
		t.Fatalf("device_id = %v", body["device_id"])
	}
}

func TestStatusHandler_Idle(t *testing.T) {
	svc := &fakeService{
		sources:    []*catalog.Source{{ID: "src-1", Present: true}},
		takesCount: 12,
		totalBytes: 2048,
	}
	repo := &fakeRepo{resCounts: map[string]int{
		catalog.ResolutionStatusResolved:    7,
		catalog.ResolutionStatusParseFailed: 2,
		catalog.ResolutionStatusUnmapped:    3,
	}}
	cfg := newTestConfig(t, svc, repo)

	rr := httptest.NewRecorder()
	statusHandler(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if body["state"] != "idle" {
		t.Fatalf("state = %v, want idle", body["state"])
	}
	if got := int(body["takes_count"].(float64)); got != 12 {
		t.Fatalf("takes_count = %d, want 12", got)
	}
	if got := int64(body["total_bytes"].(float64)); got != 2048 {
		t.Fatalf("total_bytes = %d, want 2048", got)
	}
	if body["total_size"] != humanize.Bytes(2048) {
		t.Fatalf("total_size = %v, want %q", body["total_size"], humanize.Bytes(2048))
	}

	res, ok := body["resolutions"].(map[string]interface{})
	if !ok {
		t.Fatal("resolutions missing from response")
	}
	if got := int(res["resolved"].(float64)); got != 7 {
		t.Fatalf("resolutions.resolved = %d, want 7", got)
	}
	if got := int(res["unmapped"].(float64)); got != 3 {
		t.Fatalf("resolutions.unmapped = %d, want 3", got)
	}

	m, ok := body["mappings"].(map[string]interface{})
	if !ok {
		t.Fatal("mappings missing from response")
	}
	if m["origin"] != mappings.EmbeddedOrigin {
		t.Fatalf("mappings.origin = %v", m["origin"])
	}
	if got := int(m["identities"].(float64)); got != 8 {
		t.Fatalf("mappings.identities = %d, want 8", got)
	}
	if got := int(m["sequences"].(float64)); got != 5 {
		t.Fatalf("mappings.sequences = %d, want 5", got)
	}
}

func TestStatusHandler_ResolvingJob(t *testing.T) {
	repo := &fakeRepo{jobs: []*catalog.Job{{
		ID:     "job-1",
		Type:   catalog.JobTypeResolve,
		Status: catalog.JobStatusRunning,
	}}}
	cfg := newTestConfig(t, &fakeService{}, repo)

	rr := httptest.NewRecorder()
	statusHandler(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	body := decodeJSONBody(t, rr)
	if body["state"] != "resolving" {
		t.Fatalf("state = %v, want resolving", body["state"])
	}
	if got := int(body["jobs_running"].(float64)); got != 1 {
		t.Fatalf("jobs_running = %d, want 1", got)
	}
	if _, ok := body["active_job"]; !ok {
		t.Fatal("active_job missing from response")
	}
}

func TestStatusHandler_FailedJobSetsError(t *testing.T) {
	repo := &fakeRepo{jobs: []*catalog.Job{{
		ID:     "job-1",
		Type:   catalog.JobTypeScan,
		Status: catalog.JobStatusFailed,
		Error:  "source not found",
	}}}
	cfg := newTestConfig(t, &fakeService{}, repo)

	rr := httptest.NewRecorder()
	statusHandler(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	body := decodeJSONBody(t, rr)
	if body["state"] != "error" {
		t.Fatalf("state = %v, want error", body["state"])
	}
	if body["last_error"] != "source not found" {
		t.Fatalf("last_error = %v", body["last_error"])
	}
}

func TestStatusHandler_PausedRunner(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})
	runner := catalog.NewRunner(nil, nil, testLogger())
	runner.Pause()
	cfg.Runner = runner

	rr := httptest.NewRecorder()
	statusHandler(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	body := decodeJSONBody(t, rr)
	if body["state"] != "paused" {
		t.Fatalf("state = %v, want paused", body["state"])
	}
}

func TestAddFolderHandler(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	req := jsonRequest(http.MethodPost, "/sources/folders",
		`{"path": "/offload/day1", "display_name": "Day 1", "drive_label": "SLATE_01"}`)
	addFolderHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusCreated)
	}

	body := decodeJSONBody(t, rr)
	if body["source_id"] != "src-new" {
		t.Fatalf("source_id = %v", body["source_id"])
	}
}

func TestAddFolderHandler_MissingPath(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	addFolderHandler(cfg).ServeHTTP(rr, jsonRequest(http.MethodPost, "/sources/folders", `{}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestScanHandler_DefaultsToFirstSource(t *testing.T) {
	svc := &fakeService{sources: []*catalog.Source{{ID: "src-1", Present: true}}}
	cfg := newTestConfig(t, svc, &fakeRepo{})

	rr := httptest.NewRecorder()
	scanHandler(cfg).ServeHTTP(rr, jsonRequest(http.MethodPost, "/scan", `{}`))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusAccepted)
	}
	if len(svc.scannedSources) != 1 || svc.scannedSources[0] != "src-1" {
		t.Fatalf("scanned sources = %v, want [src-1]", svc.scannedSources)
	}
}

func TestScanHandler_NoSources(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	scanHandler(cfg).ServeHTTP(rr, jsonRequest(http.MethodPost, "/scan", `{}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestResolveHandler(t *testing.T) {
	svc := &fakeService{sources: []*catalog.Source{{ID: "src-1", Present: true}}}
	cfg := newTestConfig(t, svc, &fakeRepo{})

	rr := httptest.NewRecorder()
	resolveHandler(cfg).ServeHTTP(rr, jsonRequest(http.MethodPost, "/resolve", `{"source_id": "src-1"}`))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusAccepted)
	}
	if len(svc.resolvedSources) != 1 || svc.resolvedSources[0] != "src-1" {
		t.Fatalf("resolved sources = %v, want [src-1]", svc.resolvedSources)
	}

	body := decodeJSONBody(t, rr)
	if body["job_id"] != "job-resolve" {
		t.Fatalf("job_id = %v", body["job_id"])
	}
}

func TestPreviewHandler_Resolved(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	previewHandler(cfg).ServeHTTP(rr, jsonRequest(http.MethodPost, "/resolve/preview",
		`{"name": "Barb_S0063_0290_Erwin_010_Performance"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if body["status"] != catalog.ResolutionStatusResolved {
		t.Fatalf("status = %v, want resolved", body["status"])
	}

	wantTarget := testImportRoot + "/0290_Diner/DIN_0290/S0063/Barb_S0063_0290_Erwin_010.Barb_S0063_0290_Erwin_010"
	if body["target_path"] != wantTarget {
		t.Fatalf("target_path = %v, want %v", body["target_path"], wantTarget)
	}

	parsed, ok := body["parsed"].(map[string]interface{})
	if !ok {
		t.Fatal("parsed missing from response")
	}
	if parsed["character"] != "Barb" {
		t.Fatalf("parsed.character = %v", parsed["character"])
	}

	identity, ok := body["identity"].(map[string]interface{})
	if !ok {
		t.Fatal("identity missing from response")
	}
	if identity["is_legacy"] != true {
		t.Fatalf("identity.is_legacy = %v, want true", identity["is_legacy"])
	}
}

func TestPreviewHandler_ParseFailed(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	previewHandler(cfg).ServeHTTP(rr, jsonRequest(http.MethodPost, "/resolve/preview",
		`{"name": "random_capture"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if body["status"] != catalog.ResolutionStatusParseFailed {
		t.Fatalf("status = %v, want parse_failed", body["status"])
	}
	if body["error"] == "" || body["error"] == nil {
		t.Fatal("error missing from parse_failed preview")
	}
}

func TestPreviewHandler_Unmapped(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	previewHandler(cfg).ServeHTTP(rr, jsonRequest(http.MethodPost, "/resolve/preview",
		`{"name": "Mona_S0001_0290_Erwin_001"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if body["status"] != catalog.ResolutionStatusUnmapped {
		t.Fatalf("status = %v, want unmapped", body["status"])
	}

	parsed, ok := body["parsed"].(map[string]interface{})
	if !ok {
		t.Fatal("unmapped preview should still carry parsed fields")
	}
	if parsed["character"] != "Mona" {
		t.Fatalf("parsed.character = %v", parsed["character"])
	}

	folder, ok := body["folder"].(map[string]interface{})
	if !ok {
		t.Fatal("unmapped preview should still carry folder routing")
	}
	if folder["shot_code"] != "DIN" {
		t.Fatalf("folder.shot_code = %v, want DIN", folder["shot_code"])
	}
}

func TestPreviewHandler_MissingName(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	previewHandler(cfg).ServeHTTP(rr, jsonRequest(http.MethodPost, "/resolve/preview", `{"name": "  "}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetTakeHandler(t *testing.T) {
	svc := &fakeService{takes: []*catalog.Take{{
		ID:       "take-1",
		SourceID: "src-1",
		Stem:     "Barb_S0063_0290_Erwin_010",
	}}}
	cfg := newTestConfig(t, svc, &fakeRepo{})

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/takes/take-1", nil), "id", "take-1")
	getTakeHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["stem"] != "Barb_S0063_0290_Erwin_010" {
		t.Fatalf("stem = %v", body["stem"])
	}
}

func TestGetTakeHandler_NotFound(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/takes/missing", nil), "id", "missing")
	getTakeHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetTakeResolutionHandler(t *testing.T) {
	svc := &fakeService{resolutions: []*catalog.Resolution{{
		ID:     "res-1",
		TakeID: "take-1",
		Status: catalog.ResolutionStatusResolved,
	}}}
	cfg := newTestConfig(t, svc, &fakeRepo{})

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/takes/take-1/resolution", nil), "id", "take-1")
	getTakeResolutionHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != catalog.ResolutionStatusResolved {
		t.Fatalf("status = %v", body["status"])
	}

	rr = httptest.NewRecorder()
	req = withURLParam(httptest.NewRequest(http.MethodGet, "/takes/take-2/resolution", nil), "id", "take-2")
	getTakeResolutionHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestListResolutionsHandler_StatusFilter(t *testing.T) {
	svc := &fakeService{resolutions: []*catalog.Resolution{
		{ID: "r1", TakeID: "t1", SourceID: "src-1", Status: catalog.ResolutionStatusResolved},
		{ID: "r2", TakeID: "t2", SourceID: "src-1", Status: catalog.ResolutionStatusResolved},
		{ID: "r3", TakeID: "t3", SourceID: "src-1", Status: catalog.ResolutionStatusUnmapped},
	}}
	cfg := newTestConfig(t, svc, &fakeRepo{})

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/sources/src-1/resolutions?status=resolved", nil), "id", "src-1")
	listResolutionsHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	list, ok := body["resolutions"].([]interface{})
	if !ok {
		t.Fatal("resolutions missing from response")
	}
	if len(list) != 2 {
		t.Fatalf("resolutions = %d, want 2", len(list))
	}
}

func TestListResolutionsHandler_UnknownStatus(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/sources/src-1/resolutions?status=bogus", nil), "id", "src-1")
	listResolutionsHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListTakesHandler(t *testing.T) {
	svc := &fakeService{takes: []*catalog.Take{
		{ID: "t1", SourceID: "src-1"},
		{ID: "t2", SourceID: "src-1"},
		{ID: "t3", SourceID: "src-2"},
	}}
	cfg := newTestConfig(t, svc, &fakeRepo{})

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/sources/src-1/takes", nil), "id", "src-1")
	listTakesHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	takes, ok := body["takes"].([]interface{})
	if !ok {
		t.Fatal("takes missing from response")
	}
	if len(takes) != 2 {
		t.Fatalf("takes = %d, want 2", len(takes))
	}
}

func TestTakeMediaHandler_DriveDisconnected(t *testing.T) {
	svc := &fakeService{
		sources: []*catalog.Source{{ID: "src-1", DriveLabel: "SLATE_01", Present: false}},
		takes:   []*catalog.Take{{ID: "take-1", SourceID: "src-1", Path: "/vol/gone.mov"}},
	}
	cfg := newTestConfig(t, svc, &fakeRepo{})

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/takes/take-1/media", nil), "id", "take-1")
	takeMediaHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusNotFound)
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "DRIVE_DISCONNECTED" {
		t.Fatalf("code = %v, want DRIVE_DISCONNECTED", body["code"])
	}
	if !strings.Contains(body["error"].(string), "SLATE_01") {
		t.Fatalf("error should name the drive, got %v", body["error"])
	}
}

func TestMappingsHandler(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	mappingsHandler(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/mappings", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if body["origin"] != mappings.EmbeddedOrigin {
		t.Fatalf("origin = %v", body["origin"])
	}
	if got := int(body["identities"].(float64)); got != 8 {
		t.Fatalf("identities = %d, want 8", got)
	}

	keys, ok := body["known_keys"].([]interface{})
	if !ok {
		t.Fatal("known_keys missing from response")
	}
	found := false
	for _, k := range keys {
		if k == "erwin" {
			found = true
		}
	}
	if !found {
		t.Fatalf("known_keys = %v, want erwin present", keys)
	}
}

func TestReloadMappingsHandler(t *testing.T) {
	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})

	rr := httptest.NewRecorder()
	reloadMappingsHandler(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/mappings/reload", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["origin"] != mappings.EmbeddedOrigin {
		t.Fatalf("origin = %v", body["origin"])
	}
}

func TestReloadMappingsHandler_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	valid := `
legacy_mhid_path: /Game/MetaHumans/Legacy
metahuman_base_path: /Game/MetaHumans/Performers
mhid:
  erwin: MHID_Erwin
skeletal_mesh:
  erwin: SKM_Erwin
`
	if err := os.WriteFile(path, []byte(valid), 0o644); err != nil {
		t.Fatalf("writing tables file: %v", err)
	}

	store, err := mappings.NewStore(path, testLogger())
	if err != nil {
		t.Fatalf("loading tables: %v", err)
	}

	cfg := newTestConfig(t, &fakeService{}, &fakeRepo{})
	cfg.Mappings = store

	if err := os.WriteFile(path, []byte("mhid: ["), 0o644); err != nil {
		t.Fatalf("corrupting tables file: %v", err)
	}

	rr := httptest.NewRecorder()
	reloadMappingsHandler(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/mappings/reload", nil))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "RELOAD_FAILED" {
		t.Fatalf("code = %v, want RELOAD_FAILED", body["code"])
	}
}

func TestGetJobHandler(t *testing.T) {
	repo := &fakeRepo{jobs: []*catalog.Job{{ID: "job-9", Type: catalog.JobTypeScan, Status: catalog.JobStatusCompleted}}}
	cfg := newTestConfig(t, &fakeService{}, repo)

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/jobs/job-9", nil), "id", "job-9")
	getJobHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	rr = httptest.NewRecorder()
	req = withURLParam(httptest.NewRequest(http.MethodGet, "/jobs/missing", nil), "id", "missing")
	getJobHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

type fakeService struct {
	sources     []*catalog.Source
	takes       []*catalog.Take
	resolutions []*catalog.Resolution

	takesCount int
	totalBytes int64

	scannedSources  []string
	resolvedSources []string
}

func (f *fakeService) AddFolder(ctx context.Context, path, displayName, driveLabel string) (*catalog.Source, error) {
	return &catalog.Source{
		ID:          "src-new",
		Type:        "folder",
		Path:        path,
		DisplayName: displayName,
		DriveLabel:  driveLabel,
		Present:     true,
		CreatedAt:   time.Now(),
	}, nil
}

func (f *fakeService) RemoveSource(ctx context.Context, id string) error {
	return nil
}

func (f *fakeService) GetSources(ctx context.Context) ([]*catalog.Source, error) {
	return f.sources, nil
}

func (f *fakeService) GetSource(ctx context.Context, id string) (*catalog.Source, error) {
	for _, s := range f.sources {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeService) GetTakes(ctx context.Context, sourceID string) ([]*catalog.Take, error) {
	var out []*catalog.Take
	for _, take := range f.takes {
		if take.SourceID == sourceID {
			out = append(out, take)
		}
	}
	return out, nil
}

func (f *fakeService) GetTake(ctx context.Context, id string) (*catalog.Take, error) {
	for _, take := range f.takes {
		if take.ID == id {
			return take, nil
		}
	}
	return nil, nil
}

func (f *fakeService) CountTakes(ctx context.Context) (int, error) {
	return f.takesCount, nil
}

func (f *fakeService) SumTakeSizes(ctx context.Context) (int64, error) {
	return f.totalBytes, nil
}

func (f *fakeService) ScanSource(ctx context.Context, sourceID string) (*catalog.Job, error) {
	f.scannedSources = append(f.scannedSources, sourceID)
	return &catalog.Job{ID: "job-scan", Type: catalog.JobTypeScan, Status: catalog.JobStatusPending, SourceID: sourceID}, nil
}

func (f *fakeService) ResolveSource(ctx context.Context, sourceID string) (*catalog.Job, error) {
	f.resolvedSources = append(f.resolvedSources, sourceID)
	return &catalog.Job{ID: "job-resolve", Type: catalog.JobTypeResolve, Status: catalog.JobStatusPending, SourceID: sourceID}, nil
}

func (f *fakeService) ExecuteScan(ctx context.Context, jobID, sourceID, path string) error {
	return nil
}

func (f *fakeService) ExecuteResolve(ctx context.Context, jobID, sourceID string) error {
	return nil
}

func (f *fakeService) GetResolution(ctx context.Context, takeID string) (*catalog.Resolution, error) {
	for _, res := range f.resolutions {
		if res.TakeID == takeID {
			return res, nil
		}
	}
	return nil, nil
}

func (f *fakeService) ListResolutions(ctx context.Context, sourceID, status string) ([]*catalog.Resolution, error) {
	var out []*catalog.Resolution
	for _, res := range f.resolutions {
		if res.SourceID != sourceID {
			continue
		}
		if status != "" && res.Status != status {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

type fakeRepo struct {
	token     string
	jobs      []*catalog.Job
	resCounts map[string]int
}

func (f *fakeRepo) CreateSource(ctx context.Context, source *catalog.Source) error {
	return nil
}

func (f *fakeRepo) GetSource(ctx context.Context, id string) (*catalog.Source, error) {
	return nil, nil
}

func (f *fakeRepo) GetSourceByPath(ctx context.Context, path string) (*catalog.Source, error) {
	return nil, nil
}

func (f *fakeRepo) ListSources(ctx context.Context) ([]*catalog.Source, error) {
	return []*catalog.Source{}, nil
}

func (f *fakeRepo) DeleteSource(ctx context.Context, id string) error {
	return nil
}

func (f *fakeRepo) UpdateSourcePresent(ctx context.Context, id string, present bool) error {
	return nil
}

func (f *fakeRepo) CreateTake(ctx context.Context, take *catalog.Take) error {
	return nil
}

func (f *fakeRepo) GetTake(ctx context.Context, id string) (*catalog.Take, error) {
	return nil, nil
}

func (f *fakeRepo) ListTakes(ctx context.Context) ([]*catalog.Take, error) {
	return []*catalog.Take{}, nil
}

func (f *fakeRepo) GetTakesBySource(ctx context.Context, sourceID string) ([]*catalog.Take, error) {
	return []*catalog.Take{}, nil
}

func (f *fakeRepo) DeleteTakesBySource(ctx context.Context, sourceID string) error {
	return nil
}

func (f *fakeRepo) UpsertTake(ctx context.Context, take *catalog.Take) error {
	return nil
}

func (f *fakeRepo) CountTakes(ctx context.Context) (int, error) {
	return 0, nil
}

func (f *fakeRepo) SumTakeSizes(ctx context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) CreateJob(ctx context.Context, job *catalog.Job) error {
	return nil
}

func (f *fakeRepo) GetJob(ctx context.Context, id string) (*catalog.Job, error) {
	for _, j := range f.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListJobs(ctx context.Context, limit int) ([]*catalog.Job, error) {
	return f.jobs, nil
}

func (f *fakeRepo) ListPendingJobs(ctx context.Context) ([]*catalog.Job, error) {
	return []*catalog.Job{}, nil
}

func (f *fakeRepo) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	return nil
}

func (f *fakeRepo) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	return nil
}

func (f *fakeRepo) UpsertResolution(ctx context.Context, res *catalog.Resolution) error {
	return nil
}

func (f *fakeRepo) GetResolutionByTake(ctx context.Context, takeID string) (*catalog.Resolution, error) {
	return nil, nil
}

func (f *fakeRepo) ListResolutionsBySource(ctx context.Context, sourceID, status string) ([]*catalog.Resolution, error) {
	return []*catalog.Resolution{}, nil
}

func (f *fakeRepo) CountResolutionsByStatus(ctx context.Context, status string) (int, error) {
	return f.resCounts[status], nil
}

func (f *fakeRepo) GetConfig(ctx context.Context, key string) (string, error) {
	if key == "auth_token" {
		return f.token, nil
	}
	return "", nil
}

func (f *fakeRepo) SetConfig(ctx context.Context, key, value string) error {
	return nil
}
