package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/kinforge/kinchart/pkg/datastore"
	"github.com/kinforge/kinchart/pkg/pipeline"
)

const familyDoc = `[
	{"id": "r", "name": "Root", "children": ["c1", "c2"]},
	{"id": "c1", "name": "First", "parents": ["r"], "spouses": ["m"]},
	{"id": "m", "name": "Married In", "spouses": ["c1"]},
	{"id": "c2", "name": "Second", "parents": ["r"]}
]`

func newTestServer(t *testing.T) (*httptest.Server, datastore.Store) {
	t.Helper()
	store := datastore.NewMemoryStore()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, logger)
	ts := httptest.NewServer(New(store, runner, logger).Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, method, url string, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var parsed map[string]any
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("decode body %q: %v", data, err)
		}
	}
	return resp, parsed
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error payload, got %v", body)
	}
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["ok"] != true {
		t.Errorf("body = %v, want ok=true", body)
	}
}

func TestChartFromInlineDataset(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/charts",
		fmt.Sprintf(`{"dataset": %s}`, familyDoc))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", resp.StatusCode, body)
	}

	c, ok := body["chart"].(map[string]any)
	if !ok {
		t.Fatalf("missing chart in %v", body)
	}
	if c["orientation"] != "vertical" {
		t.Errorf("orientation = %v, want vertical", c["orientation"])
	}
	nodes, _ := c["nodes"].([]any)
	if len(nodes) != 3 {
		t.Errorf("nodes = %d, want 3 (root, couple, single child)", len(nodes))
	}
	if body["dataset_hash"] == "" {
		t.Error("dataset_hash is empty")
	}
	stats, _ := body["stats"].(map[string]any)
	if stats["people"] != float64(4) {
		t.Errorf("stats.people = %v, want 4", stats["people"])
	}
}

func TestChartFromURL(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, familyDoc)
	}))
	defer origin.Close()

	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/charts",
		fmt.Sprintf(`{"url": %q, "orientation": "horizontal"}`, origin.URL))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", resp.StatusCode, body)
	}
	c, _ := body["chart"].(map[string]any)
	if c["orientation"] != "horizontal" {
		t.Errorf("orientation = %v, want horizontal", c["orientation"])
	}
}

func TestChartRequiresExactlyOneSource(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, body := range []string{
		`{}`,
		fmt.Sprintf(`{"url": "http://example.com/d.json", "dataset": %s}`, familyDoc),
	} {
		resp, parsed := doJSON(t, http.MethodPost, ts.URL+"/api/charts", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, resp.StatusCode)
		}
		if code := errorCode(t, parsed); code != "INVALID_OPTIONS" {
			t.Errorf("body %s: code = %s, want INVALID_OPTIONS", body, code)
		}
	}
}

func TestChartInvalidOrientation(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/charts",
		fmt.Sprintf(`{"dataset": %s, "orientation": "diagonal"}`, familyDoc))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %v", resp.StatusCode, body)
	}
}

func TestDatasetLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	// Upload
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/datasets",
		fmt.Sprintf(`{"name": "smoke", "document": %s}`, familyDoc))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d, want 201: %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatal("upload returned no id")
	}

	// List
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/datasets", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	list, _ := body["datasets"].([]any)
	if len(list) != 1 {
		t.Fatalf("list has %d datasets, want 1", len(list))
	}
	first, _ := list[0].(map[string]any)
	if first["name"] != "smoke" {
		t.Errorf("listed name = %v, want smoke", first["name"])
	}

	// Get
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/datasets/"+id, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	if body["id"] != id {
		t.Errorf("get id = %v, want %s", body["id"], id)
	}

	// Chart
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/datasets/"+id+"/chart", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chart status = %d, want 200: %v", resp.StatusCode, body)
	}
	c, _ := body["chart"].(map[string]any)
	nodes, _ := c["nodes"].([]any)
	if len(nodes) != 3 {
		t.Errorf("chart nodes = %d, want 3", len(nodes))
	}

	// Delete
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/datasets/"+id, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	// Gone
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/datasets/"+id, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.StatusCode)
	}
	if code := errorCode(t, body); code != "DATASET_NOT_FOUND" {
		t.Errorf("code = %s, want DATASET_NOT_FOUND", code)
	}
}

func TestDatasetUploadRejectsUnparsable(t *testing.T) {
	ts, store := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/datasets",
		`{"name": "bad", "document": "not a dataset"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	list, err := store.List(t.Context())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("rejected upload was persisted, %d datasets stored", len(list))
	}
}

func TestDatasetChartQueryOptions(t *testing.T) {
	ts, _ := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, ts.URL+"/api/datasets",
		fmt.Sprintf(`{"name": "q", "document": %s}`, familyDoc))
	id, _ := body["id"].(string)

	resp, body := doJSON(t, http.MethodGet,
		ts.URL+"/api/datasets/"+id+"/chart?orientation=horizontal&filter=second", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", resp.StatusCode, body)
	}
	c, _ := body["chart"].(map[string]any)
	if c["orientation"] != "horizontal" {
		t.Errorf("orientation = %v, want horizontal", c["orientation"])
	}
	// Filter keeps Second and the relative Root; the couple is gone.
	nodes, _ := c["nodes"].([]any)
	if len(nodes) != 2 {
		t.Errorf("filtered nodes = %d, want 2", len(nodes))
	}

	resp, body = doJSON(t, http.MethodGet,
		ts.URL+"/api/datasets/"+id+"/chart?node_width=abc", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad node_width status = %d, want 400: %v", resp.StatusCode, body)
	}
}

func TestDatasetNotFoundChart(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/datasets/nope/chart", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if code := errorCode(t, body); code != "DATASET_NOT_FOUND" {
		t.Errorf("code = %s, want DATASET_NOT_FOUND", code)
	}
}
