package api

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dredgelabs/dredge/pkg/dataset"
	"github.com/dredgelabs/dredge/pkg/version"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, entries ...*dataset.Entry) *httptest.Server {
	t.Helper()
	server := NewServer(dataset.NewRegistryFromEntries(entries...), testSecret)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func ftsEntry(t *testing.T, name string, lines ...string) *dataset.Entry {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	if _, err := db.Exec(`CREATE VIRTUAL TABLE lines USING fts5(line, source)`); err != nil {
		t.Fatalf("creating table: %v", err)
	}
	for _, l := range lines {
		if _, err := db.Exec(`INSERT INTO lines (line, source) VALUES (?, 'dump')`, l); err != nil {
			t.Fatalf("inserting row: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	entry, err := dataset.OpenEntry(path)
	if err != nil {
		t.Fatalf("OpenEntry: %v", err)
	}
	t.Cleanup(func() { _ = entry.Close() })
	return entry
}

func doJSON(t *testing.T, method, url, secret, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Bridge-Secret", secret)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, buf
}

func TestSearchRequiresSecret(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/search", "", `{"criteria":[]}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if errResp.Error != "Unauthorized" {
		t.Errorf("error = %q, the body must not leak details", errResp.Error)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/search", "wrong-secret", `{"criteria":[]}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong secret status = %d, want 401", resp.StatusCode)
	}
}

func TestEmptyConfiguredSecretRejectsEverything(t *testing.T) {
	server := NewServer(dataset.NewRegistryFromEntries(), "")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/search", "", `{"criteria":[]}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 when no secret is configured", resp.StatusCode)
	}
}

func TestSearchCriteriaValidation(t *testing.T) {
	ts := newTestServer(t)

	// Missing criteria array is a client error.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/search", testSecret, `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing criteria status = %d, want 400", resp.StatusCode)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		t.Errorf("missing criteria must return an error body, got %s", body)
	}

	// An explicitly empty criteria array is a valid no-op search.
	resp, body = doJSON(t, http.MethodPost, ts.URL+"/search", testSecret, `{"criteria":[]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("empty criteria status = %d, want 200", resp.StatusCode)
	}
	var searchResp SearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if searchResp.Total != 0 || searchResp.Results == nil || len(searchResp.Results) != 0 {
		t.Errorf("empty criteria must return an empty result set, got %s", body)
	}

	// Malformed JSON is a client error.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/search", testSecret, `{"criteria":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchEndToEnd(t *testing.T) {
	entry := ftsEntry(t, "breach.db",
		"alice@example.com:hunter2",
		"bob@example.com:secret",
	)
	ts := newTestServer(t, entry)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/search", testSecret,
		`{"criteria":[{"type":"email","value":"alice@example.com"}],"limit":10}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if searchResp.Total != 1 {
		t.Fatalf("Total = %d, want 1; body %s", searchResp.Total, body)
	}
	row := searchResp.Results[0]
	if row["email"] != "alice@example.com" {
		t.Errorf("email = %v, want the matched address", row["email"])
	}
	if row["_source"] != "breach" {
		t.Errorf("_source = %v, want the dataset key", row["_source"])
	}
}

func TestHealthNeedsNoSecret(t *testing.T) {
	entry := ftsEntry(t, "breach.db", "a:b")
	ts := newTestServer(t, entry)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status = %q, want ok", health.Status)
	}
	if health.Databases != 1 {
		t.Errorf("databases = %d, want 1", health.Databases)
	}
	if len(health.Names) != 1 || health.Names[0] != "breach" {
		t.Errorf("names = %v, want [breach]", health.Names)
	}
}

func TestHealthEmptyRegistry(t *testing.T) {
	ts := newTestServer(t)

	_, body := doJSON(t, http.MethodGet, ts.URL+"/health", "", "")
	if strings.Contains(string(body), `"names":null`) {
		t.Error("names must encode as an empty array, not null")
	}
}

func TestInfoRequiresSecret(t *testing.T) {
	entry := ftsEntry(t, "breach.db", "a:b")
	ts := newTestServer(t, entry)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/info", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without secret", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/info", testSecret, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var info InfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(info.Databases) != 1 {
		t.Fatalf("databases = %v, want one entry", info.Databases)
	}
	if info.Version != version.APIVersion() {
		t.Errorf("version = %q, want %q", info.Version, version.APIVersion())
	}
	ds := info.Databases[0]
	if ds.Key != "breach" || !ds.IsFts || !ds.FtsHealthy {
		t.Errorf("dataset info = %+v, want healthy FTS dataset", ds)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/search", testSecret, "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /search status = %d, want 405", resp.StatusCode)
	}
}
