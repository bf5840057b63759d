package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/scholar-impact/pkg/journal"
)

func TestDownloadBlob(t *testing.T) {
	content := "hello world"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content))
	}))
	defer ts.Close()

	data, err := downloadBlob(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("downloadBlob: %v", err)
	}
	if string(data) != content {
		t.Errorf("content = %q, want %q", string(data), content)
	}
}

func TestDownloadBlob_Retry(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	if _, err := downloadBlob(context.Background(), ts.URL); err != nil {
		t.Fatalf("downloadBlob with retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDownloadBlob_AllFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	if _, err := downloadBlob(context.Background(), ts.URL); err == nil {
		t.Error("expected error after all retries exhausted")
	}
}

func TestFetch_LocalPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	os.WriteFile(path, []byte("name,score\nCell,40\n"), 0o644)

	for _, src := range []string{path, "file://" + path} {
		data, err := Fetch(context.Background(), src)
		if err != nil {
			t.Fatalf("Fetch(%s): %v", src, err)
		}
		if !bytes.Contains(data, []byte("Cell,40")) {
			t.Errorf("Fetch(%s) = %q", src, data)
		}
	}

	if _, err := Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func zipBlob(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestFetch_Zip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.zip")
	os.WriteFile(path, zipBlob(t, map[string]string{
		"README.txt":       "not a table",
		"jcr/journals.CSV": "name,score\nCell,40\n",
	}), 0o644)

	data, err := Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "name,score\nCell,40\n" {
		t.Errorf("unexpected member content %q", data)
	}
}

func TestFirstCSV_NoMember(t *testing.T) {
	if _, err := firstCSV(zipBlob(t, map[string]string{"a.txt": "x"})); err == nil {
		t.Error("expected error for zip without csv")
	}
	if _, err := firstCSV([]byte("not a zip")); err == nil {
		t.Error("expected error for invalid zip")
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	m := &journal.Manifest{
		ID:       "jcr-2024",
		Version:  "2024",
		Metric:   "impact_factor",
		Source:   "test",
		License:  "CC0",
		DataFile: "data.gob",
		Format:   journal.FormatSpec{Delimiter: ";"},
	}

	if err := writeManifest(dir, m); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}

	loaded, err := journal.LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if loaded.ID != "jcr-2024" {
		t.Errorf("ID = %q, want jcr-2024", loaded.ID)
	}
	if loaded.DataFile != "data.gob" {
		t.Errorf("DataFile = %q, want data.gob", loaded.DataFile)
	}
	if loaded.Format.Delimiter != ";" {
		t.Errorf("Delimiter = %q, want ;", loaded.Format.Delimiter)
	}
}
