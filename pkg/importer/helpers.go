// CLAUDE:SUMMARY Shared import utilities: blob fetch over HTTP with retries or from disk, ZIP member extraction, manifest YAML writer, directory helpers.
package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/scholar-impact/pkg/journal"
)

// maxBlobSize caps a fetched table.
const maxBlobSize = 64 << 20

// Fetch returns the table blob at src: an http(s) URL, a file:// URL or a
// local path. Zipped blobs are unpacked to their first CSV member.
func Fetch(ctx context.Context, src string) ([]byte, error) {
	var (
		blob []byte
		err  error
	)
	if isRemote(src) {
		blob, err = downloadBlob(ctx, src)
	} else {
		blob, err = os.ReadFile(localPath(src))
	}
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(strings.ToLower(src), ".zip") {
		return firstCSV(blob)
	}
	return blob, nil
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func localPath(src string) string {
	return strings.TrimPrefix(src, "file://")
}

// downloadBlob downloads url with retries and timeout.
func downloadBlob(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{Timeout: 2 * time.Minute}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			continue
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobSize+1))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if len(data) > maxBlobSize {
			return nil, fmt.Errorf("%s exceeds %d bytes", url, maxBlobSize)
		}
		return data, nil
	}
	return nil, fmt.Errorf("download %s failed after 3 attempts: %w", url, lastErr)
}

// firstCSV returns the first .csv member of a ZIP archive.
func firstCSV(blob []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxBlobSize))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("zip contains no csv file")
}

// writeManifest writes a Manifest as YAML to dir/manifest.yaml.
func writeManifest(dir string, m *journal.Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "manifest.yaml"), data, 0o644)
}

// ensureDir creates a directory if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
