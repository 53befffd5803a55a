package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"modmigrate/pkg/logger"
)

// Fetch downloads the legacy database file from url into dir and returns
// the downloaded path. The caller owns the file and removes it after the
// run unless told to keep it.
func Fetch(ctx context.Context, url, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build source request: %w", err)
	}
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch source database: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch source database: status %d", resp.StatusCode)
	}

	f, err := os.CreateTemp(dir, "modmail-*.sqlite")
	if err != nil {
		return "", fmt.Errorf("create temp source file: %w", err)
	}
	n, err := io.Copy(f, resp.Body)
	cerr := f.Close()
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("download source database: %w", err)
	}
	if cerr != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write source database: %w", cerr)
	}
	logger.Info("source_fetched", "url", url, "path", f.Name(), "size", humanize.Bytes(uint64(n)))
	return f.Name(), nil
}
