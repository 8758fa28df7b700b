package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Downloader fetches remote documents listed in a newline-delimited URL file
// into the local data directory before indexing.
type Downloader struct {
	client *http.Client
	log    zerolog.Logger
}

// NewDownloader creates a downloader with a bounded request timeout.
func NewDownloader(log zerolog.Logger) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: 2 * time.Minute},
		log:    log,
	}
}

// ListURLs reads a newline-delimited URL file. Blank lines are dropped; a
// missing or empty file yields no URLs.
func ListURLs(urlsPath string) ([]string, error) {
	data, err := os.ReadFile(urlsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read url list %s: %w", urlsPath, err)
	}

	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			urls = append(urls, line)
		}
	}
	return urls, nil
}

// DownloadAll fetches every URL into destDir and returns the saved paths.
// Per-URL failures are logged and skipped so one dead link never blocks the
// remaining downloads.
func (d *Downloader) DownloadAll(ctx context.Context, urls []string, destDir string) []string {
	var saved []string
	for _, u := range urls {
		dest, err := d.download(ctx, u, destDir)
		if err != nil {
			d.log.Error().Err(err).Str("url", u).Msg("download failed, skipping")
			continue
		}
		saved = append(saved, dest)
	}
	return saved
}

func (d *Downloader) download(ctx context.Context, rawURL, destDir string) (string, error) {
	name, err := fileNameFromURL(rawURL)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, name)
	d.log.Info().Str("url", rawURL).Str("dest", dest).Msg("downloading document")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid url %s: %w", rawURL, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request to %s returned %s", rawURL, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", dest, err)
	}
	return dest, nil
}

// fileNameFromURL derives a local file name from the last path segment of a
// URL, decoding percent escapes.
func fileNameFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %s: %w", rawURL, err)
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("url %s has no file name", rawURL)
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return name, nil
}
