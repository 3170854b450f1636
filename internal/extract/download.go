package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// StatusError is a non-2xx answer from a provider.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.URL, e.Status, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{URL: resp.Request.URL.Redacted(), Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// Downloader streams remote files to disk.
type Downloader struct {
	client     *http.Client
	log        *zap.Logger
	retries    int
	retryDelay time.Duration
	quiet      bool
}

func NewDownloader(client *http.Client, log *zap.Logger, quiet bool) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{client: client, log: log, retries: 3, retryDelay: 5 * time.Second, quiet: quiet}
}

// Fetch downloads url to dst unless dst already exists. The file is written
// under a temporary name and renamed once complete.
func (d *Downloader) Fetch(ctx context.Context, url, token, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		d.log.Info("already downloaded", zap.String("path", dst))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	var err error
	for attempt := 1; attempt <= d.retries; attempt++ {
		err = d.fetchOnce(ctx, url, token, dst)
		if err == nil {
			return nil
		}
		var status *StatusError
		if ctx.Err() != nil || (errors.As(err, &status) && !status.retryable()) {
			break
		}
		d.log.Warn("download attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < d.retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.retryDelay):
			}
		}
	}
	return fmt.Errorf("failed to download %s: %w", filepath.Base(dst), err)
}

func (d *Downloader) fetchOnce(ctx context.Context, url, token, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}

	tmp := dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	var bar *progressbar.ProgressBar
	if d.quiet {
		bar = progressbar.DefaultBytesSilent(resp.ContentLength, filepath.Base(dst))
	} else {
		bar = progressbar.DefaultBytes(resp.ContentLength, filepath.Base(dst))
	}
	if _, err := io.Copy(io.MultiWriter(f, bar), resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	bar.Finish()
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func getJSON(ctx context.Context, client *http.Client, url, token string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return doJSON(client, req, token, out)
}

func doJSON(client *http.Client, req *http.Request, token string, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response of %s: %w", req.URL.Redacted(), err)
	}
	return nil
}
