package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	era5DatasetID = "EO:ECMWF:DAT:REANALYSIS_ERA5_SINGLE_LEVELS"
	jobCompleted  = "completed"
	jobFailed     = "failed"
)

var (
	ErrJobFailed  = errors.New("data access job failed")
	ErrJobTimeout = errors.New("data access job did not complete in time")
)

// sampleDays and sampleTimes keep ERA5 requests small: two days per month at noon.
var (
	sampleDays  = []string{"01", "15"}
	sampleTimes = []string{"12:00"}
)

type choice struct {
	Name  string   `json:"name"`
	Value []string `json:"value"`
}

type boundingBox struct {
	Name string     `json:"name"`
	BBox [4]float64 `json:"bbox"`
}

// JobRequest is a WEkEO data access job submission.
type JobRequest struct {
	DatasetID          string        `json:"datasetId"`
	StringChoiceValues []choice      `json:"stringChoiceValues"`
	BoundingBoxValues  []boundingBox `json:"boundingBoxValues"`
}

// NewTemperatureRequest builds a 2 m temperature reanalysis request over
// bbox [minLon, minLat, maxLon, maxLat] for the years and months spanned
// by [start, end].
func NewTemperatureRequest(bbox [4]float64, start, end time.Time) JobRequest {
	var years, months []string
	seenYear := map[string]bool{}
	seenMonth := map[string]bool{}
	for m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(end); m = m.AddDate(0, 1, 0) {
		y := fmt.Sprintf("%d", m.Year())
		if !seenYear[y] {
			seenYear[y] = true
			years = append(years, y)
		}
		name := strings.ToLower(m.Month().String())
		if !seenMonth[name] {
			seenMonth[name] = true
			months = append(months, name)
		}
	}
	return JobRequest{
		DatasetID: era5DatasetID,
		StringChoiceValues: []choice{
			{"product_type", []string{"reanalysis"}},
			{"variable", []string{"2m_temperature"}},
			{"year", years},
			{"month", months},
			{"day", sampleDays},
			{"time", sampleTimes},
			{"data_format", []string{"netcdf"}},
		},
		BoundingBoxValues: []boundingBox{{
			Name: "area",
			// north, west, south, east
			BBox: [4]float64{round2(bbox[3]), round2(bbox[0]), round2(bbox[1]), round2(bbox[2])},
		}},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ERA5Client runs ERA5 data access jobs on the WEkEO broker.
type ERA5Client struct {
	baseURL      string
	rawDir       string
	client       *http.Client
	downloader   *Downloader
	pollInterval time.Duration
	timeout      time.Duration
	log          *zap.Logger
}

func NewERA5Client(baseURL, rawDir string, client *http.Client, downloader *Downloader,
	pollInterval, timeout time.Duration, log *zap.Logger) *ERA5Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &ERA5Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		rawDir:       rawDir,
		client:       client,
		downloader:   downloader,
		pollInterval: pollInterval,
		timeout:      timeout,
		log:          log,
	}
}

// Fetch submits a job for bbox over [start, end], waits for it and
// downloads the resulting NetCDF file.
func (c *ERA5Client) Fetch(ctx context.Context, token string, bbox [4]float64, start, end time.Time) (string, error) {
	req := NewTemperatureRequest(bbox, start, end)
	dst := filepath.Join(c.rawDir, era5FileName(req.BoundingBoxValues[0].BBox, start, end))
	if _, err := os.Stat(dst); err == nil {
		c.log.Info("ERA5 file already downloaded", zap.String("path", dst))
		return dst, nil
	}
	jobID, err := c.SubmitJob(ctx, token, req)
	if err != nil {
		return "", err
	}
	if err := c.PollJob(ctx, token, jobID); err != nil {
		return "", err
	}
	src, err := c.ResultURL(ctx, token, jobID)
	if err != nil {
		return "", err
	}
	if err := c.downloader.Fetch(ctx, src, "", dst); err != nil {
		return "", err
	}
	return dst, nil
}

// era5FileName identifies a download by period and request area [N, W, S, E].
func era5FileName(area [4]float64, start, end time.Time) string {
	return fmt.Sprintf("ERA5_temperature_%s_%s_N%.2f_W%.2f_S%.2f_E%.2f.nc",
		start.Format("20060102"), end.Format("20060102"), area[0], area[1], area[2], area[3])
}

func (c *ERA5Client) jobsURL() string {
	return c.baseURL + "/api/v1/dataaccess/jobs"
}

func (c *ERA5Client) SubmitJob(ctx context.Context, token string, job JobRequest) (string, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.jobsURL(), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		JobID string `json:"jobId"`
	}
	if err := doJSON(c.client, req, token, &out); err != nil {
		return "", fmt.Errorf("job submission failed: %w", err)
	}
	if out.JobID == "" {
		return "", errors.New("job submission returned no job id")
	}
	c.log.Info("ERA5 job submitted", zap.String("job", out.JobID))
	return out.JobID, nil
}

// PollJob waits until the job completes, fails, or the timeout elapses.
func (c *ERA5Client) PollJob(ctx context.Context, token, jobID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		var out struct {
			Status string `json:"status"`
		}
		err := getJSON(ctx, c.client, c.jobsURL()+"/"+jobID, token, &out)
		switch {
		case err != nil && ctx.Err() == nil:
			c.log.Warn("job status request failed", zap.String("job", jobID), zap.Error(err))
		case out.Status == jobCompleted:
			c.log.Info("ERA5 job completed", zap.String("job", jobID))
			return nil
		case out.Status == jobFailed:
			return fmt.Errorf("job %s: %w", jobID, ErrJobFailed)
		case err == nil:
			c.log.Debug("ERA5 job pending", zap.String("job", jobID), zap.String("status", out.Status))
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("job %s after %s: %w", jobID, c.timeout, ErrJobTimeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *ERA5Client) ResultURL(ctx context.Context, token, jobID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := getJSON(ctx, c.client, c.jobsURL()+"/"+jobID+"/result", token, &out); err != nil {
		return "", fmt.Errorf("job result request failed: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("job %s returned no download url", jobID)
	}
	return out.URL, nil
}
