package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

type Config struct {
	Paths        PathsConfig
	CDSE         CDSEConfig
	WEkEO        WEkEOConfig
	Period       PeriodConfig
	HTTP         HTTPConfig
	Jobs         JobsConfig
	Log          LogConfig
	Temperature  TemperatureConfig
	Notification NotificationConfig
	Load         LoadConfig
}

type PathsConfig struct {
	BaseDir      string
	RawDir       string
	ProcessedDir string
	CacheDir     string
	AOIZipPath   string
}

type CDSEConfig struct {
	Username     string
	Password     string
	TokenURL     string
	CatalogueURL string
	DownloadURL  string
}

type WEkEOConfig struct {
	Username string
	Password string
	BaseURL  string
}

type PeriodConfig struct {
	Start time.Time
	End   time.Time
}

type HTTPConfig struct {
	Timeout time.Duration
}

type JobsConfig struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

type LogConfig struct {
	Level string
}

type TemperatureConfig struct {
	SubsetAOI bool
}

type NotificationConfig struct {
	WebhookURL string
}

type LoadConfig struct {
	WritePreviews bool
}

// Load reads envFile (when present) into the process environment and
// builds the configuration from environment variables. Credentials have no
// defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("CDSE_TOKEN_URL", "https://identity.dataspace.copernicus.eu/auth/realms/CDSE/protocol/openid-connect/token")
	v.SetDefault("CDSE_CATALOGUE_URL", "https://catalogue.dataspace.copernicus.eu/odata/v1/Products")
	v.SetDefault("CDSE_DOWNLOAD_URL", "https://zipper.dataspace.copernicus.eu/odata/v1/Products")
	v.SetDefault("WEKEO_BASE_URL", "https://gateway.prod.wekeo2.eu/hda-broker")
	v.SetDefault("START_DATE", "2024-01-01")
	v.SetDefault("END_DATE", "2024-02-28")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_TIMEOUT", "60s")
	v.SetDefault("JOB_POLL_INTERVAL", "20s")
	v.SetDefault("JOB_TIMEOUT", "10m")
	v.SetDefault("TEMPERATURE_SUBSET_AOI", true)
	v.SetDefault("WRITE_PREVIEWS", false)

	start, err := time.Parse(dateLayout, v.GetString("START_DATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid START_DATE: %w", err)
	}
	end, err := time.Parse(dateLayout, v.GetString("END_DATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid END_DATE: %w", err)
	}

	base := v.GetString("BASE_DIR")
	cfg := &Config{
		Paths: PathsConfig{
			BaseDir:      base,
			RawDir:       filepath.Join(base, "data", "raw"),
			ProcessedDir: filepath.Join(base, "data", "processed"),
			CacheDir:     filepath.Join(base, "data", "cache"),
			AOIZipPath:   v.GetString("AOI_ZIP_PATH"),
		},
		CDSE: CDSEConfig{
			Username:     v.GetString("CDSE_USERNAME"),
			Password:     v.GetString("CDSE_PASSWORD"),
			TokenURL:     v.GetString("CDSE_TOKEN_URL"),
			CatalogueURL: v.GetString("CDSE_CATALOGUE_URL"),
			DownloadURL:  v.GetString("CDSE_DOWNLOAD_URL"),
		},
		WEkEO: WEkEOConfig{
			Username: v.GetString("WEKEO_USERNAME"),
			Password: v.GetString("WEKEO_PASSWORD"),
			BaseURL:  v.GetString("WEKEO_BASE_URL"),
		},
		Period: PeriodConfig{Start: start, End: end},
		HTTP:   HTTPConfig{Timeout: v.GetDuration("HTTP_TIMEOUT")},
		Jobs: JobsConfig{
			PollInterval: v.GetDuration("JOB_POLL_INTERVAL"),
			Timeout:      v.GetDuration("JOB_TIMEOUT"),
		},
		Log:          LogConfig{Level: v.GetString("LOG_LEVEL")},
		Temperature:  TemperatureConfig{SubsetAOI: v.GetBool("TEMPERATURE_SUBSET_AOI")},
		Notification: NotificationConfig{WebhookURL: v.GetString("NOTIFY_WEBHOOK_URL")},
		Load:         LoadConfig{WritePreviews: v.GetBool("WRITE_PREVIEWS")},
	}

	if cfg.Paths.AOIZipPath != "" && !filepath.IsAbs(cfg.Paths.AOIZipPath) && base != "" {
		cfg.Paths.AOIZipPath = filepath.Join(base, cfg.Paths.AOIZipPath)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Paths.BaseDir == "" {
		errs = append(errs, errors.New("BASE_DIR is required"))
	}
	if c.Period.End.Before(c.Period.Start) {
		errs = append(errs, errors.New("END_DATE is before START_DATE"))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.Jobs.PollInterval <= 0 {
		errs = append(errs, errors.New("JOB_POLL_INTERVAL must be positive"))
	}
	if c.Jobs.Timeout <= 0 {
		errs = append(errs, errors.New("JOB_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// EnsureDirs creates the data directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.RawDir, c.Paths.ProcessedDir, c.Paths.CacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
