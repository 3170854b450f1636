package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/forest-guardian/eo-etl/internal/auth"
	"github.com/forest-guardian/eo-etl/internal/cache"
	"github.com/forest-guardian/eo-etl/internal/extract"
	"github.com/forest-guardian/eo-etl/internal/gdalio"
	"github.com/forest-guardian/eo-etl/internal/notification"
	"github.com/forest-guardian/eo-etl/internal/pipeline"
	"github.com/forest-guardian/eo-etl/internal/sentinel"
	"github.com/forest-guardian/eo-etl/internal/temperature"
)

const catalogueTTL = 24 * time.Hour

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Authenticate, extract, transform and load both products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(opts)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.pipeline().Run(cmd.Context())
			if report != nil {
				printReport(report)
			}
			return err
		},
	}
}

func (a *app) pipeline() *pipeline.Pipeline {
	cfg := a.cfg
	projector := gdalio.Projector{}
	downloader := extract.NewDownloader(a.downloadClient(), a.log, a.quiet)
	products := cache.NewFileCache[extract.Product](cfg.Paths.CacheDir, "catalogue", catalogueTTL)

	deps := pipeline.Deps{
		CDSE: auth.NewCDSE(auth.Credentials{Username: cfg.CDSE.Username, Password: cfg.CDSE.Password},
			cfg.CDSE.TokenURL, a.client),
		WEkEO: auth.NewWEkEO(auth.Credentials{Username: cfg.WEkEO.Username, Password: cfg.WEkEO.Password},
			cfg.WEkEO.BaseURL, a.client),
		Area:      a.loadArea,
		Projector: projector,
		Scenes: extract.NewSentinelClient(cfg.CDSE.CatalogueURL, cfg.CDSE.DownloadURL, cfg.Paths.RawDir,
			a.client, downloader, products, a.log),
		Climate: extract.NewERA5Client(cfg.WEkEO.BaseURL, cfg.Paths.RawDir, a.client, downloader,
			cfg.Jobs.PollInterval, cfg.Jobs.Timeout, a.log),
		Indices:     sentinel.NewTransformer(sentinel.NewAligner(gdalio.Opener{}, projector), a.log),
		Temperature: temperature.NewTransformer(projector, cfg.Temperature.SubsetAOI, a.log),
		Loader:      a.loader(),
		Start:       cfg.Period.Start,
		End:         cfg.Period.End,
		Log:         a.log,
	}
	if n := notification.NewNotifier(cfg.Notification.WebhookURL, a.client); n.Enabled() {
		deps.Notifier = n
	}
	return pipeline.New(deps)
}

// downloadClient bounds the wait for response headers only; product bodies
// can take far longer than the API timeout and are cancelled through ctx.
func (a *app) downloadClient() *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = a.cfg.HTTP.Timeout
	return &http.Client{Transport: tr}
}
