package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/forest-guardian/eo-etl/internal/archive"
	"github.com/forest-guardian/eo-etl/internal/cache"
)

const (
	DefaultCatalogueURL = "https://catalogue.dataspace.copernicus.eu/odata/v1/Products"
	DefaultDownloadURL  = "https://zipper.dataspace.copernicus.eu/odata/v1/Products"

	collectionName = "SENTINEL-2"
	productType    = "S2MSI2A"
)

var ErrNoProduct = errors.New("no Sentinel-2 product matches the search")

// Product is a catalogue entry of the Copernicus Data Space.
type Product struct {
	ID           string    `json:"Id"`
	Name         string    `json:"Name"`
	ContentStart time.Time `json:"ContentStart"`
}

type catalogueResponse struct {
	Value []struct {
		ID          string `json:"Id"`
		Name        string `json:"Name"`
		ContentDate struct {
			Start time.Time `json:"Start"`
		} `json:"ContentDate"`
	} `json:"value"`
}

// SentinelClient searches and downloads Level-2A products from CDSE.
type SentinelClient struct {
	catalogueURL string
	downloadURL  string
	rawDir       string
	client       *http.Client
	downloader   *Downloader
	cache        cache.Store[Product]
	log          *zap.Logger
}

func NewSentinelClient(catalogueURL, downloadURL, rawDir string, client *http.Client,
	downloader *Downloader, products cache.Store[Product], log *zap.Logger) *SentinelClient {
	if catalogueURL == "" {
		catalogueURL = DefaultCatalogueURL
	}
	if downloadURL == "" {
		downloadURL = DefaultDownloadURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SentinelClient{
		catalogueURL: catalogueURL,
		downloadURL:  strings.TrimRight(downloadURL, "/"),
		rawDir:       rawDir,
		client:       client,
		downloader:   downloader,
		cache:        products,
		log:          log,
	}
}

// Fetch finds the earliest product over bbox in [start, end], downloads and
// extracts it, and returns the product folder.
func (s *SentinelClient) Fetch(ctx context.Context, token string, bbox [4]float64, start, end time.Time) (string, error) {
	product, err := s.Search(ctx, bbox, start, end)
	if err != nil {
		return "", err
	}
	return s.Download(ctx, token, product)
}

// Search queries the OData catalogue. Results are cached per query.
func (s *SentinelClient) Search(ctx context.Context, bbox [4]float64, start, end time.Time) (Product, error) {
	key := ""
	if s.cache != nil {
		key = s.cache.GenerateKey(s.catalogueURL, bbox, start.UTC(), end.UTC())
		if p, ok := s.cache.Get(key); ok {
			s.log.Info("catalogue hit from cache", zap.String("product", p.Name))
			return p, nil
		}
	}

	q := url.Values{}
	q.Set("$filter", catalogueFilter(bbox, start, end))
	q.Set("$orderby", "ContentDate/Start asc")
	q.Set("$top", "1")

	var resp catalogueResponse
	if err := getJSON(ctx, s.client, s.catalogueURL+"?"+q.Encode(), "", &resp); err != nil {
		return Product{}, fmt.Errorf("catalogue search failed: %w", err)
	}
	if len(resp.Value) == 0 {
		return Product{}, ErrNoProduct
	}
	v := resp.Value[0]
	product := Product{ID: v.ID, Name: v.Name, ContentStart: v.ContentDate.Start}
	s.log.Info("product found", zap.String("product", product.Name), zap.Time("sensed", product.ContentStart))

	if s.cache != nil {
		if err := s.cache.Set(key, product); err != nil {
			s.log.Warn("failed to cache catalogue result", zap.Error(err))
		}
	}
	return product, nil
}

// Download fetches the product archive and extracts it under the raw
// directory. Both steps are skipped when their output already exists.
func (s *SentinelClient) Download(ctx context.Context, token string, p Product) (string, error) {
	if token == "" {
		return "", errors.New("CDSE token required for download")
	}
	zipPath := filepath.Join(s.rawDir, p.Name+".zip")
	src := fmt.Sprintf("%s(%s)/$value", s.downloadURL, p.ID)
	if err := s.downloader.Fetch(ctx, src, token, zipPath); err != nil {
		return "", err
	}

	folder := filepath.Join(s.rawDir, p.Name)
	if _, err := os.Stat(folder); err == nil {
		s.log.Info("product already extracted", zap.String("folder", folder))
		return folder, nil
	}
	tmp := folder + ".extracting"
	os.RemoveAll(tmp)
	if err := archive.Unzip(zipPath, tmp); err != nil {
		os.RemoveAll(tmp)
		return "", err
	}
	if err := os.Rename(tmp, folder); err != nil {
		return "", err
	}
	s.log.Info("product extracted", zap.String("folder", folder))
	return folder, nil
}

func catalogueFilter(bbox [4]float64, start, end time.Time) string {
	minx, miny, maxx, maxy := bbox[0], bbox[1], bbox[2], bbox[3]
	polygon := fmt.Sprintf("POLYGON((%[1]g %[2]g,%[3]g %[2]g,%[3]g %[4]g,%[1]g %[4]g,%[1]g %[2]g))", minx, miny, maxx, maxy)
	return fmt.Sprintf("Collection/Name eq '%s' and "+
		"Attributes/OData.CSC.StringAttribute/any(att:att/Name eq 'productType' and att/OData.CSC.StringAttribute/Value eq '%s') and "+
		"OData.CSC.Intersects(area=geography'SRID=4326;%s') and "+
		"ContentDate/Start gt %s and ContentDate/Start lt %s",
		collectionName, productType, polygon, odataTime(start), odataTime(end))
}

func odataTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
