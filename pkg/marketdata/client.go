package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/pkg/cleaner"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/writer"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
	"go.uber.org/zap"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderYahoo   ProviderType = "yahoo"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterCSV     WriterType = "csv"
	WriterJSONL   WriterType = "jsonl"
	WriterParquet WriterType = "parquet"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  ProviderType `validate:"required,oneof=yahoo polygon binance"`
	WriterType    WriterType   `validate:"required,oneof=csv jsonl parquet"`
	DataPath      string       `validate:"required"`
	PolygonApiKey string       `validate:"required_if=ProviderType polygon"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker     string          `validate:"required"`
	StartDate  time.Time       `validate:"required"`
	EndDate    time.Time       `validate:"required,gtfield=StartDate"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required"`
}

// Client downloads data from a provider, cleans it and stores it using writers.
type Client struct {
	provider provider.Provider
	cleaner  *cleaner.Cleaner
	config   ClientConfig
	validate *validator.Validate
	logger   *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	marketProvider, err := provider.NewMarketDataProvider(provider.ProviderType(config.ProviderType), config.PolygonApiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", config.ProviderType, err)
	}

	return newClient(config, marketProvider, validate, log), nil
}

// NewClientWithProvider creates a client that fetches from the given provider.
// config.ProviderType is only used for validation.
func NewClientWithProvider(config ClientConfig, marketProvider provider.Provider, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	return newClient(config, marketProvider, validate, log), nil
}

func newClient(config ClientConfig, marketProvider provider.Provider, validate *validator.Validate, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		provider: marketProvider,
		cleaner:  cleaner.NewCleaner(log.Named("cleaner")),
		config:   config,
		validate: validate,
		logger:   log,
	}
}

// Fetch downloads the bars described by params and returns the cleaned table.
// A table that cleaning empties yields an error for which errors.IsDataEmptyError is true.
func (c *Client) Fetch(ctx context.Context, params DownloadParams) (*table.Table, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	raw, err := c.provider.Fetch(ctx, params.Ticker, params.StartDate, params.EndDate, params.Multiplier, params.Timespan)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	c.logger.Info("Fetched market data",
		zap.String("ticker", params.Ticker),
		zap.Int("rows", raw.Len()),
		zap.Int("missing", raw.NullCount()))

	cleaned, err := c.cleaner.Clean(raw)
	if err != nil {
		return nil, fmt.Errorf("cleaning %s failed: %w", params.Ticker, err)
	}

	return cleaned, nil
}

// Download fetches and cleans the data, then writes it under the data path as
// TICKER_START_END_MULTIPLIER_TIMESPAN.<ext>. It returns the written path.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	cleaned, err := c.Fetch(ctx, params)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.config.DataPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create data path: %w", err)
	}

	format := writer.Format(c.config.WriterType)
	outputPath := filepath.Join(c.config.DataPath, OutputFileName(params, format))

	tableWriter, err := writer.New(format, outputPath)
	if err != nil {
		return "", err
	}

	path, err := writer.WriteTable(tableWriter, cleaned)
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	c.logger.Info("Wrote market data", zap.String("path", path), zap.Int("rows", cleaned.Len()))

	return path, nil
}

// OutputFileName returns TICKER_START_END_MULTIPLIER_TIMESPAN.<ext>.
func OutputFileName(params DownloadParams, format writer.Format) string {
	return fmt.Sprintf("%s_%s_%s_%d_%s.%s",
		params.Ticker,
		params.StartDate.Format(time.DateOnly),
		params.EndDate.Format(time.DateOnly),
		params.Multiplier,
		params.Timespan,
		format.Extension())
}
