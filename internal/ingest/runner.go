// Package ingest orchestrates a full ingestion run: price bars and EDGAR
// fundamentals for a ticker universe, written under the raw data directory
// together with a metadata file describing the run.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-ingest/internal/config"
	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/internal/version"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/fundamentals"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/writer"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PriceFetcher returns the cleaned bars of one ticker. *marketdata.Client implements it.
type PriceFetcher interface {
	Fetch(ctx context.Context, params marketdata.DownloadParams) (*table.Table, error)
}

// Options are the per-run arguments.
type Options struct {
	StartDate time.Time
	EndDate   time.Time
	// TickersFile overrides config.TickersFile when set.
	TickersFile string
	// Force downloads again even if the output files exist.
	Force bool
}

// Runner executes ingestion runs.
type Runner struct {
	config       config.Config
	prices       PriceFetcher
	fundamentals fundamentals.Source
	logger       *logger.Logger
	progress     io.Writer
	now          func() time.Time
}

// New builds a Runner backed by the configured price provider and, unless
// fundamentals are skipped, the SEC EDGAR client.
func New(cfg config.Config, log *logger.Logger) (*Runner, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(cfg.Provider),
		WriterType:    marketdata.WriterType(cfg.PriceFormat),
		DataPath:      cfg.RawDataDir,
		PolygonApiKey: cfg.PolygonAPIKey,
	}, log.Named("marketdata"))
	if err != nil {
		return nil, err
	}

	var source fundamentals.Source

	if !cfg.SkipFundamentals {
		source, err = fundamentals.NewEDGARClient(fundamentals.Config{
			UserAgent:         cfg.SECUserAgent,
			RequestsPerSecond: cfg.SECRequestsPerSecond,
			Logger:            log.Named("edgar"),
		})
		if err != nil {
			return nil, err
		}
	}

	return NewRunner(cfg, client, source, log), nil
}

// NewRunner creates a Runner from explicit collaborators. source may be nil
// when cfg.SkipFundamentals is set.
func NewRunner(cfg config.Config, prices PriceFetcher, source fundamentals.Source, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Runner{
		config:       cfg,
		prices:       prices,
		fundamentals: source,
		logger:       log,
		progress:     io.Discard,
		now:          time.Now,
	}
}

// WithProgress renders progress bars to w.
func (r *Runner) WithProgress(w io.Writer) *Runner {
	if w == nil {
		w = io.Discard
	}

	r.progress = w

	return r
}

// Run performs one ingestion run and returns the metadata it wrote.
func (r *Runner) Run(ctx context.Context, opts Options) (*Metadata, error) {
	if !opts.EndDate.After(opts.StartDate) {
		return nil, errors.Newf(errors.ErrCodeInvalidDateRange, "end date %s is not after start date %s",
			opts.EndDate.Format(time.DateOnly), opts.StartDate.Format(time.DateOnly))
	}

	interval, err := marketdata.ParseTimespan(r.config.Interval)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.config.RawDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create raw data directory: %w", err)
	}

	r.logger.Info("Raw data directory", zap.String("path", r.config.RawDataDir))

	tickersFile := r.config.TickersFile
	if opts.TickersFile != "" {
		tickersFile = opts.TickersFile
	}

	tickers, err := LoadTickers(tickersFile)
	if err != nil {
		return nil, err
	}

	if len(tickers) == 0 {
		return nil, errors.Newf(errors.ErrCodeMissingParameter, "no tickers in %s", tickersFile)
	}

	r.logger.Info("Loaded tickers", zap.Int("count", len(tickers)), zap.String("file", tickersFile))

	metadataPath := filepath.Join(r.config.RawDataDir, r.config.MetadataFilename)
	reusable := r.previousRunReusable(metadataPath)

	metadata := &Metadata{
		RunID:                 uuid.New().String(),
		Version:               version.GetVersion(),
		Tickers:               tickers,
		StartDate:             opts.StartDate.Format(time.DateOnly),
		EndDate:               opts.EndDate.Format(time.DateOnly),
		Interval:              string(interval),
		Provider:              r.config.Provider,
		CreatedAt:             r.now().UTC(),
		Files:                 []FileInfo{},
		SkippedPriceTickers:   []string{},
		SkippedFundamentals:   []string{},
		FundamentalsRequested: !r.config.SkipFundamentals,
	}

	priceFormat := writer.Format(r.config.PriceFormat)
	pricePath := filepath.Join(r.config.RawDataDir, withExtension(r.config.PriceDataFilename, priceFormat))

	if r.shouldSkip(pricePath, opts.Force, reusable) {
		r.logger.Info("Skipping price download; file exists", zap.String("path", pricePath))
		metadata.Files = append(metadata.Files, FileInfo{Kind: "prices", Path: pricePath, Format: string(priceFormat), Rows: 0, Reused: true})
	} else {
		r.logger.Info("Fetching price data",
			zap.String("start", metadata.StartDate),
			zap.String("end", metadata.EndDate),
			zap.Bool("force", opts.Force))

		info, skipped, err := r.ingestPrices(ctx, tickers, opts, interval, pricePath, priceFormat)
		if err != nil {
			return nil, err
		}

		metadata.Files = append(metadata.Files, info)
		metadata.SkippedPriceTickers = skipped
	}

	if !r.config.SkipFundamentals {
		fundamentalsPath := filepath.Join(r.config.RawDataDir, r.config.FundamentalsFilename)

		if r.shouldSkip(fundamentalsPath, opts.Force, reusable) {
			r.logger.Info("Skipping fundamentals download; file exists", zap.String("path", fundamentalsPath))
			metadata.Files = append(metadata.Files, FileInfo{Kind: "fundamentals", Path: fundamentalsPath, Format: string(writer.FormatJSONL), Rows: 0, Reused: true})
		} else {
			r.logger.Info("Fetching company fundamentals via EDGAR", zap.Bool("force", opts.Force))

			info, skipped, err := r.ingestFundamentals(ctx, tickers, fundamentalsPath)
			if err != nil {
				return nil, err
			}

			metadata.Files = append(metadata.Files, info)
			metadata.SkippedFundamentals = skipped
		}
	}

	if err := WriteMetadata(metadataPath, *metadata); err != nil {
		return nil, err
	}

	r.logger.Info("Data ingestion complete", zap.String("runId", metadata.RunID), zap.String("metadata", metadataPath))

	return metadata, nil
}

// previousRunReusable reports whether files of the previous run may be kept.
// Without metadata the files are trusted; metadata from an incompatible
// version forces a new download.
func (r *Runner) previousRunReusable(metadataPath string) bool {
	previous, err := ReadMetadata(metadataPath)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("Ignoring unreadable metadata", zap.String("path", metadataPath), zap.Error(err))
		}

		return true
	}

	if err := version.CheckVersionCompatibility(version.GetVersion(), previous.Version); err != nil {
		r.logger.Warn("Existing raw files were written by an incompatible version; downloading again",
			zap.String("previousVersion", previous.Version),
			zap.Error(err))

		return false
	}

	return true
}

func (r *Runner) shouldSkip(path string, force bool, reusable bool) bool {
	if force || !reusable {
		return false
	}

	_, err := os.Stat(path)

	return err == nil
}

func (r *Runner) ingestPrices(
	ctx context.Context,
	tickers []string,
	opts Options,
	interval marketdata.Timespan,
	path string,
	format writer.Format,
) (FileInfo, []string, error) {
	results := make([]*table.Table, len(tickers))
	bar := r.newBar(len(tickers), "Downloading prices")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())

	for i, ticker := range tickers {
		g.Go(func() error {
			defer bar.Add(1) //nolint:errcheck // progress output only

			cleaned, err := r.prices.Fetch(gctx, marketdata.DownloadParams{
				Ticker:     ticker,
				StartDate:  opts.StartDate,
				EndDate:    opts.EndDate,
				Multiplier: interval.Multiplier(),
				Timespan:   interval.Timespan(),
			})
			if err != nil {
				if errors.IsDataEmptyError(err) {
					r.logger.Warn("Skipping ticker with no usable price data", zap.String("ticker", ticker), zap.Error(err))

					return nil
				}

				return fmt.Errorf("failed to fetch prices for %s: %w", ticker, err)
			}

			results[i] = cleaned

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return FileInfo{}, nil, err
	}

	//nolint:errcheck // progress output only
	bar.Finish()

	var combined *table.Table

	skipped := []string{}

	for i, result := range results {
		switch {
		case result == nil:
			skipped = append(skipped, tickers[i])
		case combined == nil:
			combined = result
		default:
			if err := combined.Concat(result); err != nil {
				return FileInfo{}, nil, fmt.Errorf("failed to combine prices for %s: %w", tickers[i], err)
			}
		}
	}

	if combined == nil {
		return FileInfo{}, nil, errors.Newf(errors.ErrCodeNoDataFound,
			"no price data for any of %d tickers between %s and %s",
			len(tickers), opts.StartDate.Format(time.DateOnly), opts.EndDate.Format(time.DateOnly))
	}

	combined.ResetIndex()

	if err := r.write(path, format, combined); err != nil {
		return FileInfo{}, nil, err
	}

	r.logger.Info("Wrote price data",
		zap.String("path", path),
		zap.Int("rows", combined.Len()),
		zap.Strings("skipped", skipped))

	return FileInfo{Kind: "prices", Path: path, Format: string(format), Rows: combined.Len(), Reused: false}, skipped, nil
}

func (r *Runner) ingestFundamentals(ctx context.Context, tickers []string, path string) (FileInfo, []string, error) {
	if r.fundamentals == nil {
		return FileInfo{}, nil, errors.New(errors.ErrCodeInvalidConfiguration, "fundamentals source is not configured")
	}

	records := make([]*fundamentals.Record, len(tickers))
	bar := r.newBar(len(tickers), "Downloading fundamentals")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())

	for i, ticker := range tickers {
		g.Go(func() error {
			defer bar.Add(1) //nolint:errcheck // progress output only

			record, err := r.fundamentals.Fetch(gctx, ticker)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}

				r.logger.Warn("Skipping fundamentals", zap.String("ticker", ticker), zap.Error(err))

				return nil
			}

			records[i] = &record

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return FileInfo{}, nil, fmt.Errorf("fundamentals download cancelled: %w", err)
	}

	//nolint:errcheck // progress output only
	bar.Finish()

	fetched := make([]fundamentals.Record, 0, len(records))
	skipped := []string{}

	for i, record := range records {
		if record == nil {
			skipped = append(skipped, tickers[i])

			continue
		}

		fetched = append(fetched, *record)
	}

	result := fundamentals.ToTable(fetched)
	if err := r.write(path, writer.FormatJSONL, result); err != nil {
		return FileInfo{}, nil, err
	}

	r.logger.Info("Wrote fundamentals", zap.String("path", path), zap.Int("rows", result.Len()))

	return FileInfo{Kind: "fundamentals", Path: path, Format: string(writer.FormatJSONL), Rows: result.Len(), Reused: false}, skipped, nil
}

func (r *Runner) write(path string, format writer.Format, t *table.Table) error {
	tableWriter, err := writer.New(format, path)
	if err != nil {
		return err
	}

	if _, err := writer.WriteTable(tableWriter, t); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func (r *Runner) concurrency() int {
	if r.config.Concurrency < 1 {
		return 1
	}

	return r.config.Concurrency
}

func (r *Runner) newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionShowCount(),
	)
}

// withExtension replaces the extension of name with the one of format.
func withExtension(name string, format writer.Format) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + "." + format.Extension()
}
