package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ingest/internal/config"
	"github.com/rxtech-lab/argo-ingest/internal/ingest"
	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/internal/version"
	"github.com/rxtech-lab/argo-ingest/pkg/cleaner"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/reader"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/writer"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var dateLayouts = []string{time.DateOnly, time.RFC3339}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	level, err := zapcore.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return logger.NewLoggerWithLevel(level)
}

// loadConfig reads the config file and applies the flags the user set explicitly.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, err
	}

	if cmd.IsSet("provider") {
		cfg.Provider = cmd.String("provider")
	}

	if cmd.IsSet("interval") {
		cfg.Interval = cmd.String("interval")
	}

	if cmd.IsSet("format") {
		cfg.PriceFormat = cmd.String("format")
	}

	if cmd.IsSet("concurrency") {
		cfg.Concurrency = int(cmd.Int("concurrency"))
	}

	if cmd.Bool("skip-fundamentals") {
		cfg.SkipFundamentals = true
	}

	return cfg, cfg.Validate()
}

// runAction ingests prices and fundamentals for the configured ticker universe.
func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck // best effort flush

	runner, err := ingest.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create ingestion runner: %w", err)
	}

	metadata, err := runner.WithProgress(cmd.Root().ErrWriter).Run(ctx, ingest.Options{
		StartDate:   cmd.Timestamp("start-date"),
		EndDate:     cmd.Timestamp("end-date"),
		TickersFile: cmd.String("tickers-file"),
		Force:       cmd.Bool("force"),
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	for _, file := range metadata.Files {
		status := fmt.Sprintf("%d rows", file.Rows)
		if file.Reused {
			status = "kept existing file"
		}

		fmt.Fprintf(cmd.Root().Writer, "%-13s %s (%s)\n", file.Kind, file.Path, status)
	}

	if len(metadata.SkippedPriceTickers) > 0 {
		fmt.Fprintf(cmd.Root().Writer, "no usable prices: %s\n", strings.Join(metadata.SkippedPriceTickers, ", "))
	}

	return nil
}

// downloadAction fetches, cleans and writes a single ticker.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck // best effort flush

	interval, err := marketdata.ParseTimespan(cmd.String("interval"))
	if err != nil {
		return err
	}

	clientConfig := marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(cmd.String("provider")),
		WriterType:    marketdata.WriterType(cmd.String("writer")),
		DataPath:      cmd.String("data"),
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
	}

	client, err := marketdata.NewClient(clientConfig, log)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	params := marketdata.DownloadParams{
		Ticker:     cmd.String("ticker"),
		StartDate:  cmd.Timestamp("start"),
		EndDate:    cmd.Timestamp("end"),
		Multiplier: interval.Multiplier(),
		Timespan:   interval.Timespan(),
	}

	log.Info("Starting download",
		zap.String("ticker", params.Ticker),
		zap.String("start", params.StartDate.Format(time.DateOnly)),
		zap.String("end", params.EndDate.Format(time.DateOnly)),
		zap.String("provider", string(clientConfig.ProviderType)),
		zap.String("writer", string(clientConfig.WriterType)))

	path, err := client.Download(ctx, params)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, path)

	return nil
}

// cleanAction cleans an existing raw file and writes the result.
func cleanAction(_ context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck // best effort flush

	input := cmd.String("input")
	output := cmd.String("output")

	format := writer.Format(cmd.String("format"))
	if !cmd.IsSet("format") {
		format = writer.Format(strings.TrimPrefix(filepath.Ext(output), "."))
	}

	start := optional.None[time.Time]()
	if cmd.IsSet("start") {
		start = optional.Some(cmd.Timestamp("start"))
	}

	end := optional.None[time.Time]()
	if cmd.IsSet("end") {
		end = optional.Some(cmd.Timestamp("end"))
	}

	raw, err := reader.NewReader(log.Named("reader")).Load(input, start, end)
	if err != nil {
		return err
	}

	cleaned, err := cleaner.NewCleaner(log.Named("cleaner")).Clean(raw)
	if err != nil {
		return fmt.Errorf("cleaning %s failed: %w", input, err)
	}

	tableWriter, err := writer.New(format, output)
	if err != nil {
		return err
	}

	if _, err := writer.WriteTable(tableWriter, cleaned); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "cleaned %d of %d rows into %s\n", cleaned.Len(), raw.Len(), output)

	if n := int(cmd.Int("preview")); n > 0 {
		fmt.Fprintln(cmd.Root().Writer, renderPreview(cleaned, n))
	}

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, schema)

	return nil
}

func providersAction(_ context.Context, cmd *cli.Command) error {
	if name := cmd.String("schema"); name != "" {
		schema, err := marketdata.GetDownloadConfigSchema(name)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.Root().Writer, schema)

		return nil
	}

	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		auth := ""
		if info.RequiresAuth {
			auth = " (requires API key)"
		}

		fmt.Fprintf(cmd.Root().Writer, "%-8s %s%s: %s\n", info.Name, info.DisplayName, auth, info.Description)
	}

	return nil
}

func versionAction(_ context.Context, cmd *cli.Command) error {
	fmt.Fprintf(cmd.Root().Writer, "argo-ingest %s\n", version.GetVersion())

	return nil
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Ingest and clean equity price data and fundamentals",
		Version:   version.GetVersion(),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Download prices and fundamentals for every ticker in the tickers file",
				Flags: []cli.Flag{
					&cli.TimestampFlag{
						Name:     "start-date",
						Usage:    "Start date in `YYYY-MM-DD` format",
						Required: true,
						Config:   cli.TimestampConfig{Layouts: dateLayouts},
					},
					&cli.TimestampFlag{
						Name:     "end-date",
						Usage:    "End date in `YYYY-MM-DD` format",
						Required: true,
						Config:   cli.TimestampConfig{Layouts: dateLayouts},
					},
					&cli.StringFlag{Name: "tickers-file", Usage: "File with one ticker per line (overrides config)"},
					&cli.BoolFlag{Name: "force", Usage: "Re-download and overwrite existing raw files"},
					&cli.StringFlag{Name: "provider", Usage: "Price provider (yahoo, polygon, binance)"},
					&cli.StringFlag{Name: "interval", Usage: "Bar interval, e.g. 1d or 1h"},
					&cli.StringFlag{Name: "format", Usage: "Price file format (csv, jsonl, parquet)"},
					&cli.IntFlag{Name: "concurrency", Usage: "Tickers fetched in parallel"},
					&cli.BoolFlag{Name: "skip-fundamentals", Usage: "Do not download EDGAR fundamentals"},
				},
				Action: runAction,
			},
			{
				Name:  "download",
				Usage: "Download, clean and store the bars of one ticker",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "ticker",
						Aliases:  []string{"t"},
						Usage:    "Stock ticker symbol",
						Required: true,
					},
					&cli.TimestampFlag{
						Name:     "start",
						Aliases:  []string{"s"},
						Usage:    "Start date in `YYYY-MM-DD` format (or RFC3339)",
						Required: true,
						Config:   cli.TimestampConfig{Layouts: dateLayouts},
					},
					&cli.TimestampFlag{
						Name:    "end",
						Aliases: []string{"e"},
						Usage:   "End date in `YYYY-MM-DD` format (or RFC3339). Defaults to today.",
						Value:   time.Now(),
						Config:  cli.TimestampConfig{Layouts: dateLayouts},
					},
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   fmt.Sprintf("Data provider to use (%s)", strings.Join(marketdata.GetSupportedProviders(), ", ")),
						Value:   string(marketdata.ProviderYahoo),
					},
					&cli.StringFlag{
						Name:    "writer",
						Aliases: []string{"w"},
						Usage:   fmt.Sprintf("Output format (%s, %s, %s)", marketdata.WriterCSV, marketdata.WriterJSONL, marketdata.WriterParquet),
						Value:   string(marketdata.WriterCSV),
					},
					&cli.StringFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Usage:   "Bar interval, e.g. 1d or 15m",
						Value:   string(marketdata.TimespanOneDay),
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Path to the data output directory",
						Value:   "data",
					},
				},
				Action: downloadAction,
			},
			{
				Name:  "clean",
				Usage: "Clean an existing price file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Raw csv, jsonl or parquet file", Required: true},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Cleaned output file", Required: true},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Output format; defaults to the output extension"},
					&cli.IntFlag{Name: "preview", Usage: "Print the first `N` cleaned rows"},
					&cli.TimestampFlag{Name: "start", Usage: "Keep rows dated on or after this date", Config: cli.TimestampConfig{Layouts: dateLayouts}},
					&cli.TimestampFlag{Name: "end", Usage: "Keep rows dated on or before this date", Config: cli.TimestampConfig{Layouts: dateLayouts}},
				},
				Action: cleanAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: schemaAction,
			},
			{
				Name:  "providers",
				Usage: "List price providers",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "schema", Usage: "Print the download config schema of `PROVIDER`"},
				},
				Action: providersAction,
			},
			{
				Name:   "version",
				Usage:  "Print the version",
				Action: versionAction,
			},
		},
	}
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
