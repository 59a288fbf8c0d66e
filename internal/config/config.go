// Package config loads the ingestion configuration from a YAML file, a .env
// file and the process environment, in that order of increasing precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. ARGO_INGEST_RAW_DATA_DIR.
// POLYGON_API_KEY and SEC_USER_AGENT are also read without the prefix.
const EnvPrefix = "ARGO_INGEST"

// Config holds every setting of an ingestion run.
type Config struct {
	RawDataDir           string  `yaml:"rawDataDir" json:"rawDataDir" split_words:"true" validate:"required" jsonschema:"title=Raw Data Directory,description=Directory receiving price/fundamentals/metadata files,default=data/raw"`
	TickersFile          string  `yaml:"tickersFile" json:"tickersFile" split_words:"true" validate:"required" jsonschema:"title=Tickers File,description=File with one ticker per line,default=tickers.txt"`
	PriceDataFilename    string  `yaml:"priceDataFilename" json:"priceDataFilename" split_words:"true" validate:"required" jsonschema:"title=Price Data Filename,default=prices.csv"`
	FundamentalsFilename string  `yaml:"fundamentalsFilename" json:"fundamentalsFilename" split_words:"true" validate:"required" jsonschema:"title=Fundamentals Filename,default=fundamentals.jsonl"`
	MetadataFilename     string  `yaml:"metadataFilename" json:"metadataFilename" split_words:"true" validate:"required" jsonschema:"title=Metadata Filename,default=ingestion_metadata.json"`
	Provider             string  `yaml:"provider" json:"provider" split_words:"true" validate:"required,oneof=yahoo polygon binance" jsonschema:"title=Price Provider,enum=yahoo,enum=polygon,enum=binance,default=yahoo"`
	Interval             string  `yaml:"interval" json:"interval" split_words:"true" validate:"required,oneof=1s 1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M" jsonschema:"title=Interval,description=Bar interval,default=1d"`
	PriceFormat          string  `yaml:"priceFormat" json:"priceFormat" split_words:"true" validate:"required,oneof=csv jsonl parquet" jsonschema:"title=Price File Format,enum=csv,enum=jsonl,enum=parquet,default=csv"`
	Concurrency          int     `yaml:"concurrency" json:"concurrency" split_words:"true" validate:"min=1,max=32" jsonschema:"title=Concurrency,description=Tickers fetched in parallel,minimum=1,maximum=32,default=4"`
	SkipFundamentals     bool    `yaml:"skipFundamentals" json:"skipFundamentals" split_words:"true" jsonschema:"title=Skip Fundamentals,description=Do not download EDGAR fundamentals"`
	SECUserAgent         string  `yaml:"secUserAgent" json:"secUserAgent" envconfig:"SEC_USER_AGENT" validate:"required_if=SkipFundamentals false" jsonschema:"title=SEC User Agent,description=User-Agent sent to SEC EDGAR (name and contact email)"`
	SECRequestsPerSecond float64 `yaml:"secRequestsPerSecond" json:"secRequestsPerSecond" split_words:"true" validate:"gt=0,lte=10" jsonschema:"title=SEC Request Rate,maximum=10,default=10"`
	PolygonAPIKey        string  `yaml:"-" json:"-" envconfig:"POLYGON_API_KEY" validate:"required_if=Provider polygon"`
	LogLevel             string  `yaml:"logLevel" json:"logLevel" split_words:"true" validate:"oneof=debug info warn error" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

// Default returns the configuration used when no file or environment overrides are given.
func Default() Config {
	return Config{
		RawDataDir:           "data/raw",
		TickersFile:          "tickers.txt",
		PriceDataFilename:    "prices.csv",
		FundamentalsFilename: "fundamentals.jsonl",
		MetadataFilename:     "ingestion_metadata.json",
		Provider:             "yahoo",
		Interval:             "1d",
		PriceFormat:          "csv",
		Concurrency:          4,
		SkipFundamentals:     false,
		SECUserAgent:         "argo-ingest/1.0 (research@example.com)",
		SECRequestsPerSecond: 10,
		PolygonAPIKey:        "",
		LogLevel:             "info",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (skipped
// when path is empty), then a .env file in the working directory if present,
// then environment variables. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
		}
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read environment", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration against its validation tags.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// Schema returns the JSON schema of the configuration file.
func Schema() (string, error) {
	reflector := jsonschema.Reflector{ //nolint:exhaustruct // only the options we need
		DoNotReference: true,
		ExpandedStruct: true,
	}

	schema := reflector.Reflect(&Config{}) //nolint:exhaustruct // empty struct is intentional for schema generation
	schema.Title = "argo-ingest-config"
	schema.Description = "Configuration schema for argo-ingest"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	return string(data), nil
}

// ToYAML renders the config as a YAML document, e.g. for a sample config file.
func (c Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}
