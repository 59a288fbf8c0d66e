package marketdata

import (
	"encoding/json"
	"sort"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderYahoo: {
		Name:         string(ProviderYahoo),
		DisplayName:  "Yahoo Finance",
		Description:  "Free daily and intraday equity bars from the Yahoo Finance chart API",
		RequiresAuth: false,
	},
	ProviderPolygon: {
		Name:         string(ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "US stock market data provider with real-time and historical OHLCV data",
		RequiresAuth: true,
	},
	ProviderBinance: {
		Name:         string(ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Cryptocurrency exchange with extensive market data for crypto trading pairs",
		RequiresAuth: false,
	},
}

// GetSupportedProviders returns the names of all supported providers, sorted.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}

// GetDownloadConfigSchema returns the JSON schema for a provider's download configuration.
func GetDownloadConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderYahoo:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return toJSONSchema(YahooDownloadConfig{})
	case ProviderPolygon:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return toJSONSchema(PolygonDownloadConfig{})
	case ProviderBinance:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return toJSONSchema(BinanceDownloadConfig{})
	default:
		return "", errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}
}

// ParseDownloadConfig parses a JSON configuration string for the given provider.
// Returns the parsed config as an interface{} which can be type-asserted to the specific config type.
func ParseDownloadConfig(providerName string, jsonConfig string) (interface{}, error) {
	switch ProviderType(providerName) {
	case ProviderYahoo:
		return ParseYahooConfig(jsonConfig)
	case ProviderPolygon:
		return ParsePolygonConfig(jsonConfig)
	case ProviderBinance:
		return ParseBinanceConfig(jsonConfig)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}
}

func toJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
