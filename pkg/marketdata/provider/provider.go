package provider

import (
	"context"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderYahoo   ProviderType = "yahoo"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

type Provider interface {
	// Fetch downloads the bars for the given ticker and date range and returns
	// them as a price table with the columns in table.PriceColumns.
	// Provider-side gaps are returned as missing cells; the table is not cleaned.
	// The context can be used to cancel the download operation.
	// example:
	// Fetch(ctx, "AAPL", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), 1, models.Day)
	Fetch(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan) (*table.Table, error)
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
// Polygon expects the API key as config; the other providers ignore it.
func NewMarketDataProvider(providerType ProviderType, config any) (Provider, error) {
	switch providerType {
	case ProviderYahoo:
		return NewYahooClient(), nil
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires API key string config")
		}

		return NewPolygonClient(apiKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

func newPriceTable() *table.Table {
	return table.MustNew(table.PriceColumns...)
}

// barDate normalizes a bar timestamp. Daily and coarser bars are keyed by
// their UTC calendar date; intraday bars keep the full UTC timestamp.
func barDate(ts time.Time, timespan models.Timespan) time.Time {
	ts = ts.UTC()

	switch timespan {
	case models.Day, models.Week, models.Month, models.Quarter, models.Year:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return ts
	}
}

// priceOrMissing treats non-positive prices as provider-side gaps.
func priceOrMissing(v float64) table.Value {
	if v <= 0 {
		return table.Null()
	}

	return table.Float(v)
}

func checkRange(startDate, endDate time.Time) error {
	if !endDate.After(startDate) {
		return errors.Newf(errors.ErrCodeInvalidDateRange, "end date %s must be after start date %s",
			table.FormatTime(endDate), table.FormatTime(startDate))
	}

	return nil
}
