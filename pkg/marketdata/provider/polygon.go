package provider

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/iter"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

// PolygonAggsIterator is the subset of the polygon aggregates iterator used by PolygonClient.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient abstracts the polygon REST client for testing.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPIWrapper struct {
	client *polygon.Client
}

func (w *polygonAPIWrapper) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return w.client.ListAggs(ctx, params, options...)
}

var _ PolygonAggsIterator = (*iter.Iter[models.Agg])(nil)

type PolygonClient struct {
	apiClient PolygonAPIClient
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "apiKey is required")
	}

	return &PolygonClient{
		apiClient: &polygonAPIWrapper{client: polygon.New(apiKey)},
	}, nil
}

// NewPolygonClientWithAPI creates a PolygonClient backed by the given API client.
func NewPolygonClientWithAPI(apiClient PolygonAPIClient) *PolygonClient {
	return &PolygonClient{apiClient: apiClient}
}

func (c *PolygonClient) Fetch(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan) (*table.Table, error) {
	if err := checkRange(startDate, endDate); err != nil {
		return nil, err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	aggs := c.apiClient.ListAggs(ctx, params)
	result := newPriceTable()

	for aggs.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("polygon download cancelled: %w", err)
		}

		agg := aggs.Item()

		volume := table.Float(agg.Volume)
		if agg.Close <= 0 {
			volume = table.Null()
		}

		if err := result.AppendRow(
			table.Time(barDate(time.Time(agg.Timestamp), timespan)),
			table.String(ticker),
			priceOrMissing(agg.Open),
			priceOrMissing(agg.High),
			priceOrMissing(agg.Low),
			priceOrMissing(agg.Close),
			volume,
		); err != nil {
			return nil, err
		}
	}

	if err := aggs.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "error iterating polygon aggregates for %s", ticker)
	}

	return result, nil
}
