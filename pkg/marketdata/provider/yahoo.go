package provider

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
	"github.com/shopspring/decimal"
)

// YahooChartIterator is the subset of the finance-go chart iterator used by YahooClient.
type YahooChartIterator interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// YahooChartFunc requests a chart from Yahoo Finance.
type YahooChartFunc func(params *chart.Params) YahooChartIterator

func defaultYahooChart(params *chart.Params) YahooChartIterator {
	return chart.Get(params)
}

// YahooClient downloads bars from the Yahoo Finance chart endpoint. No API key is needed.
type YahooClient struct {
	getChart YahooChartFunc
}

func NewYahooClient() *YahooClient {
	return &YahooClient{getChart: defaultYahooChart}
}

// NewYahooClientWithChart creates a YahooClient backed by the given chart function.
func NewYahooClientWithChart(getChart YahooChartFunc) *YahooClient {
	return &YahooClient{getChart: getChart}
}

// Fetch downloads the bars for ticker. Yahoo reports missing quotes as zero
// prices; those cells, and the volume of a bar without a close, are returned as missing.
func (c *YahooClient) Fetch(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan) (*table.Table, error) {
	interval, err := convertTimespanToYahooInterval(timespan, multiplier)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTimespan, "failed to convert timespan to Yahoo interval", err)
	}

	if err := checkRange(startDate, endDate); err != nil {
		return nil, err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := &chart.Params{
		Symbol:   ticker,
		Interval: interval,
		Start:    datetime.New(&startDate),
		End:      datetime.New(&endDate),
	}

	bars := c.getChart(params)
	result := newPriceTable()

	for bars.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("yahoo download cancelled: %w", err)
		}

		bar := bars.Bar()
		closePrice := decimalPrice(bar.Close)

		volume := table.Float(float64(bar.Volume))
		if closePrice.IsNull() {
			volume = table.Null()
		}

		if err := result.AppendRow(
			table.Time(barDate(time.Unix(int64(bar.Timestamp), 0), timespan)),
			table.String(ticker),
			decimalPrice(bar.Open),
			decimalPrice(bar.High),
			decimalPrice(bar.Low),
			closePrice,
			volume,
		); err != nil {
			return nil, err
		}
	}

	if err := bars.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch Yahoo chart for %s", ticker)
	}

	return result, nil
}

func decimalPrice(d decimal.Decimal) table.Value {
	v, _ := d.Float64()

	return priceOrMissing(v)
}

// convertTimespanToYahooInterval maps the polygon timespan and multiplier onto the chart intervals Yahoo accepts.
func convertTimespanToYahooInterval(timespan models.Timespan, multiplier int) (datetime.Interval, error) {
	switch {
	case timespan == models.Minute && multiplier == 1:
		return datetime.OneMin, nil
	case timespan == models.Minute && multiplier == 5:
		return datetime.FiveMins, nil
	case timespan == models.Minute && multiplier == 15:
		return datetime.FifteenMins, nil
	case timespan == models.Minute && multiplier == 30:
		return datetime.ThirtyMins, nil
	case timespan == models.Hour && multiplier == 1:
		return datetime.OneHour, nil
	case timespan == models.Day && multiplier == 1:
		return datetime.OneDay, nil
	case timespan == models.Month && multiplier == 1:
		return datetime.OneMonth, nil
	default:
		return "", fmt.Errorf("unsupported interval for Yahoo: %d %s", multiplier, timespan)
	}
}
