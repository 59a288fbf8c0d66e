package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

// binancePageSize is the default number of klines Binance returns per request.
const binancePageSize = 500

// BinanceKlinesService is the subset of the kline service used by BinanceClient.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient abstracts the binance client for testing.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPIWrapper struct {
	client *binance.Client
}

func (w *binanceAPIWrapper) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesWrapper{service: w.client.NewKlinesService()}
}

type binanceKlinesWrapper struct {
	service *binance.KlinesService
}

func (w *binanceKlinesWrapper) Symbol(symbol string) BinanceKlinesService {
	w.service.Symbol(symbol)

	return w
}

func (w *binanceKlinesWrapper) Interval(interval string) BinanceKlinesService {
	w.service.Interval(interval)

	return w
}

func (w *binanceKlinesWrapper) StartTime(startTime int64) BinanceKlinesService {
	w.service.StartTime(startTime)

	return w
}

func (w *binanceKlinesWrapper) EndTime(endTime int64) BinanceKlinesService {
	w.service.EndTime(endTime)

	return w
}

func (w *binanceKlinesWrapper) Do(ctx context.Context) ([]*binance.Kline, error) {
	return w.service.Do(ctx)
}

type BinanceClient struct {
	apiClient BinanceAPIClient
}

func NewBinanceClient() (Provider, error) {
	return &BinanceClient{
		apiClient: &binanceAPIWrapper{client: binance.NewClient("", "")},
	}, nil
}

// NewBinanceClientWithAPI creates a BinanceClient backed by the given API client.
func NewBinanceClientWithAPI(apiClient BinanceAPIClient) *BinanceClient {
	return &BinanceClient{apiClient: apiClient}
}

// Fetch downloads the historical klines for the given ticker and date range from Binance.
func (c *BinanceClient) Fetch(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan) (*table.Table, error) {
	interval, err := convertTimespanToBinanceInterval(timespan, multiplier)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTimespan, "failed to convert timespan to Binance interval", err)
	}

	if err := checkRange(startDate, endDate); err != nil {
		return nil, err
	}

	result := newPriceTable()
	endTimeMillis := endDate.UnixMilli()
	// Binance caps each response; page by moving the start past the last close time.
	currentStartTime := startDate.UnixMilli()

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("binance download cancelled: %w", err)
		}

		klines, err := c.apiClient.NewKlinesService().
			Symbol(ticker).
			Interval(interval).
			StartTime(currentStartTime).
			EndTime(endTimeMillis).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch klines for %s from Binance", ticker)
		}

		if err := processKlines(result, ticker, klines, timespan); err != nil {
			return nil, fmt.Errorf("failed to process klines: %w", err)
		}

		if len(klines) < binancePageSize {
			break
		}

		currentStartTime = klines[len(klines)-1].CloseTime + 1
		if currentStartTime >= endTimeMillis {
			break
		}
	}

	return result, nil
}

// processKlines appends klines to t. Fields that fail to parse become missing cells.
func processKlines(t *table.Table, ticker string, klines []*binance.Kline, timespan models.Timespan) error {
	for _, k := range klines {
		if err := t.AppendRow(
			table.Time(barDate(time.UnixMilli(k.OpenTime), timespan)),
			table.String(ticker),
			parseKlineField(k.Open, true),
			parseKlineField(k.High, true),
			parseKlineField(k.Low, true),
			parseKlineField(k.Close, true),
			parseKlineField(k.Volume, false),
		); err != nil {
			return err
		}
	}

	return nil
}

func parseKlineField(s string, price bool) table.Value {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return table.Null()
	}

	if price {
		return priceOrMissing(v)
	}

	return table.Float(v)
}

// convertTimespanToBinanceInterval converts the polygon timespan and multiplier to a Binance interval string.
// Binance intervals: 1s, 1m, 3m, 5m, 15m, 30m, 1h, 2h, 4h, 6h, 8h, 12h, 1d, 3d, 1w, 1M
// Ref: https://binance-docs.github.io/apidocs/spot/en/#kline-candlestick-data
func convertTimespanToBinanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	switch timespan {
	case models.Second:
		if multiplier == 1 {
			return "1s", nil
		}

		return "", fmt.Errorf("unsupported second multiplier for Binance: %d", multiplier)
	case models.Minute:
		return fmt.Sprintf("%dm", multiplier), nil
	case models.Hour:
		return fmt.Sprintf("%dh", multiplier), nil
	case models.Day:
		return fmt.Sprintf("%dd", multiplier), nil
	case models.Week:
		if multiplier == 1 {
			return "1w", nil
		}

		return "", fmt.Errorf("unsupported weekly multiplier for Binance: %d", multiplier)
	case models.Month:
		if multiplier == 1 {
			return "1M", nil
		}

		return "", fmt.Errorf("unsupported monthly multiplier for Binance: %d", multiplier)
	default:
		return "", fmt.Errorf("unsupported timespan for Binance: %s", timespan)
	}
}
