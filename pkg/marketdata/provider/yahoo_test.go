package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/polygon-io/client-go/rest/models"
	ingesterrors "github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type mockChartIterator struct {
	bars  []*finance.ChartBar
	index int
	err   error
}

func (m *mockChartIterator) Next() bool {
	if m.index < len(m.bars) {
		m.index++
		return true
	}
	return false
}

func (m *mockChartIterator) Bar() *finance.ChartBar {
	return m.bars[m.index-1]
}

func (m *mockChartIterator) Err() error {
	return m.err
}

func chartBar(ts time.Time, open, high, low, closePrice float64, volume int) *finance.ChartBar {
	//nolint:exhaustruct // AdjClose is not used
	return &finance.ChartBar{
		Open:      decimal.NewFromFloat(open),
		High:      decimal.NewFromFloat(high),
		Low:       decimal.NewFromFloat(low),
		Close:     decimal.NewFromFloat(closePrice),
		Volume:    volume,
		Timestamp: int(ts.Unix()),
	}
}

type YahooClientTestSuite struct {
	suite.Suite
	start time.Time
	end   time.Time
}

func TestYahooClientSuite(t *testing.T) {
	suite.Run(t, new(YahooClientTestSuite))
}

func (suite *YahooClientTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.end = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
}

func (suite *YahooClientTestSuite) TestNewYahooClient() {
	client := NewYahooClient()
	suite.NotNil(client.getChart)
}

func (suite *YahooClientTestSuite) TestFetchSuccess() {
	var captured *chart.Params

	bars := []*finance.ChartBar{
		chartBar(time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), 185.0, 186.5, 184.2, 185.6, 82488700),
		chartBar(time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC), 184.2, 185.9, 183.4, 184.3, 58414500),
	}

	client := NewYahooClientWithChart(func(params *chart.Params) YahooChartIterator {
		captured = params
		return &mockChartIterator{bars: bars}
	})

	result, err := client.Fetch(context.Background(), "AAPL", suite.start, suite.end, 1, models.Day)
	suite.Require().NoError(err)
	suite.Equal(2, result.Len())
	suite.Equal(table.PriceColumns, result.Columns())
	suite.True(result.At(0, table.ColumnDate).Time().Unwrap().Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	suite.InDelta(185.6, result.At(0, table.ColumnClose).Float().Unwrap(), 1e-9)
	suite.InDelta(58414500, result.At(1, table.ColumnVolume).Float().Unwrap(), 1e-9)

	suite.Require().NotNil(captured)
	suite.Equal("AAPL", captured.Symbol)
	suite.Equal(datetime.OneDay, captured.Interval)
	suite.Equal(2024, captured.Start.Year)
	suite.Equal(10, captured.End.Day)
}

func (suite *YahooClientTestSuite) TestFetchZeroQuotesAreMissing() {
	bars := []*finance.ChartBar{
		chartBar(time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), 185.0, 186.5, 184.2, 185.6, 100),
		chartBar(time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC), 0, 0, 0, 0, 0),
	}

	client := NewYahooClientWithChart(func(*chart.Params) YahooChartIterator {
		return &mockChartIterator{bars: bars}
	})

	result, err := client.Fetch(context.Background(), "AAPL", suite.start, suite.end, 1, models.Day)
	suite.Require().NoError(err)
	suite.Equal(5, result.NullCount())

	for _, column := range []string{table.ColumnOpen, table.ColumnHigh, table.ColumnLow, table.ColumnClose, table.ColumnVolume} {
		suite.True(result.At(1, column).IsNull(), column)
	}
}

func (suite *YahooClientTestSuite) TestFetchError() {
	client := NewYahooClientWithChart(func(*chart.Params) YahooChartIterator {
		return &mockChartIterator{err: errors.New("remote error, status code 404")}
	})

	_, err := client.Fetch(context.Background(), "NOPE", suite.start, suite.end, 1, models.Day)
	suite.Error(err)
	suite.Equal(ingesterrors.ErrCodeMarketDataFetchFailed, ingesterrors.GetCode(err))
	suite.Contains(err.Error(), "NOPE")
}

func (suite *YahooClientTestSuite) TestFetchUnsupportedInterval() {
	client := NewYahooClientWithChart(func(*chart.Params) YahooChartIterator {
		suite.Fail("chart should not be requested")
		return &mockChartIterator{}
	})

	_, err := client.Fetch(context.Background(), "AAPL", suite.start, suite.end, 3, models.Minute)
	suite.Error(err)
	suite.Equal(ingesterrors.ErrCodeInvalidTimespan, ingesterrors.GetCode(err))
}

func (suite *YahooClientTestSuite) TestFetchCancellation() {
	bars := []*finance.ChartBar{chartBar(suite.start, 1, 1, 1, 1, 1)}
	client := NewYahooClientWithChart(func(*chart.Params) YahooChartIterator {
		return &mockChartIterator{bars: bars}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx, "AAPL", suite.start, suite.end, 1, models.Day)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *YahooClientTestSuite) TestConvertTimespanToYahooInterval() {
	tests := []struct {
		timespan   models.Timespan
		multiplier int
		want       datetime.Interval
		wantErr    bool
	}{
		{models.Minute, 1, datetime.OneMin, false},
		{models.Minute, 5, datetime.FiveMins, false},
		{models.Minute, 15, datetime.FifteenMins, false},
		{models.Minute, 30, datetime.ThirtyMins, false},
		{models.Hour, 1, datetime.OneHour, false},
		{models.Day, 1, datetime.OneDay, false},
		{models.Month, 1, datetime.OneMonth, false},
		{models.Hour, 4, "", true},
		{models.Second, 1, "", true},
	}

	for _, tt := range tests {
		got, err := convertTimespanToYahooInterval(tt.timespan, tt.multiplier)
		if tt.wantErr {
			suite.Error(err)
			continue
		}

		suite.NoError(err)
		suite.Equal(tt.want, got)
	}
}
