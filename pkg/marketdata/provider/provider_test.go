package provider

import (
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewMarketDataProvider(t *testing.T) {
	tests := []struct {
		name         string
		providerType ProviderType
		config       any
		wantType     any
		wantErr      bool
	}{
		{name: "yahoo", providerType: ProviderYahoo, wantType: &YahooClient{}},
		{name: "binance", providerType: ProviderBinance, wantType: &BinanceClient{}},
		{name: "polygon", providerType: ProviderPolygon, config: "key", wantType: &PolygonClient{}},
		{name: "polygon without key", providerType: ProviderPolygon, config: 42, wantErr: true},
		{name: "unknown", providerType: "iex", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewMarketDataProvider(tt.providerType, tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, p)

				return
			}

			assert.NoError(t, err)
			assert.IsType(t, tt.wantType, p)
		})
	}
}

func TestNewMarketDataProvider_UnknownCode(t *testing.T) {
	_, err := NewMarketDataProvider("iex", nil)
	assert.Equal(t, errors.ErrCodeInvalidProvider, errors.GetCode(err))
}

func TestBarDate(t *testing.T) {
	ts := time.Date(2024, 3, 5, 21, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), barDate(ts, models.Day))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), barDate(ts, models.Week))
	assert.Equal(t, ts, barDate(ts, models.Minute))

	local := ts.In(time.FixedZone("EST", -5*3600))
	assert.Equal(t, ts, barDate(local, models.Hour))
}

func TestPriceOrMissing(t *testing.T) {
	assert.True(t, priceOrMissing(0).IsNull())
	assert.True(t, priceOrMissing(-1).IsNull())
	assert.InDelta(t, 1.5, priceOrMissing(1.5).Float().Unwrap(), 1e-9)
}
