package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

// DataGenerator generates price tables with provider-style gaps for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how price tables are generated.
type GeneratorConfig struct {
	// Ticker is the equity symbol (e.g., "AAPL", "SPY")
	Ticker string
	// StartTime is the first bar date
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	// Count is the number of rows to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per bar)
	Volatility float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// GapRatio is the probability that any single numeric cell is missing
	GapRatio float64
	// InvalidDateRatio is the probability that a row carries an unparseable date string
	InvalidDateRatio float64
	// DatesAsStrings renders the Date column as YYYY-MM-DD strings instead of times
	DatesAsStrings bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Ticker:           "TEST",
		StartTime:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Interval:         24 * time.Hour,
		Count:            250,
		InitialPrice:     100.0,
		Volatility:       0.02,
		VolumeBase:       1_000_000,
		GapRatio:         0.0,
		InvalidDateRatio: 0.0,
		DatesAsStrings:   false,
	}
}

// Generate creates a price table with the columns in table.PriceColumns.
// Prices follow a geometric random walk; gaps are injected per cell after generation.
func (g *DataGenerator) Generate(config GeneratorConfig) *table.Table {
	t := table.MustNew(table.PriceColumns...)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normally distributed return
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		closePrice := open * (1 + config.Volatility*z)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		high := math.Max(open, closePrice) * (1 + g.rng.Float64()*config.Volatility*0.5)
		low := math.Min(open, closePrice) * (1 - g.rng.Float64()*config.Volatility*0.5)
		volume := config.VolumeBase * (0.7 + g.rng.Float64()*0.6)

		date := table.Time(currentTime)
		if config.DatesAsStrings {
			date = table.String(currentTime.Format(time.DateOnly))
		}

		if g.rng.Float64() < config.InvalidDateRatio {
			date = table.String("not-a-date")
		}

		//nolint:errcheck // arity matches table.PriceColumns
		t.AppendRow(
			date,
			table.String(config.Ticker),
			g.maybeGap(roundToDecimals(open, 4), config.GapRatio),
			g.maybeGap(roundToDecimals(high, 4), config.GapRatio),
			g.maybeGap(roundToDecimals(low, 4), config.GapRatio),
			g.maybeGap(roundToDecimals(closePrice, 4), config.GapRatio),
			g.maybeGap(math.Round(volume), config.GapRatio),
		)

		currentPrice = closePrice
		currentTime = currentTime.Add(config.Interval)
	}

	return t
}

// GenerateColumns creates a table of arbitrary numeric columns with gaps, for property tests.
func (g *DataGenerator) GenerateColumns(columns []string, rows int, gapRatio float64) *table.Table {
	t := table.MustNew(columns...)

	for i := 0; i < rows; i++ {
		values := make([]table.Value, len(columns))
		for c := range values {
			values[c] = g.maybeGap(float64(g.rng.Intn(1000)), gapRatio)
		}

		//nolint:errcheck // arity matches columns
		t.AppendRow(values...)
	}

	return t
}

func (g *DataGenerator) maybeGap(v float64, gapRatio float64) table.Value {
	if g.rng.Float64() < gapRatio {
		return table.Null()
	}

	return table.Float(v)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
