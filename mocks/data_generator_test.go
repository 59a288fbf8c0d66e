package mocks

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 100

	data := gen.Generate(config)

	if data.Len() != 100 {
		t.Errorf("expected 100 rows, got %d", data.Len())
	}

	if data.HasNulls() {
		t.Errorf("expected no gaps with GapRatio 0, got %d", data.NullCount())
	}

	// Verify dates are in chronological order with the configured interval
	for i := 1; i < data.Len(); i++ {
		prev := data.At(i-1, table.ColumnDate).Time().Unwrap()
		cur := data.At(i, table.ColumnDate).Time().Unwrap()

		if cur.Sub(prev) != config.Interval {
			t.Errorf("unexpected interval at row %d: %v", i, cur.Sub(prev))
		}
	}

	for i := 0; i < data.Len(); i++ {
		if data.At(i, table.ColumnTicker).Text().Unwrap() != config.Ticker {
			t.Errorf("expected ticker %s at row %d", config.Ticker, i)
		}

		high := data.At(i, table.ColumnHigh).Float().Unwrap()
		low := data.At(i, table.ColumnLow).Float().Unwrap()

		if low <= 0 || high < low {
			t.Errorf("invalid high/low at row %d: H=%f L=%f", i, high, low)
		}
	}
}

func TestDataGenerator_Gaps(t *testing.T) {
	gen := NewDataGenerator(7)
	config := DefaultConfig()
	config.Count = 500
	config.GapRatio = 0.1

	data := gen.Generate(config)

	if data.ColumnNullCount(table.ColumnClose) == 0 {
		t.Error("expected gaps in Close column")
	}

	if data.ColumnNullCount(table.ColumnDate) != 0 || data.ColumnNullCount(table.ColumnTicker) != 0 {
		t.Error("gaps must only affect numeric columns")
	}
}

func TestDataGenerator_StringDates(t *testing.T) {
	gen := NewDataGenerator(1)
	config := DefaultConfig()
	config.Count = 3
	config.DatesAsStrings = true

	data := gen.Generate(config)

	if got := data.At(0, table.ColumnDate).Text().Unwrap(); got != "2024-01-02" {
		t.Errorf("expected 2024-01-02, got %s", got)
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	config := DefaultConfig()
	config.Count = 10
	config.GapRatio = 0.2

	data1 := NewDataGenerator(42).Generate(config)
	data2 := NewDataGenerator(42).Generate(config)

	if !data1.Equal(data2) {
		t.Error("same seed produced different tables")
	}

	data3 := NewDataGenerator(123).Generate(config)
	if data1.Equal(data3) {
		t.Error("different seeds produced identical tables")
	}
}

func TestDataGenerator_GenerateColumns(t *testing.T) {
	gen := NewDataGenerator(3)
	data := gen.GenerateColumns([]string{"A", "B", "C"}, 50, 0.3)

	if data.Len() != 50 {
		t.Errorf("expected 50 rows, got %d", data.Len())
	}

	if !data.HasNulls() {
		t.Error("expected gaps")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Ticker != "TEST" {
		t.Errorf("expected default ticker TEST, got %s", config.Ticker)
	}

	if config.Interval != 24*time.Hour {
		t.Errorf("expected default interval 24h, got %v", config.Interval)
	}

	if config.InitialPrice != 100.0 {
		t.Errorf("expected default initial price 100.0, got %f", config.InitialPrice)
	}
}
