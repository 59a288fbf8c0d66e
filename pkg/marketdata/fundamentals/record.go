package fundamentals

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

// Record holds the latest annual figures of one company. Figures the company
// does not report are None.
type Record struct {
	Ticker             string
	CIK                string
	EntityName         string
	FiscalYear         optional.Option[float64]
	PeriodEnd          optional.Option[string]
	Revenue            optional.Option[float64]
	NetIncome          optional.Option[float64]
	TotalAssets        optional.Option[float64]
	TotalLiabilities   optional.Option[float64]
	StockholdersEquity optional.Option[float64]
	EPSBasic           optional.Option[float64]
}

// Columns of the table produced by ToTable.
var Columns = []string{
	"Ticker", "CIK", "EntityName", "FiscalYear", "PeriodEnd",
	"Revenue", "NetIncome", "TotalAssets", "TotalLiabilities", "StockholdersEquity", "EPSBasic",
}

func (r Record) values() []table.Value {
	return []table.Value{
		table.String(r.Ticker),
		table.String(r.CIK),
		table.String(r.EntityName),
		table.FromAny(r.FiscalYear),
		table.FromAny(r.PeriodEnd),
		table.FromAny(r.Revenue),
		table.FromAny(r.NetIncome),
		table.FromAny(r.TotalAssets),
		table.FromAny(r.TotalLiabilities),
		table.FromAny(r.StockholdersEquity),
		table.FromAny(r.EPSBasic),
	}
}

func (r Record) conceptCount() int {
	count := 0

	for _, v := range []optional.Option[float64]{r.Revenue, r.NetIncome, r.TotalAssets, r.TotalLiabilities, r.StockholdersEquity, r.EPSBasic} {
		if v.IsSome() {
			count++
		}
	}

	return count
}

// ToTable renders records as a table with one row per record; missing figures are null cells.
func ToTable(records []Record) *table.Table {
	t := table.MustNew(Columns...)

	for _, r := range records {
		//nolint:errcheck // arity matches Columns
		t.AppendRow(r.values()...)
	}

	return t
}
