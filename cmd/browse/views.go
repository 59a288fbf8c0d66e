package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

// AllTickers selects every row regardless of ticker.
const AllTickers = "All tickers"

// listItem implements list.Item interface for the ticker list.
type listItem struct {
	name        string
	description string
}

func (i listItem) Title() string       { return i.name }
func (i listItem) Description() string { return i.description }
func (i listItem) FilterValue() string { return i.name }

// TickerSummary counts the rows and missing cells of one ticker.
type TickerSummary struct {
	Ticker  string
	Rows    int
	Missing int
}

// TickerSummaries groups t by its Ticker column in order of first appearance.
// The first entry always covers all rows.
func TickerSummaries(t *table.Table) []TickerSummary {
	summaries := []TickerSummary{{Ticker: AllTickers, Rows: t.Len(), Missing: t.NullCount()}}

	if !t.HasColumn(table.ColumnTicker) {
		return summaries
	}

	positions := make(map[string]int)

	for i := 0; i < t.Len(); i++ {
		ticker := t.At(i, table.ColumnTicker).String()

		pos, ok := positions[ticker]
		if !ok {
			pos = len(summaries)
			positions[ticker] = pos
			summaries = append(summaries, TickerSummary{Ticker: ticker})
		}

		summaries[pos].Rows++

		for _, v := range t.Row(i) {
			if v.IsNull() {
				summaries[pos].Missing++
			}
		}
	}

	return summaries
}

// NewTickerList creates the ticker selection list.
func NewTickerList(summaries []TickerSummary) list.Model {
	items := make([]list.Item, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, listItem{
			name:        s.Ticker,
			description: fmt.Sprintf("%d rows, %d missing cells", s.Rows, s.Missing),
		})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select Ticker"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return l
}

// NewDataTable creates a table with one column per table column.
func NewDataTable(columns []string) btable.Model {
	cols := make([]btable.Column, 0, len(columns))

	for _, name := range columns {
		width := 12
		switch name {
		case table.ColumnDate:
			width = 20
		case table.ColumnTicker:
			width = 8
		case table.ColumnClose:
			width = 16
		}

		cols = append(cols, btable.Column{Title: name, Width: width})
	}

	t := btable.New(
		btable.WithColumns(cols),
		btable.WithFocused(true),
		btable.WithHeight(10),
	)

	s := btable.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateTableRows fills the table with the rows of data belonging to ticker.
// Close is marked up or down against the previous shown row.
func UpdateTableRows(t btable.Model, data *table.Table, ticker string) btable.Model {
	hasTicker := data.HasColumn(table.ColumnTicker)
	rows := make([]btable.Row, 0, data.Len())
	previousClose := 0.0

	for i := 0; i < data.Len(); i++ {
		if ticker != AllTickers && hasTicker && data.At(i, table.ColumnTicker).String() != ticker {
			continue
		}

		values := data.Row(i)
		row := make(btable.Row, len(values))

		for c, name := range data.Columns() {
			v := values[c]

			switch {
			case v.IsNull():
				row[c] = missingCell
			case name == table.ColumnClose:
				closePrice := v.Float().TakeOr(0)
				row[c] = FormatPriceWithColor(closePrice, previousClose)
				previousClose = closePrice
			default:
				row[c] = v.String()
			}
		}

		rows = append(rows, row)
	}

	t.SetRows(rows)

	return t
}
