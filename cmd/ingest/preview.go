package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Faint(true)
)

// renderPreview renders the first n rows of t as a bordered table.
func renderPreview(t *table.Table, n int) string {
	head := t.Head(n)

	preview := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(head.Columns()...).
		Rows(head.Records()[1:]...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	return preview.Render() + "\n" + footerStyle.Render(fmt.Sprintf("%d of %d rows", head.Len(), t.Len()))
}
