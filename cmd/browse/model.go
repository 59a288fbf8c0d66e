package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	btable "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
)

// Application states.
const (
	StateLoading = iota
	StateTickerSelect
	StateDataDisplay
)

// Loader reads the table to browse.
type Loader func() (*table.Table, error)

// CleanFunc cleans a copy of the loaded table for the cleaned view.
type CleanFunc func(*table.Table) (*table.Table, error)

// Model is the Bubble Tea model of the file browser.
type Model struct {
	state      int
	source     string
	load       Loader
	clean      CleanFunc
	tickerList list.Model
	dataTable  btable.Model
	raw        *table.Table
	cleaned    *table.Table
	cleanErr   error
	showClean  bool
	ticker     string
	err        error
	width      int
	height     int
}

// NewModel creates a Model that loads its data from load when started.
func NewModel(source string, load Loader, clean CleanFunc) Model {
	return Model{
		state:      StateLoading,
		source:     source,
		load:       load,
		clean:      clean,
		tickerList: NewTickerList(nil),
		dataTable:  NewDataTable(nil),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	load := m.load

	return func() tea.Msg {
		t, err := load()
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		return DataLoadedMsg{Table: t}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			// The ticker list uses typed keys for filtering
			if m.state != StateTickerSelect || !m.tickerList.SettingFilter() {
				return m, tea.Quit
			}
		case "esc":
			if m.state == StateDataDisplay {
				m.state = StateTickerSelect
				m.ticker = ""

				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tickerList.SetSize(msg.Width, msg.Height-4)
		m.dataTable.SetWidth(msg.Width)
		m.dataTable.SetHeight(msg.Height - 6)

		return m, nil

	case DataLoadedMsg:
		m.raw = msg.Table
		m.cleaned, m.cleanErr = m.clean(msg.Table)
		m.tickerList = NewTickerList(TickerSummaries(msg.Table))
		m.tickerList.SetSize(m.width, m.height-4)
		m.dataTable = NewDataTable(msg.Table.Columns())
		m.state = StateTickerSelect

		return m, nil

	case LoadErrorMsg:
		m.err = msg.Err

		return m, nil
	}

	switch m.state {
	case StateTickerSelect:
		return m.updateTickerSelect(msg)
	case StateDataDisplay:
		return m.updateDataDisplay(msg)
	}

	return m, nil
}

func (m Model) updateTickerSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" && !m.tickerList.SettingFilter() {
		if item, ok := m.tickerList.SelectedItem().(listItem); ok {
			m.ticker = item.name
			m.state = StateDataDisplay
			m.refreshRows()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.tickerList, cmd = m.tickerList.Update(msg)

	return m, cmd
}

func (m Model) updateDataDisplay(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "c" {
		m.showClean = !m.showClean
		m.refreshRows()

		return m, nil
	}

	var cmd tea.Cmd
	m.dataTable, cmd = m.dataTable.Update(msg)

	return m, cmd
}

// current returns the table shown in the data view; nil when cleaning failed.
func (m Model) current() *table.Table {
	if m.showClean {
		return m.cleaned
	}

	return m.raw
}

func (m *Model) refreshRows() {
	if data := m.current(); data != nil {
		m.dataTable = UpdateTableRows(m.dataTable, data, m.ticker)
	} else {
		m.dataTable.SetRows(nil)
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateLoading:
		s.WriteString(TitleStyle.Render("Argo Ingest - " + m.source))
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n\n")
			s.WriteString(HelpStyle.Render("q: quit"))
		} else {
			s.WriteString("Loading...\n")
		}

	case StateTickerSelect:
		s.WriteString(m.tickerList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to select, / to filter, q to quit"))

	case StateDataDisplay:
		view := "raw"
		if m.showClean {
			view = "cleaned"
		}

		s.WriteString(TitleStyle.Render(fmt.Sprintf("%s - %s (%s)", m.source, m.ticker, view)))
		s.WriteString("\n\n")

		if m.showClean && m.cleanErr != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Cleaning failed: %v", m.cleanErr)))
			s.WriteString("\n\n")
		} else {
			s.WriteString(m.dataTable.View())
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("q: quit | Esc: back | c: toggle raw/cleaned"))
	}

	return s.String()
}
