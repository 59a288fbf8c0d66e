package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/pkg/cleaner"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/reader"
	"github.com/rxtech-lab/argo-ingest/pkg/table"
	"github.com/urfave/cli/v3"
)

func browseAction(_ context.Context, cmd *cli.Command) error {
	input := cmd.String("input")

	start := optional.None[time.Time]()
	if cmd.IsSet("start") {
		start = optional.Some(cmd.Timestamp("start"))
	}

	end := optional.None[time.Time]()
	if cmd.IsSet("end") {
		end = optional.Some(cmd.Timestamp("end"))
	}

	// Log output would corrupt the alt screen.
	log := logger.NewNopLogger()
	dataReader := reader.NewReader(log)
	dataCleaner := cleaner.NewCleaner(log)

	model := NewModel(
		filepath.Base(input),
		func() (*table.Table, error) { return dataReader.Load(input, start, end) },
		dataCleaner.Clean,
	)

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}

	return nil
}

func main() {
	layouts := []string{time.DateOnly, time.RFC3339}

	cmd := &cli.Command{
		Name:  "browse",
		Usage: "Browse a raw or cleaned price file and compare it with its cleaned form",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "csv, jsonl or parquet file to browse",
				Required: true,
			},
			&cli.TimestampFlag{Name: "start", Usage: "First date to load", Config: cli.TimestampConfig{Layouts: layouts}},
			&cli.TimestampFlag{Name: "end", Usage: "Last date to load", Config: cli.TimestampConfig{Layouts: layouts}},
		},
		Action: browseAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
