package main

import "github.com/rxtech-lab/argo-ingest/pkg/table"

// DataLoadedMsg carries the table read from the input file.
type DataLoadedMsg struct {
	Table *table.Table
}

// LoadErrorMsg indicates the input file could not be read.
type LoadErrorMsg struct {
	Err error
}
