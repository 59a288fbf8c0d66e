package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// FileInfo describes one file produced (or reused) by a run.
type FileInfo struct {
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Format string `json:"format"`
	Rows   int    `json:"rows"`
	// Reused is set when an existing file was kept instead of downloaded again.
	Reused bool `json:"reused"`
}

// Metadata is written next to the raw files after every run.
type Metadata struct {
	RunID                 string     `json:"runId"`
	Version               string     `json:"version"`
	Tickers               []string   `json:"tickers"`
	StartDate             string     `json:"startDate"`
	EndDate               string     `json:"endDate"`
	Interval              string     `json:"interval"`
	Provider              string     `json:"provider"`
	CreatedAt             time.Time  `json:"createdAt"`
	Files                 []FileInfo `json:"files"`
	SkippedPriceTickers   []string   `json:"skippedPriceTickers"`
	SkippedFundamentals   []string   `json:"skippedFundamentals"`
	FundamentalsRequested bool       `json:"fundamentalsRequested"`
}

// ReadMetadata loads the metadata file at path.
func ReadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}

	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}

	return metadata, nil
}

// WriteMetadata writes metadata to path as indented JSON.
func WriteMetadata(path string, metadata Metadata) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write metadata %s: %w", path, err)
	}

	return nil
}
