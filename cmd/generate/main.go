package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-ingest/internal/config"
)

const (
	configDir  = "./config"
	schemaName = "ingest-config.json"
	sampleName = "ingest-config.yaml"
)

func main() {
	schemaPath := filepath.Join(configDir, schemaName)
	sampleConfigPath := filepath.Join(configDir, sampleName)

	if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
		log.Fatalf("Invalid paths: %v", err)
	}

	if err := validateSchemaName(schemaName); err != nil {
		log.Fatalf("Invalid schema name: %v", err)
	}

	if err := generateSchemaFile(schemaPath); err != nil {
		log.Fatalf("%v", err)
	}

	if err := generateSampleConfig(config.Default(), sampleConfigPath, schemaName); err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)
}

// generateSchemaFile writes the config JSON schema to schemaPath, creating its directory.
func generateSchemaFile(schemaPath string) error {
	schemaJSON, err := config.Schema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes cfg as YAML to samplePath unless the file already exists.
func generateSampleConfig(cfg config.Config, samplePath string, schemaName string) error {
	if _, err := os.Stat(samplePath); err == nil {
		return nil
	}

	yamlBytes, err := cfg.ToYAML()
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := os.MkdirAll(filepath.Dir(samplePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(samplePath, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	log.Printf("Sample config successfully generated at %s", samplePath)

	return nil
}

func validatePaths(schemaPath, sampleConfigPath string) error {
	if schemaPath == "" {
		return fmt.Errorf("schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		return fmt.Errorf("sample config path cannot be empty")
	}

	return nil
}

func validateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", name)
	}

	return nil
}

// getSchemaReference returns the yaml-language-server modeline pointing at schemaName.
func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}
