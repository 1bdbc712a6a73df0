// Package config loads the shell configuration from a YAML file. Engine
// options live here too so one file tunes both the server and the analysis.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mdejong/fininsight/internal/insight"
)

// Server holds HTTP server settings.
type Server struct {
	Port string `yaml:"port"`
}

// GCS points at the dataset snapshot object the refresh worker loads.
type GCS struct {
	Bucket string `yaml:"bucket"`
	Object string `yaml:"object"`
}

// BigQuery identifies the tables the pull command reads.
type BigQuery struct {
	ProjectID string `yaml:"project_id"`
	DatasetID string `yaml:"dataset_id"`
}

// Config is the full shell configuration.
type Config struct {
	Server   Server          `yaml:"server"`
	GCS      GCS             `yaml:"gcs"`
	BigQuery BigQuery        `yaml:"bigquery"`
	Engine   insight.Options `yaml:"engine"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Server: Server{Port: "8080"},
	}
}

// Load reads and parses a YAML config file. Unknown keys are rejected so
// typos fail loudly instead of silently falling back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
