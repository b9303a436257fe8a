package types

import "fmt"

// DefaultMarker is the substring that identifies lines of interest.
const DefaultMarker = "gic_handle_irq"

// DefaultInputName is the input file name looked up next to the executable.
const DefaultInputName = "gic.txt"

// MalformedPolicy decides what a line contributes when it carries the marker
// but no complete quoted value after it.
type MalformedPolicy string

const (
	// MalformedSkip drops the line; it adds no value.
	MalformedSkip MalformedPolicy = "skip"

	// MalformedEmpty records the empty string for the line.
	MalformedEmpty MalformedPolicy = "empty"
)

// ParseMalformedPolicy validates s. An empty string selects MalformedSkip.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch MalformedPolicy(s) {
	case "", MalformedSkip:
		return MalformedSkip, nil
	case MalformedEmpty:
		return MalformedEmpty, nil
	}
	return "", fmt.Errorf("unknown malformed policy %q (want skip or empty)", s)
}

// OutputFormat selects how a ScanResult is rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatYAML OutputFormat = "yaml"
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates s. An empty string selects FormatText.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatYAML, FormatJSON:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, yaml or json)", s)
}

// ScanConfig holds settings for a single extraction pass.
type ScanConfig struct {
	// InputPath is the file to scan.
	InputPath string `json:"input_path" yaml:"input_path"`

	// Marker is the substring a line must contain to be considered.
	Marker string `json:"marker" yaml:"marker"`

	// Malformed selects the policy for marker lines without a quoted value.
	Malformed MalformedPolicy `json:"malformed" yaml:"malformed"`
}

// StoreConfig holds settings for the scan history database.
type StoreConfig struct {
	// Enabled records every scan when true.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// File is the log file path. Empty logs to stderr.
	File string `json:"file" yaml:"file"`

	MaxSizeMB  int `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// Config groups all gicscan settings.
type Config struct {
	Scan   ScanConfig   `json:"scan" yaml:"scan"`
	Format OutputFormat `json:"format" yaml:"format"`
	Store  StoreConfig  `json:"store" yaml:"store"`
	Log    LogConfig    `json:"log" yaml:"log"`
}
