package types

import "time"

// ScanResult is the outcome of one pass over an input file.
type ScanResult struct {
	// Source is the path (or label) of the scanned input.
	Source string `json:"source" yaml:"source"`

	// Marker is the substring used to select lines.
	Marker string `json:"marker" yaml:"marker"`

	// Values holds the unique extracted values in ascending byte order.
	Values []string `json:"values" yaml:"values"`

	// Occurrences counts how many lines produced each value.
	Occurrences map[string]int `json:"occurrences,omitempty" yaml:"occurrences,omitempty"`

	// LinesScanned is the total number of lines read.
	LinesScanned int `json:"lines_scanned" yaml:"lines_scanned"`

	// LinesMatched is the number of lines containing the marker.
	LinesMatched int `json:"lines_matched" yaml:"lines_matched"`

	// LinesMalformed is the number of marker lines without a complete quoted value.
	LinesMalformed int `json:"lines_malformed" yaml:"lines_malformed"`

	// ScannedAt is when the scan finished.
	ScannedAt time.Time `json:"scanned_at" yaml:"scanned_at"`
}

// Empty reports whether the scan produced no values.
func (r *ScanResult) Empty() bool {
	return r == nil || len(r.Values) == 0
}
