// Package extract pulls quoted values out of marker lines in a text file.
//
// A line is of interest when it contains the marker. Its value is the text
// between the first double quote at or after the marker and the next double
// quote. Values are collected once each and returned in ascending byte order.
package extract

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/gicscan/pkg/types"
)

const quote = '"'

// readBufferSize is the initial read buffer; longer lines grow past it.
const readBufferSize = 64 * 1024

// cancelCheckEvery is how many lines are read between context checks.
const cancelCheckEvery = 4096

// LineStatus classifies a line for extraction.
type LineStatus int

const (
	// LineSkipped means the marker is absent.
	LineSkipped LineStatus = iota

	// LineMatched means the marker is present and a quoted value follows it.
	LineMatched

	// LineMalformed means the marker is present but no complete quoted value follows it.
	LineMalformed
)

func (s LineStatus) String() string {
	switch s {
	case LineSkipped:
		return "skipped"
	case LineMatched:
		return "matched"
	case LineMalformed:
		return "malformed"
	}
	return fmt.Sprintf("LineStatus(%d)", int(s))
}

// Value extracts the quoted value following marker in line.
// The returned value is only meaningful when status is LineMatched.
func Value(line, marker string) (string, LineStatus) {
	at := strings.Index(line, marker)
	if at < 0 {
		return "", LineSkipped
	}

	open := strings.IndexByte(line[at:], quote)
	if open < 0 {
		return "", LineMalformed
	}
	start := at + open + 1

	end := strings.IndexByte(line[start:], quote)
	if end < 0 {
		return "", LineMalformed
	}
	return line[start : start+end], LineMatched
}

// Extractor scans inputs for marker lines.
type Extractor struct {
	marker string
	policy types.MalformedPolicy
	logger *zap.Logger
}

// New returns an Extractor for cfg. Empty fields take their defaults and a
// nil logger discards output.
func New(cfg types.ScanConfig, logger *zap.Logger) *Extractor {
	marker := cfg.Marker
	if marker == "" {
		marker = types.DefaultMarker
	}
	policy := cfg.Malformed
	if policy == "" {
		policy = types.MalformedSkip
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{marker: marker, policy: policy, logger: logger}
}

// ScanFile opens path and scans it. The file is closed before ScanFile returns.
// A missing file yields an error matching fs.ErrNotExist.
func (e *Extractor) ScanFile(ctx context.Context, path string) (*types.ScanResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("input file not found: %w", err)
		}
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	return e.Scan(ctx, f, path)
}

// Scan reads r line by line in a single pass and returns the unique values
// found, sorted. source labels the result and error messages.
func (e *Extractor) Scan(ctx context.Context, r io.Reader, source string) (*types.ScanResult, error) {
	res := &types.ScanResult{
		Source:      source,
		Marker:      e.marker,
		Occurrences: make(map[string]int),
	}
	values := []string{}

	br := bufio.NewReaderSize(r, readBufferSize)
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("reading %s: %w", source, readErr)
		}
		if line == "" && readErr == io.EOF {
			break
		}

		res.LinesScanned++
		if res.LinesScanned%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if value, ok := e.lineValue(res, line, source); ok {
			if _, seen := res.Occurrences[value]; !seen {
				values = append(values, value)
			}
			res.Occurrences[value]++
		}

		if readErr == io.EOF {
			break
		}
	}

	sort.Strings(values)
	res.Values = values
	res.ScannedAt = time.Now().UTC()

	e.logger.Info("scan complete",
		zap.String("source", source),
		zap.Int("lines", res.LinesScanned),
		zap.Int("matched", res.LinesMatched),
		zap.Int("malformed", res.LinesMalformed),
		zap.Int("values", len(res.Values)))

	return res, nil
}

// lineValue applies the malformed policy to one line and updates the line
// counters. ok is false when the line contributes no value.
func (e *Extractor) lineValue(res *types.ScanResult, line, source string) (string, bool) {
	value, status := Value(line, e.marker)
	switch status {
	case LineMatched:
		res.LinesMatched++
		return value, true
	case LineMalformed:
		res.LinesMatched++
		res.LinesMalformed++
		e.logger.Debug("marker line without quoted value",
			zap.String("source", source),
			zap.Int("line", res.LinesScanned),
			zap.String("policy", string(e.policy)))
		return "", e.policy == types.MalformedEmpty
	}
	return "", false
}
