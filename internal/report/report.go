// Package report renders scan results for the terminal or for other tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gicscan/pkg/types"
)

// NotFoundMessage is the single line printed when a scan yields no values.
func NotFoundMessage(marker string) string {
	return fmt.Sprintf("no %s values found", marker)
}

// Header is the line printed before the list of values.
func Header(marker string) string {
	return fmt.Sprintf("extracted %s values:", marker)
}

// Render writes res to w in the given format.
func Render(w io.Writer, res *types.ScanResult, format types.OutputFormat) error {
	switch format {
	case "", types.FormatText:
		return Text(w, res.Marker, res.Values)
	case types.FormatYAML:
		data, err := yaml.Marshal(res)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case types.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// Text writes the not-found line when values is empty, otherwise a header
// followed by one value per line.
func Text(w io.Writer, marker string, values []string) error {
	if len(values) == 0 {
		_, err := fmt.Fprintln(w, NotFoundMessage(marker))
		return err
	}

	if _, err := fmt.Fprintln(w, Header(marker)); err != nil {
		return err
	}
	for _, v := range values {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}
