package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/gicscan/internal/extract"
	"github.com/pdiddy/gicscan/internal/report"
	"github.com/pdiddy/gicscan/internal/store"
	"github.com/pdiddy/gicscan/pkg/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Extract marker values from the input file (default command)",
	Long: `Scan reads the input file once, collects the first quoted value after the
marker on every matching line, and prints the unique values sorted. Lines with
the marker but no quoted value are skipped, or reported as an empty value with
--malformed=empty.

With --record the result is also saved to the history database.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	addScanFlags(rootCmd)
	addScanFlags(scanCmd)

	rootCmd.AddCommand(scanCmd)
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "input file (default: gic.txt next to the gicscan binary)")
	cmd.Flags().String("marker", types.DefaultMarker, "substring identifying lines of interest")
	cmd.Flags().String("malformed", string(types.MalformedSkip), "marker lines without a quoted value: skip or empty")
	cmd.Flags().StringP("format", "f", string(types.FormatText), "output format: text, yaml or json")
	cmd.Flags().Bool("record", false, "save the result to the history database")
	cmd.Flags().String("db", "", "history database (default: gicscan.db next to the input file)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := scanConfig(cmd)
	if err != nil {
		return err
	}
	return scan(cmd.Context(), cmd.OutOrStdout(), cfg, logger)
}

// scanConfig merges flags over viper settings.
func scanConfig(cmd *cobra.Command) (types.Config, error) {
	input, err := inputPath(cmd)
	if err != nil {
		return types.Config{}, err
	}

	policy, err := types.ParseMalformedPolicy(stringSetting(cmd, "malformed", "malformed"))
	if err != nil {
		return types.Config{}, err
	}
	format, err := types.ParseOutputFormat(stringSetting(cmd, "format", "format"))
	if err != nil {
		return types.Config{}, err
	}

	enabled := viper.GetBool("store.enabled")
	if f := cmd.Flags().Lookup("record"); f != nil && f.Changed {
		enabled, _ = cmd.Flags().GetBool("record")
	}

	return types.Config{
		Scan: types.ScanConfig{
			InputPath: input,
			Marker:    stringSetting(cmd, "marker", "marker"),
			Malformed: policy,
		},
		Format: format,
		Store: types.StoreConfig{
			Enabled: enabled,
			Path:    storePath(cmd, input),
		},
		Log: logConfig(),
	}, nil
}

// storePath resolves the history database: --db, then store.path, then
// gicscan.db beside the input file.
func storePath(cmd *cobra.Command, input string) string {
	if p := stringSetting(cmd, "db", "store.path"); p != "" {
		return p
	}
	return filepath.Join(filepath.Dir(input), store.DefaultFile)
}

// scan runs one extraction and writes the report to w. Nothing is written
// when the input cannot be read.
func scan(ctx context.Context, w io.Writer, cfg types.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	res, err := extract.New(cfg.Scan, logger).ScanFile(ctx, cfg.Scan.InputPath)
	if err != nil {
		return err
	}

	if cfg.Store.Enabled {
		if err := recordRun(ctx, cfg.Store, res, logger); err != nil {
			return err
		}
	}

	return report.Render(w, res, cfg.Format)
}

func recordRun(ctx context.Context, cfg types.StoreConfig, res *types.ScanResult, logger *zap.Logger) error {
	s, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer s.Close()

	id, err := s.Record(ctx, res)
	if err != nil {
		return fmt.Errorf("recording scan: %w", err)
	}
	logger.Info("scan recorded", zap.Int64("run", id), zap.String("db", cfg.Path))
	return nil
}
