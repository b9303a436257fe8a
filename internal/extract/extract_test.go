package extract

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gicscan/pkg/types"
)

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), types.DefaultInputName)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func scanLines(t *testing.T, cfg types.ScanConfig, lines ...string) *types.ScanResult {
	t.Helper()
	res, err := New(cfg, nil).Scan(context.Background(), strings.NewReader(strings.Join(lines, "\n")), "test")
	require.NoError(t, err)
	return res
}

// --- Value ---

func TestValue(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantValue  string
		wantStatus LineStatus
	}{
		{"no marker", `random "text" here`, "", LineSkipped},
		{"simple", `gic_handle_irq("irq42")`, "irq42", LineMatched},
		{"prefix text", `[  1.0] foo gic_handle_irq("b") bar`, "b", LineMatched},
		{"quote before marker ignored", `"x" gic_handle_irq("y")`, "y", LineMatched},
		{"empty quotes", `gic_handle_irq("")`, "", LineMatched},
		{"later quotes ignored", `gic_handle_irq("a", "b")`, "a", LineMatched},
		{"no quote after marker", `"x" gic_handle_irq(42)`, "", LineMalformed},
		{"unclosed quote", `gic_handle_irq("abc`, "", LineMalformed},
		{"marker only", `gic_handle_irq`, "", LineMalformed},
		{"empty line", ``, "", LineSkipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, status := Value(tt.line, types.DefaultMarker)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantValue, got)
		})
	}
}

func TestLineStatusString(t *testing.T) {
	assert.Equal(t, "skipped", LineSkipped.String())
	assert.Equal(t, "matched", LineMatched.String())
	assert.Equal(t, "malformed", LineMalformed.String())
	assert.Equal(t, "LineStatus(9)", LineStatus(9).String())
}

// --- Scan ---

func TestScanDedupAndSort(t *testing.T) {
	res := scanLines(t, types.ScanConfig{},
		`foo gic_handle_irq("b")`,
		`gic_handle_irq("a")`,
		`x gic_handle_irq("b")`,
	)

	if diff := cmp.Diff([]string{"a", "b"}, res.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, res.LinesScanned)
	assert.Equal(t, 3, res.LinesMatched)
	assert.Equal(t, 0, res.LinesMalformed)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, res.Occurrences)
	assert.Equal(t, types.DefaultMarker, res.Marker)
	assert.False(t, res.ScannedAt.IsZero())
}

func TestScanNoMatches(t *testing.T) {
	res := scanLines(t, types.ScanConfig{},
		"booting kernel",
		`irq "5" raised`,
		"",
	)
	assert.True(t, res.Empty())
	assert.NotNil(t, res.Values)
	assert.Equal(t, 0, res.LinesMatched)
}

func TestScanUniqueSortedCount(t *testing.T) {
	lines := []string{
		`gic_handle_irq("uart0")`,
		`gic_handle_irq("timer")`,
		`gic_handle_irq("uart0")`,
		`gic_handle_irq("eth0")`,
		`gic_handle_irq("timer")`,
		`gic_handle_irq("Timer")`,
	}
	res := scanLines(t, types.ScanConfig{}, lines...)

	want := []string{"Timer", "eth0", "timer", "uart0"}
	if diff := cmp.Diff(want, res.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, len(lines), res.LinesMatched)
}

func TestScanOrderIndependent(t *testing.T) {
	a := scanLines(t, types.ScanConfig{},
		`gic_handle_irq("c")`, `gic_handle_irq("a")`, `gic_handle_irq("b")`)
	b := scanLines(t, types.ScanConfig{},
		`gic_handle_irq("b")`, `gic_handle_irq("c")`, `gic_handle_irq("a")`)
	assert.Equal(t, a.Values, b.Values)
}

func TestScanMalformedPolicy(t *testing.T) {
	lines := []string{
		`gic_handle_irq("a")`,
		`gic_handle_irq(no quotes)`,
		`gic_handle_irq("unclosed`,
	}

	t.Run("skip", func(t *testing.T) {
		res := scanLines(t, types.ScanConfig{Malformed: types.MalformedSkip}, lines...)
		assert.Equal(t, []string{"a"}, res.Values)
		assert.Equal(t, 3, res.LinesMatched)
		assert.Equal(t, 2, res.LinesMalformed)
	})

	t.Run("empty", func(t *testing.T) {
		res := scanLines(t, types.ScanConfig{Malformed: types.MalformedEmpty}, lines...)
		assert.Equal(t, []string{"", "a"}, res.Values)
		assert.Equal(t, 2, res.Occurrences[""])
		assert.Equal(t, 2, res.LinesMalformed)
	})

	t.Run("default is skip", func(t *testing.T) {
		res := scanLines(t, types.ScanConfig{}, `gic_handle_irq()`)
		assert.True(t, res.Empty())
		assert.Equal(t, 1, res.LinesMalformed)
	})
}

func TestScanCustomMarker(t *testing.T) {
	res := scanLines(t, types.ScanConfig{Marker: "irq_enter"},
		`irq_enter("x")`,
		`gic_handle_irq("y")`,
	)
	assert.Equal(t, []string{"x"}, res.Values)
	assert.Equal(t, "irq_enter", res.Marker)
}

func TestScanLongLine(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"larger than read buffer", 200 * 1024},
		{"larger than one MiB", 2 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			long := strings.Repeat("z", tt.size)
			res := scanLines(t, types.ScanConfig{},
				long+` gic_handle_irq("deep")`,
				`gic_handle_irq("a")`,
			)
			assert.Equal(t, []string{"a", "deep"}, res.Values)
			assert.Equal(t, 2, res.LinesScanned)
		})
	}
}

func TestScanLineEndings(t *testing.T) {
	input := "gic_handle_irq(\"crlf\")\r\nplain\r\ngic_handle_irq(\"last\")"
	res, err := New(types.ScanConfig{}, nil).Scan(context.Background(), strings.NewReader(input), "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"crlf", "last"}, res.Values)
	assert.Equal(t, 3, res.LinesScanned)

	res, err = New(types.ScanConfig{Malformed: types.MalformedEmpty}, nil).
		Scan(context.Background(), strings.NewReader("gic_handle_irq(\r\n"), "test")
	require.NoError(t, err)
	assert.Equal(t, []string{""}, res.Values)
}

func TestScanCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := strings.Repeat("line\n", cancelCheckEvery+1)
	_, err := New(types.ScanConfig{}, nil).Scan(ctx, strings.NewReader(input), "test")
	require.ErrorIs(t, err, context.Canceled)
}

// --- ScanFile ---

func TestScanFile(t *testing.T) {
	path := writeInput(t,
		`[    0.1] foo gic_handle_irq("b")`,
		`[    0.2] gic_handle_irq("a")`,
		`[    0.3] x gic_handle_irq("b")`,
	)

	res, err := New(types.ScanConfig{}, nil).ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Values)
	assert.Equal(t, path, res.Source)
}

func TestScanFileIdempotent(t *testing.T) {
	path := writeInput(t, `gic_handle_irq("z")`, `gic_handle_irq("y")`, `gic_handle_irq("z")`)
	ex := New(types.ScanConfig{}, nil)

	first, err := ex.ScanFile(context.Background(), path)
	require.NoError(t, err)
	second, err := ex.ScanFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first.Values, second.Values)
	assert.Equal(t, first.Occurrences, second.Occurrences)
}

func TestScanFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")

	res, err := New(types.ScanConfig{}, nil).ScanFile(context.Background(), path)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "input file not found")
}

func TestScanFileUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	path := writeInput(t, `gic_handle_irq("a")`)
	require.NoError(t, os.Chmod(path, 0o000))
	t.Cleanup(func() { os.Chmod(path, 0o644) })

	_, err := New(types.ScanConfig{}, nil).ScanFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Contains(t, err.Error(), "opening input file")
}
