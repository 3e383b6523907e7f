package workload

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockIndex(t *testing.T) {
	tests := []struct {
		path   string
		want   int
		wantOK bool
	}{
		{"out/run-PIK-2009-1-03-Fairshare", 3, true},
		{"block-7", 7, true},
		{"trace-final", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := BlockIndex(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinTraces_ConcatenatesInOrder(t *testing.T) {
	// GIVEN three block files written out of order
	dir := t.TempDir()
	writeFile(t, dir, "run-02-x", "c\n")
	writeFile(t, dir, "run-00-x", "a\n")
	writeFile(t, dir, "run-01-x", "b\n")

	// WHEN joined without a limit
	var buf bytes.Buffer
	stats, err := JoinTraces(filepath.Join(dir, "run-*-x"), &buf, 0)

	// THEN blocks appear in lexical order
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", buf.String())
	assert.Len(t, stats.Blocks, 3)
}

func TestJoinTraces_StopsAtMaxBlocks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"run-00-x", "run-01-x", "run-02-x"} {
		writeFile(t, dir, name, name+"\n")
	}

	var buf bytes.Buffer
	stats, err := JoinTraces(filepath.Join(dir, "run-*-x"), &buf, 2)

	require.NoError(t, err)
	assert.Equal(t, "run-00-x\nrun-01-x\n", buf.String())
	assert.Len(t, stats.Blocks, 2)
}

func TestJoinTraces_RecursivePattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	writeFile(t, filepath.Join(dir, "a"), "blk-0.csv", "x\n")
	writeFile(t, filepath.Join(dir, "a", "b"), "blk-1.csv", "y\n")

	var buf bytes.Buffer
	stats, err := JoinTraces(filepath.Join(dir, "**", "*.csv"), &buf, 0)

	require.NoError(t, err)
	assert.Len(t, stats.Blocks, 2)
	assert.Contains(t, buf.String(), "x\n")
	assert.Contains(t, buf.String(), "y\n")
}

func TestJoinTraceFile_ReplacesOutput(t *testing.T) {
	// GIVEN a stale joined file
	dir := t.TempDir()
	writeFile(t, dir, "blk-0.part", "new\n")
	out := writeFile(t, dir, "joined.out", "stale\n")

	// WHEN joined into the same path
	_, err := JoinTraceFile(filepath.Join(dir, "*.part"), out, 0)

	// THEN the old content is gone
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}
