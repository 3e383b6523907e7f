package workload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/sirupsen/logrus"
)

// JoinStats reports what JoinTraces concatenated.
type JoinStats struct {
	Blocks []string
}

// BlockIndex returns the block number of a trace block file: the last dash-separated
// field of its base name that is a plain number, as in "run-PIK-2009-1-03-Fairshare".
func BlockIndex(path string) (int, bool) {
	fields := strings.Split(filepath.Base(path), "-")
	for i := len(fields) - 1; i >= 0; i-- {
		if n, err := strconv.Atoi(fields[i]); err == nil && n >= 0 {
			return n, true
		}
	}
	return 0, false
}

// JoinTraces concatenates the block files matched by pattern, in lexical order, into
// out. It stops at the first block whose index equals maxBlocks; maxBlocks <= 0 joins
// every match. Patterns support ** (recursive) globbing.
func JoinTraces(pattern string, out io.Writer, maxBlocks int) (JoinStats, error) {
	var stats JoinStats
	matches, err := zglob.Glob(pattern)
	if err != nil {
		return stats, fmt.Errorf("matching %q: %w", pattern, err)
	}
	sort.Strings(matches)
	for _, name := range matches {
		if idx, ok := BlockIndex(name); ok && maxBlocks > 0 && idx == maxBlocks {
			break
		}
		logrus.Infof("joining block %s", name)
		if err := appendFile(out, name); err != nil {
			return stats, err
		}
		stats.Blocks = append(stats.Blocks, name)
	}
	return stats, nil
}

// JoinTraceFile is JoinTraces into a fresh file at outPath.
func JoinTraceFile(pattern, outPath string, maxBlocks int) (JoinStats, error) {
	if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
		return JoinStats{}, fmt.Errorf("removing previous output: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return JoinStats{}, fmt.Errorf("creating joined trace: %w", err)
	}
	stats, err := JoinTraces(pattern, out, maxBlocks)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing joined trace: %w", cerr)
	}
	return stats, err
}

func appendFile(out io.Writer, name string) error {
	in, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("opening block: %w", err)
	}
	defer func() { _ = in.Close() }()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying block %s: %w", name, err)
	}
	return nil
}
