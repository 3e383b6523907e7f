package workload

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/procsim/procsim/sim"
)

// SWF field positions (0-based) of the Standard Workload Format.
const (
	swfJobID     = 0
	swfSubmit    = 1
	swfWait      = 2
	swfRunTime   = 3
	swfAllocated = 4
	swfRequested = 7
	swfUser      = 11
	swfMinFields = 12
)

// SWFStats counts what LoadSWF kept and dropped.
type SWFStats struct {
	Loaded  int
	Skipped int // cancelled or incomplete records: negative runtime or no units
}

// LoadSWF reads a trace in the Standard Workload Format of the Parallel Workloads
// Archive. Comment lines start with ';'. A job starts at submit + wait and runs for its
// runtime on its allocated processors, or its requested ones when the allocation is
// missing.
func LoadSWF(r io.Reader) ([]*sim.Job, SWFStats, error) {
	var (
		jobs  []*sim.Job
		stats SWFStats
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, ";") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < swfMinFields {
			return nil, stats, fmt.Errorf("SWF line %d has %d fields, expected at least %d", line, len(fields), swfMinFields)
		}
		nums := make(map[int]int64, 6)
		for _, f := range []int{swfSubmit, swfWait, swfRunTime, swfAllocated, swfRequested} {
			v, err := parseSWFNumber(fields[f])
			if err != nil {
				return nil, stats, fmt.Errorf("SWF line %d field %d: %w", line, f+1, err)
			}
			nums[f] = v
		}
		size := nums[swfAllocated]
		if size <= 0 {
			size = nums[swfRequested]
		}
		if nums[swfRunTime] < 0 || size <= 0 || nums[swfWait] < 0 {
			stats.Skipped++
			continue
		}
		start := nums[swfSubmit] + nums[swfWait]
		user := fields[swfUser]
		if user == "-1" {
			user = ""
		}
		jobs = append(jobs, &sim.Job{
			ID:         fields[swfJobID],
			User:       user,
			Submit:     nums[swfSubmit],
			TraceStart: start,
			TraceEnd:   start + nums[swfRunTime],
			Size:       int(size),
		})
		stats.Loaded++
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("reading SWF: %w", err)
	}
	return jobs, stats, nil
}

// parseSWFNumber accepts the integer fields of SWF, some archives write them as
// decimals ("3600.00").
func parseSWFNumber(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// LoadSWFFile is LoadSWF on a file path.
func LoadSWFFile(path string) ([]*sim.Job, SWFStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, SWFStats{}, fmt.Errorf("opening trace: %w", err)
	}
	defer func() { _ = file.Close() }()
	return LoadSWF(file)
}
