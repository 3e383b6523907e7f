package workload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/procsim/procsim/sim"
)

// csvColumns is the minimum row width of an allocation log.
const csvColumns = 8

// LoadCSV reads an allocation log: one header line, then rows whose columns 2, 3 and 1
// form the job id, column 4 is the submit time, column 5 the start time, column 6 the
// runtime and column 7 the unit count (0-based). The log carries no user.
func LoadCSV(r io.Reader) ([]*sim.Job, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header row
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var jobs []*sim.Job
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", line, err)
		}
		if len(row) < csvColumns {
			return nil, fmt.Errorf("CSV row %d has %d columns, expected at least %d", line, len(row), csvColumns)
		}
		j, err := parseCSVRow(row)
		if err != nil {
			return nil, fmt.Errorf("CSV row %d: %w", line, err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func parseCSVRow(row []string) (*sim.Job, error) {
	var vals [4]int64
	for i, col := range []int{4, 5, 6, 7} {
		v, err := strconv.ParseInt(strings.TrimSpace(row[col]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", col, err)
		}
		vals[i] = v
	}
	submit, start, runtime, size := vals[0], vals[1], vals[2], vals[3]
	return &sim.Job{
		ID:         strings.TrimSpace(row[2]) + "-" + strings.TrimSpace(row[3]) + "-" + strings.TrimSpace(row[1]),
		Submit:     submit,
		TraceStart: start,
		TraceEnd:   start + runtime,
		Size:       int(size),
	}, nil
}

// LoadCSVFile is LoadCSV on a file path.
func LoadCSVFile(path string) ([]*sim.Job, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	defer func() { _ = file.Close() }()
	return LoadCSV(file)
}
