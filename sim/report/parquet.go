package report

import (
	"fmt"
	"io"
	"os"

	parquetWriter "github.com/xitongsys/parquet-go/writer"

	"github.com/procsim/procsim/sim"
)

// AllocationRow is one allocated unit range of a job.
type AllocationRow struct {
	JobID      string `parquet:"name=job_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	User       string `parquet:"name=user, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Submit     int64  `parquet:"name=submit, type=INT64"`
	Start      int64  `parquet:"name=start, type=INT64"`
	End        int64  `parquet:"name=end, type=INT64"`
	Size       int    `parquet:"name=size, type=INT64"`
	Backfilled bool   `parquet:"name=backfilled, type=BOOLEAN"`
	First      int    `parquet:"name=first_unit, type=INT64"`
	Last       int    `parquet:"name=last_unit, type=INT64"`
}

// Rows flattens records into one row per allocated range.
func Rows(records []sim.JobRecord) []AllocationRow {
	var rows []AllocationRow
	for _, r := range records {
		for _, rg := range r.Ranges {
			rows = append(rows, AllocationRow{
				JobID:      r.ID,
				User:       r.User,
				Submit:     r.Submit,
				Start:      r.Start,
				End:        r.End,
				Size:       r.Size,
				Backfilled: r.Backfilled,
				First:      rg.First,
				Last:       rg.Last,
			})
		}
	}
	return rows
}

// WriteParquet writes the allocation rows of records as a Parquet file to w.
func WriteParquet(w io.Writer, records []sim.JobRecord) error {
	pw, err := parquetWriter.NewParquetWriterFromWriter(w, new(AllocationRow), 1)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	for _, row := range Rows(records) {
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("writing parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finishing parquet file: %w", err)
	}
	return nil
}

// WriteFile creates path and writes records to it in the named format.
func WriteFile(path, format string, records []sim.JobRecord, capacity int) error {
	if !ValidFormats[format] {
		return fmt.Errorf("unknown report format %q", format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := Write(f, format, records, capacity); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
