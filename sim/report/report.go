// Package report exports the allocation report of a run: Jedule XML for schedule
// visualization, CSV for spreadsheets, and Parquet for analysis tooling.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/procsim/procsim/sim"
)

// Formats accepted by Write.
const (
	FormatJED     = "jed"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// ValidFormats is the set of recognized report format names.
var ValidFormats = map[string]bool{FormatJED: true, FormatCSV: true, FormatParquet: true}

// Write exports records to w in the named format.
func Write(w io.Writer, format string, records []sim.JobRecord, capacity int) error {
	switch format {
	case FormatJED:
		return WriteJED(w, records, capacity)
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatParquet:
		return WriteParquet(w, records)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

var csvHeader = []string{"id", "user", "submit", "start", "end", "size", "backfilled", "ranges"}

// WriteCSV writes one row per job, ranges rendered as "(0,3) (8,9)".
func WriteCSV(w io.Writer, records []sim.JobRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.User,
			strconv.FormatInt(r.Submit, 10),
			strconv.FormatInt(r.Start, 10),
			strconv.FormatInt(r.End, 10),
			strconv.Itoa(r.Size),
			strconv.FormatBool(r.Backfilled),
			sim.FormatRanges(r.Ranges),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
