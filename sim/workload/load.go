// Package workload loads job traces for the simulator: allocation logs (CSV), Standard
// Workload Format files, synthetic consistent traces, and joins of trace blocks.
package workload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim"
)

// Trace formats accepted by Load.
const (
	FormatCSV = "csv"
	FormatSWF = "swf"
)

// ValidFormats is the set of recognized trace format names. Empty selects by extension.
var ValidFormats = map[string]bool{"": true, FormatCSV: true, FormatSWF: true}

// Load reads a trace file in the given format. An empty format picks SWF for the .swf
// extension and CSV otherwise.
func Load(path, format string) ([]*sim.Job, error) {
	if !ValidFormats[format] {
		return nil, fmt.Errorf("unknown trace format %q", format)
	}
	if format == "" {
		format = FormatCSV
		if strings.EqualFold(filepath.Ext(path), ".swf") {
			format = FormatSWF
		}
	}
	switch format {
	case FormatSWF:
		jobs, stats, err := LoadSWFFile(path)
		if err != nil {
			return nil, err
		}
		logrus.Infof("loaded %d jobs from %s (%d cancelled records skipped)", stats.Loaded, path, stats.Skipped)
		return jobs, nil
	default:
		jobs, err := LoadCSVFile(path)
		if err != nil {
			return nil, err
		}
		logrus.Infof("loaded %d jobs from %s", len(jobs), path)
		return jobs, nil
	}
}

// Validate checks every job against the ingestion contract for a pool of capacity units
// and reports all offending records at once.
func Validate(jobs []*sim.Job, capacity int) error {
	var result *multierror.Error
	seen := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		if err := j.Validate(capacity); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if seen[j.ID] {
			result = multierror.Append(result, errors.Wrapf(sim.ErrInvalidJob, "duplicate job id %s", j.ID))
		}
		seen[j.ID] = true
	}
	return result.ErrorOrNil()
}
