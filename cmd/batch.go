package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/procsim/procsim/sim/batch"
	"github.com/procsim/procsim/sim/instrument"
	"github.com/procsim/procsim/sim/report"
	"github.com/procsim/procsim/sim/trace"
)

type batchOptions struct {
	Traces          string
	Bundles         string
	Format          string
	Capacity        int
	MaxEvents       int
	Parallelism     int
	ContinueOnError bool
	OutputDir       string
	ReportFormat    string
	MetricsTextfile string
	TraceLevel      string
}

func batchOptionsFrom(v *viper.Viper) batchOptions {
	return batchOptions{
		Traces:          v.GetString("traces"),
		Bundles:         v.GetString("bundles"),
		Format:          v.GetString("format"),
		Capacity:        v.GetInt("capacity"),
		MaxEvents:       v.GetInt("max-events"),
		Parallelism:     v.GetInt("parallelism"),
		ContinueOnError: v.GetBool("continue-on-error"),
		OutputDir:       v.GetString("output-dir"),
		ReportFormat:    v.GetString("report-format"),
		MetricsTextfile: v.GetString("metrics-textfile"),
		TraceLevel:      v.GetString("trace-level"),
	}
}

// runBatch simulates every (trace, bundle) pair and prints one summary line per run.
// Reports land in OutputDir as <run id>.<format>.
func runBatch(ctx context.Context, o batchOptions, stdout io.Writer) error {
	if o.Capacity < 1 {
		return errors.Errorf("capacity must be positive, got %d", o.Capacity)
	}
	if !trace.IsValidTraceLevel(o.TraceLevel) {
		return errors.Errorf("unknown trace level %q", o.TraceLevel)
	}
	if o.OutputDir != "" && !report.ValidFormats[o.ReportFormat] {
		return errors.Errorf("unknown report format %q", o.ReportFormat)
	}
	specs, err := batch.Expand(o.Traces, o.Bundles, o.Capacity)
	if err != nil {
		return err
	}
	for i := range specs {
		specs[i].Format = o.Format
		specs[i].MaxEvents = o.MaxEvents
	}
	logrus.Infof("running %d simulations, %d at a time", len(specs), max(o.Parallelism, 1))

	runner := &batch.Runner{
		Parallelism:     o.Parallelism,
		ContinueOnError: o.ContinueOnError,
		TraceLevel:      trace.TraceLevel(o.TraceLevel),
	}
	results, runErr := runner.Run(ctx, specs)

	if o.OutputDir != "" {
		if err := os.MkdirAll(o.OutputDir, 0o755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
	}
	collector := instrument.NewCollector()
	for _, r := range results {
		if r.Err != nil || r.Metrics == nil {
			continue
		}
		s := r.Metrics.Summarize(o.Capacity)
		fmt.Fprintf(stdout, "%s\t%s\t%s\tmakespan=%d\tutilization=%.4f\tmean_wait=%.2f\n",
			r.RunID, r.Spec, r.Policy, s.Makespan, s.Utilization, s.MeanWait)
		collector.Add(instrument.Run{ID: r.RunID, Policy: r.Policy, Capacity: o.Capacity, Metrics: r.Metrics})
		if o.OutputDir != "" {
			path := filepath.Join(o.OutputDir, r.RunID+"."+o.ReportFormat)
			if err := report.WriteFile(path, o.ReportFormat, r.Records, o.Capacity); err != nil {
				return err
			}
		}
	}
	if o.MetricsTextfile != "" {
		if err := instrument.WriteTextfile(o.MetricsTextfile, collector); err != nil {
			return err
		}
	}
	return runErr
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Simulate every combination of traces and policy bundles in parallel",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := setupLogging(v); err != nil {
			return err
		}
		return runBatch(cmd.Context(), batchOptionsFrom(v), cmd.OutOrStdout())
	},
}

func init() {
	addPolicyFlags(batchCmd)
	batchCmd.Flags().String("traces", "", "Glob of trace files (** supported)")
	batchCmd.Flags().String("bundles", "", "Glob of policy bundle YAML files; empty runs the default bundle")
	batchCmd.Flags().Int("parallelism", 4, "Max concurrent simulations")
	batchCmd.Flags().Bool("continue-on-error", false, "Keep running after a failed simulation and report all failures")
	batchCmd.Flags().String("output-dir", "", "Directory for per-run allocation reports")
	batchCmd.Flags().String("report-format", report.FormatCSV, "Report format (jed, csv, parquet)")
	batchCmd.Flags().String("metrics-textfile", "", "Write Prometheus textfile metrics of all runs to this path")

	rootCmd.AddCommand(batchCmd)
}
