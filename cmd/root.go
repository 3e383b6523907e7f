package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/procsim/procsim/sim"
	_ "github.com/procsim/procsim/sim/fairshare"
	"github.com/procsim/procsim/sim/instrument"
	"github.com/procsim/procsim/sim/report"
	"github.com/procsim/procsim/sim/trace"
	"github.com/procsim/procsim/sim/workload"
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:           "procsim",
	Short:         "Discrete-event simulator for processor allocation and job scheduling",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// runOptions is the resolved configuration of a single run.
type runOptions struct {
	TracePath       string
	Format          string
	Synthesize      int
	Seed            int64
	Users           int
	Capacity        int
	PolicyConfig    string
	Policy          string
	QueueOrder      string
	Backfill        string
	Check           string
	MaxEvents       int
	Output          string
	ReportFormat    string
	MetricsTextfile string
	TraceLevel      string
}

func runOptionsFrom(v *viper.Viper) runOptions {
	return runOptions{
		TracePath:       v.GetString("trace"),
		Format:          v.GetString("format"),
		Synthesize:      v.GetInt("synthesize"),
		Seed:            v.GetInt64("seed"),
		Users:           v.GetInt("users"),
		Capacity:        v.GetInt("capacity"),
		PolicyConfig:    v.GetString("policy-config"),
		Policy:          v.GetString("policy"),
		QueueOrder:      v.GetString("queue-order"),
		Backfill:        v.GetString("backfill"),
		Check:           v.GetString("check"),
		MaxEvents:       v.GetInt("max-events"),
		Output:          v.GetString("output"),
		ReportFormat:    v.GetString("report-format"),
		MetricsTextfile: v.GetString("metrics-textfile"),
		TraceLevel:      v.GetString("trace-level"),
	}
}

// bundle loads the policy bundle and applies the per-field overrides.
func (o runOptions) bundle() (*sim.PolicyBundle, error) {
	b := &sim.PolicyBundle{}
	if o.PolicyConfig != "" {
		loaded, err := sim.LoadPolicyBundle(o.PolicyConfig)
		if err != nil {
			return nil, err
		}
		b = loaded
	}
	for _, f := range []struct {
		dst *string
		val string
	}{
		{&b.Policy, o.Policy},
		{&b.QueueOrder, o.QueueOrder},
		{&b.Backfill, o.Backfill},
		{&b.Check, o.Check},
	} {
		if f.val != "" {
			*f.dst = f.val
		}
	}
	return b, b.Validate()
}

func (o runOptions) jobs() ([]*sim.Job, error) {
	switch {
	case o.TracePath != "" && o.Synthesize > 0:
		return nil, errors.New("--trace and --synthesize are mutually exclusive")
	case o.TracePath != "":
		return workload.Load(o.TracePath, o.Format)
	case o.Synthesize > 0:
		return workload.Synthesize(workload.SynthConfig{
			Seed:       o.Seed,
			Jobs:       o.Synthesize,
			Capacity:   o.Capacity,
			Users:      o.Users,
			MaxWait:    3600,
			MaxRunTime: 7200,
			MaxGap:     600,
		})
	default:
		return nil, errors.New("no trace given: use --trace or --synthesize")
	}
}

// reportFormat is the explicit format, or the one named by the output extension.
func (o runOptions) reportFormat() string {
	if o.ReportFormat != "" {
		return o.ReportFormat
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(o.Output)), ".")
	if report.ValidFormats[ext] {
		return ext
	}
	return report.FormatJED
}

// simulate executes one run and writes its outputs. Metrics go to stdout.
func simulate(o runOptions, stdout io.Writer) error {
	if o.Capacity < 1 {
		return errors.Errorf("capacity must be positive, got %d", o.Capacity)
	}
	if !trace.IsValidTraceLevel(o.TraceLevel) {
		return errors.Errorf("unknown trace level %q", o.TraceLevel)
	}
	bundle, err := o.bundle()
	if err != nil {
		return err
	}
	jobs, err := o.jobs()
	if err != nil {
		return err
	}
	if err := workload.Validate(jobs, o.Capacity); err != nil {
		return err
	}
	cfg, err := sim.NewSimConfig(o.Capacity, bundle)
	if err != nil {
		return err
	}
	cfg.MaxEvents = o.MaxEvents
	cfg.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(o.TraceLevel)})

	logrus.Infof("Starting simulation of %d jobs on %d units, policy=%s check=%s",
		len(jobs), o.Capacity, cfg.Policy.Name(), cfg.Check)
	s, err := sim.NewSimulator(cfg, jobs)
	if err != nil {
		return err
	}
	records, err := s.Run()
	if err != nil {
		return err
	}
	s.Metrics.Print(stdout, o.Capacity)
	if cfg.Trace != nil {
		printTraceSummary(stdout, trace.Summarize(cfg.Trace))
	}

	if o.Output != "" {
		format := o.reportFormat()
		if o.Output == "-" {
			err = report.Write(stdout, format, records, o.Capacity)
		} else {
			err = report.WriteFile(o.Output, format, records, o.Capacity)
		}
		if err != nil {
			return err
		}
		logrus.Infof("wrote %s report of %d jobs to %s", format, len(records), o.Output)
	}
	if o.MetricsTextfile != "" {
		c := instrument.NewCollector()
		c.Add(instrument.Run{ID: "run", Policy: cfg.Policy.Name(), Capacity: o.Capacity, Metrics: s.Metrics})
		if err := instrument.WriteTextfile(o.MetricsTextfile, c); err != nil {
			return err
		}
	}
	logrus.Info("Simulation complete.")
	return nil
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Decision Trace ===")
	fmt.Fprintf(w, "Starts               : %d (%d backfilled, ratio %.3f)\n", s.TotalStarts, s.BackfilledCount, s.BackfillRatio)
	fmt.Fprintf(w, "Blocked Passes       : %d\n", s.BlockedPasses)
	if s.CampaignsOpened > 0 {
		fmt.Fprintf(w, "Campaigns            : %d opened, %d closed\n", s.CampaignsOpened, s.CampaignsClosed)
	}
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate one trace under a scheduling policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := setupLogging(v); err != nil {
			return err
		}
		return simulate(runOptionsFrom(v), cmd.OutOrStdout())
	},
}

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List the registered scheduling policies",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range sim.PolicyNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

// addPolicyFlags registers the policy selection flags shared by run and batch.
func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().Int("capacity", 0, "Number of units in the pool")
	cmd.Flags().String("format", "", "Trace format (csv, swf); empty picks by extension")
	cmd.Flags().Int("max-events", 0, "Abort after dispatching this many events (0 = unbounded)")
	cmd.Flags().String("trace-level", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().String("log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML file with flag values")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with PROCSIM_* variables")

	addPolicyFlags(runCmd)
	runCmd.Flags().String("trace", "", "Trace file to simulate")
	runCmd.Flags().Int("synthesize", 0, "Simulate a synthetic consistent trace of this many jobs instead of --trace")
	runCmd.Flags().Int64("seed", 42, "Seed of the synthetic trace")
	runCmd.Flags().Int("users", 4, "Number of users in the synthetic trace")
	runCmd.Flags().String("policy-config", "", "Policy bundle YAML")
	runCmd.Flags().String("policy", "", "Policy name, overrides the bundle")
	runCmd.Flags().String("queue-order", "", "Queue order (fcfs, sjf, lsf, priority), overrides the bundle")
	runCmd.Flags().String("backfill", "", "Backfill policy (none, easy, aggressive), overrides the bundle")
	runCmd.Flags().String("check", "", "Consistency check mode (off, counts, strict), overrides the bundle")
	runCmd.Flags().StringP("output", "o", "", "Allocation report path, - for stdout")
	runCmd.Flags().String("report-format", "", "Report format (jed, csv, parquet); empty picks by extension")
	runCmd.Flags().String("metrics-textfile", "", "Write Prometheus textfile metrics to this path")

	rootCmd.AddCommand(runCmd, policiesCmd)
}
