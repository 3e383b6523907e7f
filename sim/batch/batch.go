// Package batch runs independent simulations, one per (trace, policy bundle) pair, on a
// bounded pool of goroutines.
package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/sim/trace"
	"github.com/procsim/procsim/sim/workload"
)

// Spec describes one run.
type Spec struct {
	TracePath  string
	Format     string // trace format, empty picks by extension
	BundlePath string // policy bundle YAML, empty uses Bundle
	Bundle     *sim.PolicyBundle
	Capacity   int
	MaxEvents  int
}

func (s Spec) String() string {
	bundle := s.BundlePath
	if bundle == "" && s.Bundle != nil {
		bundle = s.Bundle.Policy
	}
	return fmt.Sprintf("%s [%s]", s.TracePath, bundle)
}

// Result is the outcome of one run.
type Result struct {
	RunID   string
	Spec    Spec
	Policy  string
	Records []sim.JobRecord
	Metrics *sim.Metrics
	Trace   *trace.SimulationTrace
	Err     error
}

// Runner executes specs in parallel.
type Runner struct {
	Parallelism     int // max concurrent runs; <= 0 means one
	ContinueOnError bool
	TraceLevel      trace.TraceLevel
}

// Expand builds the cross product of the traces matched by tracePattern and the bundles
// matched by bundlePattern. An empty bundlePattern pairs every trace with the default
// bundle. Patterns support ** globbing.
func Expand(tracePattern, bundlePattern string, capacity int) ([]Spec, error) {
	traces, err := glob(tracePattern)
	if err != nil {
		return nil, err
	}
	bundles := []string{""}
	if bundlePattern != "" {
		if bundles, err = glob(bundlePattern); err != nil {
			return nil, err
		}
	}
	specs := make([]Spec, 0, len(traces)*len(bundles))
	for _, t := range traces {
		for _, b := range bundles {
			specs = append(specs, Spec{TracePath: t, BundlePath: b, Capacity: capacity})
		}
	}
	return specs, nil
}

func glob(pattern string) ([]string, error) {
	matches, err := zglob.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "matching %q", pattern)
	}
	if len(matches) == 0 {
		return nil, errors.Errorf("no files match %q", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// Run executes specs and returns their results in spec order. Without ContinueOnError,
// the first failure cancels the runs not started yet and is returned. With it, every
// spec runs and the failures are returned together.
func (r *Runner) Run(ctx context.Context, specs []Spec) ([]Result, error) {
	results := make([]Result, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Parallelism, 1))

	var (
		mu     sync.Mutex
		failed *multierror.Error
	)
	for i := range specs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Spec: specs[i], Err: err}
				return err
			}
			results[i] = r.runOne(specs[i])
			err := results[i].Err
			if err == nil {
				return nil
			}
			if r.ContinueOnError {
				mu.Lock()
				failed = multierror.Append(failed, errors.WithMessagef(err, "run %s (%s)", results[i].RunID, specs[i]))
				mu.Unlock()
				return nil
			}
			return errors.WithMessagef(err, "run %s (%s)", results[i].RunID, specs[i])
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, failed.ErrorOrNil()
}

func (r *Runner) runOne(spec Spec) Result {
	res := Result{RunID: uuid.NewString(), Spec: spec}
	bundle := spec.Bundle
	if spec.BundlePath != "" {
		b, err := sim.LoadPolicyBundle(spec.BundlePath)
		if err != nil {
			res.Err = err
			return res
		}
		bundle = b
	}
	jobs, err := workload.Load(spec.TracePath, spec.Format)
	if err != nil {
		res.Err = err
		return res
	}
	cfg, err := sim.NewSimConfig(spec.Capacity, bundle)
	if err != nil {
		res.Err = err
		return res
	}
	cfg.MaxEvents = spec.MaxEvents
	cfg.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: r.TraceLevel})
	res.Policy = cfg.Policy.Name()
	res.Trace = cfg.Trace

	s, err := sim.NewSimulator(cfg, jobs)
	if err != nil {
		res.Err = err
		return res
	}
	logrus.Infof("run %s: %d jobs from %s under %s", res.RunID, len(jobs), spec.TracePath, res.Policy)
	res.Records, res.Err = s.Run()
	res.Metrics = s.Metrics
	return res
}
