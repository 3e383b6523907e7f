package workload

import (
	"fmt"
	"sort"

	"github.com/procsim/procsim/sim"
)

// SynthConfig describes a synthetic trace.
type SynthConfig struct {
	Seed       int64
	Jobs       int
	Capacity   int
	Users      int   // users are named user0..user<Users-1>; 0 leaves jobs without user
	MaxWait    int64 // max gap between submit and recorded start
	MaxRunTime int64 // runtimes are drawn from [1, MaxRunTime]
	MaxGap     int64 // max gap between consecutive recorded starts
}

// Validate checks the synthetic trace parameters.
func (c SynthConfig) Validate() error {
	switch {
	case c.Jobs < 0:
		return fmt.Errorf("jobs must be non-negative, got %d", c.Jobs)
	case c.Capacity < 1:
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	case c.Users < 0:
		return fmt.Errorf("users must be non-negative, got %d", c.Users)
	case c.MaxRunTime < 1:
		return fmt.Errorf("max runtime must be positive, got %d", c.MaxRunTime)
	case c.MaxWait < 0 || c.MaxGap < 0:
		return fmt.Errorf("time bounds must be non-negative")
	}
	return nil
}

// Synthesize generates a trace whose recorded schedule never exceeds the capacity: at
// every instant, the sizes of jobs with start <= t < end sum to at most Capacity. Such a
// trace replays without allocation errors. The same config always yields the same trace.
func Synthesize(cfg SynthConfig) ([]*sim.Job, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := newStreams(cfg.Seed)
	type running struct {
		end  int64
		size int
	}
	var (
		active []running
		jobs   = make([]*sim.Job, 0, cfg.Jobs)
		now    int64
	)
	for i := 0; i < cfg.Jobs; i++ {
		now += rng.get(streamGaps).Int63n(cfg.MaxGap + 1)
		used := 0
		for {
			kept := active[:0]
			used = 0
			for _, r := range active {
				if r.end > now {
					kept = append(kept, r)
					used += r.size
				}
			}
			active = kept
			if used < cfg.Capacity {
				break
			}
			// pool full: move to the earliest end
			sort.Slice(active, func(a, b int) bool { return active[a].end < active[b].end })
			now = active[0].end
		}
		size := 1 + rng.get(streamSizes).Intn(cfg.Capacity-used)
		runtime := 1 + rng.get(streamRunTimes).Int63n(cfg.MaxRunTime)
		wait := rng.get(streamWaits).Int63n(cfg.MaxWait + 1)
		submit := max(now-wait, 0)
		user := ""
		if cfg.Users > 0 {
			user = fmt.Sprintf("user%d", rng.get(streamUsers).Intn(cfg.Users))
		}
		jobs = append(jobs, &sim.Job{
			ID:         fmt.Sprintf("job%05d", i),
			User:       user,
			Submit:     submit,
			TraceStart: now,
			TraceEnd:   now + runtime,
			Size:       size,
		})
		active = append(active, running{end: now + runtime, size: size})
	}
	return jobs, nil
}
