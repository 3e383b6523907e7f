// Package sim provides the core discrete-event engine of procsim: it replays a trace of
// job submissions against a fixed pool of identical units and reports the unit ranges
// every job held while running.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - allocator.go: FreeSet, best-fit allocation and coalescing release
//   - event_queue.go: the deterministic, cancelable event queue
//   - simulator.go: the event loop, scheduling and backfill passes
//
// # Architecture
//
// The sim package defines the policy contract and the built-in policies; further
// implementations live in sub-packages:
//   - sim/fairshare/: user-share and campaign based policies
//   - sim/workload/: trace ingestion (CSV, SWF), synthetic traces and trace joining
//   - sim/report/: allocation report export (Jedule XML, Parquet, CSV)
//   - sim/instrument/: Prometheus exposition of run metrics
//   - sim/batch/: parallel execution of independent runs
//   - sim/trace/: decision trace recording
//
// Sub-packages register their policies via init() functions that call RegisterPolicy.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Policy: admission bookkeeping, virtual time, ordering, readiness and runtime
//   - QueueOrder: order jobs within the waiting set
//   - Backfiller: admit jobs behind a blocked head
package sim
