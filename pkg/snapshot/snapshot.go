// Package snapshot publishes immutable environment snapshots and runs
// independent scripts concurrently.
package snapshot

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/thomasrohde/dscript/pkg/runtime"
	"github.com/thomasrohde/dscript/pkg/value"
)

// Publisher holds the latest published snapshot. Readers never observe a
// partially written map: every Publish stores a fresh deep copy.
type Publisher struct {
	cur     atomic.Pointer[value.Map]
	version atomic.Uint64
}

// Publish deep-copies m and makes it the current snapshot.
func (p *Publisher) Publish(m value.Map) {
	c := m.DeepCopy()
	p.cur.Store(&c)
	p.version.Add(1)
}

// Load returns the current snapshot, or an empty map if nothing was
// published yet. The result must not be modified.
func (p *Publisher) Load() value.Map {
	if m := p.cur.Load(); m != nil {
		return *m
	}
	return value.NewMap()
}

// Version counts the snapshots published so far.
func (p *Publisher) Version() uint64 {
	return p.version.Load()
}

// Job is one script execution.
type Job struct {
	Name    string
	Source  string
	Entry   string
	Args    []value.Value
	Initial value.Map

	// Out receives the resulting snapshot when set.
	Out *Publisher
}

// Result is the outcome of one Job.
type Result struct {
	Name     string
	Snapshot value.Map
	Value    value.Value
	Err      error
}

// RunAll executes jobs on at most workers goroutines, each with its own
// engine from newEngine. Script failures are recorded per job and do not stop
// the others; results keep the order of jobs. The returned error is non-nil
// only when ctx ends before every job was started.
func RunAll(ctx context.Context, newEngine func() *runtime.Engine, jobs []Job, workers int) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range jobs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			job := jobs[i]
			snap, v, err := newEngine().RunWithEntryResult(gctx, job.Source, job.Entry, job.Args, job.Initial)
			results[i] = Result{Name: job.Name, Snapshot: snap, Value: v, Err: err}
			if job.Out != nil && err == nil {
				job.Out.Publish(snap)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
