package interp

import (
	"context"
	"io"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/nilforge/tildeath/interp/diag"
)

// Scheduler owns the lifetime of every goroutine an interpreter run spawns:
// entity lifecycle goroutines (timers, processes, connections, watchers,
// composites) and bifurcate branch bodies. It mirrors the single asyncio
// event loop of the reference implementation, except branches here are
// real concurrent goroutines rather than cooperatively interleaved
// coroutines, so Yield is a cheap explicit scheduling point rather than the
// only point at which anything else gets to run.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	active int64
	log    *diag.Logger
}

// NewScheduler creates a scheduler bound to ctx. Cancelling ctx (or calling
// Shutdown) tears down every goroutine the scheduler has spawned. Diagnostics
// go to stderr by default; use SetLogOutput to redirect them to the owning
// interpreter's configured writer.
func NewScheduler(ctx context.Context) *Scheduler {
	group, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	return &Scheduler{ctx: runCtx, cancel: cancel, group: group, log: diag.New("scheduler", os.Stderr)}
}

// SetLogOutput redirects the scheduler's diagnostic logger to w, letting an
// owning interpreter route scheduler diagnostics to the same writer as its
// own logs instead of the os.Stderr default.
func (s *Scheduler) SetLogOutput(w io.Writer) {
	s.log = diag.New("scheduler", w)
}

// SetTimestamps toggles the timestamp prefix on the scheduler's diagnostic
// logger, tuned by tildeath.toml's [display].timestamps.
func (s *Scheduler) SetTimestamps(on bool) {
	s.log = s.log.WithTimestamps(on)
}

// Context returns the scheduler's run context, cancelled on Shutdown or on
// the first spawned goroutine's error.
func (s *Scheduler) Context() context.Context { return s.ctx }

// Spawn runs fn in a new goroutine managed by the scheduler's errgroup. A
// non-nil return value cancels every other spawned goroutine's context,
// mirroring asyncio's task-group first-error-cancels-all behavior.
func (s *Scheduler) Spawn(fn func(ctx context.Context) error) {
	atomic.AddInt64(&s.active, 1)
	s.group.Go(func() error {
		defer atomic.AddInt64(&s.active, -1)
		err := fn(s.ctx)
		if err != nil {
			s.log.Error("spawned goroutine exited: %s", err)
		}
		return err
	})
}

// ActiveCount reports how many spawned goroutines have not yet returned,
// shown by the debugger's "tasks" command.
func (s *Scheduler) ActiveCount() int64 {
	return atomic.LoadInt64(&s.active)
}

// Yield gives other goroutines a chance to run, the equivalent of the
// reference interpreter's `await asyncio.sleep(0)` scheduling point used
// after a branch-mode ~ATH loop spawns its branch and by the NOT composite
// entity.
func (s *Scheduler) Yield() {
	runtime.Gosched()
}

// Shutdown cancels every spawned goroutine and waits for them to return,
// joining their errors via the errgroup's first-error semantics.
func (s *Scheduler) Shutdown() error {
	s.log.Info("shutting down, %d goroutines active", s.ActiveCount())
	s.cancel()
	return s.group.Wait()
}

// Wait blocks until every spawned goroutine has returned on its own,
// without cancelling the scheduler's context first. Used at top-level
// program exit once the main statement list has finished executing and
// any remaining branches/entities are expected to wind down naturally.
func (s *Scheduler) Wait() error {
	return s.group.Wait()
}
